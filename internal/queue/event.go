// Package queue defines message payloads exchanged over the message broker.
package queue

// JobStatusChangedEvent is published whenever a repair job's status is
// changed through the dedicated status endpoint. It carries enough context
// for downstream consumers to log or notify without querying the primary
// database.
type JobStatusChangedEvent struct {
	JobID          uint64 `json:"job_id"`
	FromStatusID   uint64 `json:"from_status_id"`
	ToStatusID     uint64 `json:"to_status_id"`
	FromStatusName string `json:"from_status_name,omitempty"`
	ToStatusName   string `json:"to_status_name,omitempty"`
	ChangedByID    uint64 `json:"changed_by_id"`
	ChangedByRole  string `json:"changed_by_role,omitempty"`
	ChangedAt      string `json:"changed_at"`
}
