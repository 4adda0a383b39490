package model

import "time"

// Job priorities accepted by the API. Anything else is rejected with a
// validation error.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ValidPriority reports whether p is one of the accepted priority values.
func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// JobStatus represents a row in the `job_statuses` table. Statuses are
// reference data (Received, In Progress, Awaiting Parts, Completed, Pending)
// but the set is live: admins may add or rename statuses and any existing
// status id is a legal target for a status change. There is deliberately no
// transition graph between statuses; only *who* may move a job is enforced.
type JobStatus struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// RepairJob is the central mutable entity of the tracker. Each job belongs
// to a vehicle and a customer, optionally has an assigned mechanic (a user
// whose role is Mechanic) and always references a job status.
//
// Fields:
//  AssignedMechanicID – nullable FK to users.id; enforced to be a Mechanic
//                       by the workflow, not by a storage constraint.
//  StatusID           – FK to job_statuses.id; mutated only through the
//                       dedicated status-change operation.
//  Priority           – low | medium | high.
type RepairJob struct {
	ID                     uint64     `json:"id"`
	VehicleID              uint64     `json:"vehicle_id"`
	CustomerID             uint64     `json:"customer_id"`
	AssignedMechanicID     *uint64    `json:"assigned_mechanic_id"`
	StatusID               uint64     `json:"status_id"`
	Description            string     `json:"description"`
	EstimatedDurationHours *int       `json:"estimated_duration_hours"`
	Priority               string     `json:"priority,omitempty"`
	ReceivedAt             *time.Time `json:"received_at"`
	StartedAt              *time.Time `json:"started_at"`
	CompletedAt            *time.Time `json:"completed_at"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`

	// Embedded relations, populated on reads so the dashboard does not have
	// to issue follow-up requests.
	Vehicle  *Vehicle   `json:"vehicle,omitempty"`
	Customer *Customer  `json:"customer,omitempty"`
	Status   *JobStatus `json:"status,omitempty"`
	Mechanic *User      `json:"mechanic,omitempty"`
}

// JobNote is an append-mostly note attached to a repair job. The author is
// captured at write time; deletion is restricted to admins and the author.
type JobNote struct {
	ID          uint64    `json:"id"`
	RepairJobID uint64    `json:"repair_job_id"`
	UserID      uint64    `json:"user_id"`
	Note        string    `json:"note"`
	Author      *User     `json:"author,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
