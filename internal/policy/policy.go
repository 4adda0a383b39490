// Package policy centralizes every role check in the API in a single pure
// decision function, so the rule set can be audited and tested in
// isolation. The package performs no I/O.
package policy

import "strings"

// Action enumerates everything an actor can attempt against the API.
type Action int

const (
	ViewJobs Action = iota
	CreateJob
	UpdateJob
	ChangeJobStatus
	DeleteJob
	ManageUsers
	ManageCustomers
	ManageVehicles
	ManageJobStatuses
	CreateNote
	ViewNotes
	DeleteNote
)

// Role names as seeded in the roles table. Comparison is case-insensitive
// everywhere.
const (
	RoleAdmin    = "Admin"
	RoleMechanic = "Mechanic"
	RoleCustomer = "Customer"
)

// Actor is the authenticated identity performing an operation. A zero Actor
// (no id, no role) represents an unauthenticated caller and is denied
// everything.
type Actor struct {
	ID   uint64
	Role string
}

// IsAdmin reports whether the actor holds the Admin role.
func (a Actor) IsAdmin() bool { return strings.EqualFold(a.Role, RoleAdmin) }

// IsMechanic reports whether the actor holds the Mechanic role.
func (a Actor) IsMechanic() bool { return strings.EqualFold(a.Role, RoleMechanic) }

// Resource carries the per-target context a decision may depend on: the
// job's assigned mechanic for job-scoped actions, and the note's author for
// DeleteNote. A nil AssignedMechanicID means the job is unassigned.
type Resource struct {
	AssignedMechanicID *uint64
	NoteAuthorID       uint64
}

// Allows decides whether the actor may perform action on the resource.
// Rules, first match wins:
//  1. Admin may do everything.
//  2. DeleteNote is additionally granted to the note's author regardless of
//     role.
//  3. Mechanics may view jobs (the result set is filtered to their own by
//     the caller), and may change status, view notes and create notes only
//     on jobs they are assigned to.
//  4. Everyone else is denied. An unauthenticated actor fails closed.
func Allows(actor Actor, action Action, res Resource) bool {
	if actor.IsAdmin() {
		return true
	}
	if action == DeleteNote && actor.ID != 0 && res.NoteAuthorID == actor.ID {
		return true
	}
	if actor.IsMechanic() {
		switch action {
		case ViewJobs:
			return true
		case ChangeJobStatus, CreateNote, ViewNotes:
			return res.AssignedMechanicID != nil && *res.AssignedMechanicID == actor.ID
		}
	}
	return false
}
