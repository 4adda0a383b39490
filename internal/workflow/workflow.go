package workflow

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/workshop-job-tracker/internal/model"
	"github.com/iliyamo/workshop-job-tracker/internal/policy"
	"github.com/iliyamo/workshop-job-tracker/internal/queue"
)

// JobStore persists repair jobs. Implementations report a missing row with
// sql.ErrNoRows. ListJobs takes mechanicID == 0 to mean "all jobs".
type JobStore interface {
	GetJob(ctx context.Context, id uint64) (*model.RepairJob, error)
	CreateJob(ctx context.Context, j *model.RepairJob) error
	UpdateJob(ctx context.Context, id uint64, p JobPatch) error
	UpdateJobStatus(ctx context.Context, id, statusID uint64) error
	DeleteJob(ctx context.Context, id uint64) error
	ListJobs(ctx context.Context, mechanicID uint64, page, perPage int) ([]*model.RepairJob, int, error)
}

// NoteStore persists job notes. GetNote is scoped by job so a note id from
// another job reads as missing.
type NoteStore interface {
	GetNote(ctx context.Context, jobID, noteID uint64) (*model.JobNote, error)
	CreateNote(ctx context.Context, n *model.JobNote) error
	DeleteNote(ctx context.Context, id uint64) error
	ListNotes(ctx context.Context, jobID uint64, page, perPage int) ([]*model.JobNote, int, error)
}

// Directory answers the referential lookups job validation needs.
// UserRole returns the role name of the user, or "" when the user does not
// exist.
type Directory interface {
	VehicleExists(ctx context.Context, id uint64) (bool, error)
	CustomerExists(ctx context.Context, id uint64) (bool, error)
	StatusExists(ctx context.Context, id uint64) (bool, error)
	UserRole(ctx context.Context, id uint64) (string, error)
}

// Publisher emits domain events after successful status changes. A failed
// publish never fails the request.
type Publisher interface {
	JobStatusChanged(ctx context.Context, ev queue.JobStatusChangedEvent) error
}

// JobPatch carries the optional fields of a general job update. Nil fields
// are left unchanged.
type JobPatch struct {
	VehicleID              *uint64
	CustomerID             *uint64
	AssignedMechanicID     *uint64
	StatusID               *uint64
	Description            *string
	EstimatedDurationHours *int
	Priority               *string
	ReceivedAt             *time.Time
	StartedAt              *time.Time
	CompletedAt            *time.Time
}

// Controller enforces the job workflow on top of the stores. It holds no
// state of its own; every decision is a function of the actor, the target
// row and the policy.
type Controller struct {
	Jobs   JobStore
	Notes  NoteStore
	Dir    Directory
	Events Publisher // optional
}

func NewController(jobs JobStore, notes NoteStore, dir Directory, events Publisher) *Controller {
	if jobs == nil || notes == nil || dir == nil {
		panic("nil store passed to workflow.NewController")
	}
	return &Controller{Jobs: jobs, Notes: notes, Dir: dir, Events: events}
}

// jobResource builds the policy resource context for a job.
func jobResource(j *model.RepairJob) policy.Resource {
	return policy.Resource{AssignedMechanicID: j.AssignedMechanicID}
}

// Create validates and inserts a new repair job. vehicle_id, customer_id,
// assigned_mechanic_id, status_id and description are all required and must
// reference existing rows; the assigned mechanic must be a user holding the
// Mechanic role. On failure every violated field is reported and nothing is
// inserted.
func (w *Controller) Create(ctx context.Context, actor policy.Actor, j *model.RepairJob) error {
	if !policy.Allows(actor, policy.CreateJob, policy.Resource{}) {
		return ErrForbidden
	}

	ferr := fieldErrors{}
	if j.VehicleID == 0 {
		ferr.add("vehicle_id", "required")
	} else if ok, err := w.Dir.VehicleExists(ctx, j.VehicleID); err != nil {
		return err
	} else if !ok {
		ferr.add("vehicle_id", "vehicle does not exist")
	}
	if j.CustomerID == 0 {
		ferr.add("customer_id", "required")
	} else if ok, err := w.Dir.CustomerExists(ctx, j.CustomerID); err != nil {
		return err
	} else if !ok {
		ferr.add("customer_id", "customer does not exist")
	}
	if j.AssignedMechanicID == nil || *j.AssignedMechanicID == 0 {
		ferr.add("assigned_mechanic_id", "required")
	} else if err := w.checkMechanic(ctx, *j.AssignedMechanicID, ferr); err != nil {
		return err
	}
	if j.StatusID == 0 {
		ferr.add("status_id", "required")
	} else if ok, err := w.Dir.StatusExists(ctx, j.StatusID); err != nil {
		return err
	} else if !ok {
		ferr.add("status_id", "status does not exist")
	}
	if strings.TrimSpace(j.Description) == "" {
		ferr.add("description", "required")
	}
	if j.Priority != "" && !model.ValidPriority(j.Priority) {
		ferr.add("priority", "must be one of low, medium, high")
	}
	if err := ferr.err(); err != nil {
		return err
	}
	return w.Jobs.CreateJob(ctx, j)
}

// checkMechanic validates that id names an existing user with the Mechanic
// role. Violations are recorded on ferr.
func (w *Controller) checkMechanic(ctx context.Context, id uint64, ferr fieldErrors) error {
	role, err := w.Dir.UserRole(ctx, id)
	if err != nil {
		return err
	}
	switch {
	case role == "":
		ferr.add("assigned_mechanic_id", "user does not exist")
	case !strings.EqualFold(role, policy.RoleMechanic):
		ferr.add("assigned_mechanic_id", "user is not a mechanic")
	}
	return nil
}

// UpdateGeneral applies a partial update to any field except status_id when
// the actor is an Admin: a supplied status_id is silently dropped so that
// status changes only flow through UpdateStatus. Referenced foreign entities
// are validated before anything is written.
func (w *Controller) UpdateGeneral(ctx context.Context, actor policy.Actor, jobID uint64, p JobPatch) (*model.RepairJob, error) {
	if !policy.Allows(actor, policy.UpdateJob, policy.Resource{}) {
		return nil, ErrForbidden
	}
	if _, err := w.loadJob(ctx, jobID); err != nil {
		return nil, err
	}

	if actor.IsAdmin() {
		// Admins must use the dedicated status endpoint; ignore the field.
		p.StatusID = nil
	}

	ferr := fieldErrors{}
	if p.VehicleID != nil {
		if ok, err := w.Dir.VehicleExists(ctx, *p.VehicleID); err != nil {
			return nil, err
		} else if !ok {
			ferr.add("vehicle_id", "vehicle does not exist")
		}
	}
	if p.CustomerID != nil {
		if ok, err := w.Dir.CustomerExists(ctx, *p.CustomerID); err != nil {
			return nil, err
		} else if !ok {
			ferr.add("customer_id", "customer does not exist")
		}
	}
	if p.AssignedMechanicID != nil {
		if err := w.checkMechanic(ctx, *p.AssignedMechanicID, ferr); err != nil {
			return nil, err
		}
	}
	if p.StatusID != nil {
		if ok, err := w.Dir.StatusExists(ctx, *p.StatusID); err != nil {
			return nil, err
		} else if !ok {
			ferr.add("status_id", "status does not exist")
		}
	}
	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		ferr.add("description", "must not be empty")
	}
	if p.Priority != nil && !model.ValidPriority(*p.Priority) {
		ferr.add("priority", "must be one of low, medium, high")
	}
	if err := ferr.err(); err != nil {
		return nil, err
	}

	if err := w.Jobs.UpdateJob(ctx, jobID, p); err != nil {
		return nil, err
	}
	return w.loadJob(ctx, jobID)
}

// UpdateStatus is the only path that changes a job's status_id. Admins may
// always invoke it; mechanics only on jobs assigned to them. The target
// status must exist, but there is no ordering between statuses: any existing
// status id is a legal target.
func (w *Controller) UpdateStatus(ctx context.Context, actor policy.Actor, jobID, statusID uint64) (*model.RepairJob, error) {
	job, err := w.loadJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !policy.Allows(actor, policy.ChangeJobStatus, jobResource(job)) {
		return nil, ErrForbidden
	}
	if statusID == 0 {
		return nil, &ValidationError{Fields: map[string]string{"status_id": "required"}}
	}
	if ok, err := w.Dir.StatusExists(ctx, statusID); err != nil {
		return nil, err
	} else if !ok {
		return nil, &ValidationError{Fields: map[string]string{"status_id": "status does not exist"}}
	}

	if err := w.Jobs.UpdateJobStatus(ctx, jobID, statusID); err != nil {
		return nil, err
	}
	updated, err := w.loadJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if w.Events != nil {
		ev := queue.JobStatusChangedEvent{
			JobID:         jobID,
			FromStatusID:  job.StatusID,
			ToStatusID:    statusID,
			ChangedByID:   actor.ID,
			ChangedByRole: actor.Role,
			ChangedAt:     time.Now().UTC().Format(time.RFC3339),
		}
		if job.Status != nil {
			ev.FromStatusName = job.Status.Name
		}
		if updated.Status != nil {
			ev.ToStatusName = updated.Status.Name
		}
		if err := w.Events.JobStatusChanged(ctx, ev); err != nil {
			log.Printf("workflow: publish status change for job %d failed: %v", jobID, err)
		}
	}
	return updated, nil
}

// Delete hard-deletes a repair job together with its notes.
func (w *Controller) Delete(ctx context.Context, actor policy.Actor, jobID uint64) error {
	if !policy.Allows(actor, policy.DeleteJob, policy.Resource{}) {
		return ErrForbidden
	}
	if _, err := w.loadJob(ctx, jobID); err != nil {
		return err
	}
	return w.Jobs.DeleteJob(ctx, jobID)
}

// Get returns a single job. Mechanics may only fetch jobs assigned to them.
func (w *Controller) Get(ctx context.Context, actor policy.Actor, jobID uint64) (*model.RepairJob, error) {
	job, err := w.loadJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !policy.Allows(actor, policy.ViewJobs, jobResource(job)) {
		return nil, ErrForbidden
	}
	if actor.IsMechanic() && (job.AssignedMechanicID == nil || *job.AssignedMechanicID != actor.ID) {
		return nil, ErrForbidden
	}
	return job, nil
}

// List returns jobs newest-first. Admins see every job; mechanics see only
// jobs where they are the assigned mechanic.
func (w *Controller) List(ctx context.Context, actor policy.Actor, page, perPage int) ([]*model.RepairJob, int, error) {
	if !policy.Allows(actor, policy.ViewJobs, policy.Resource{}) {
		return nil, 0, ErrForbidden
	}
	var mechanicID uint64
	if actor.IsMechanic() {
		mechanicID = actor.ID
	}
	return w.Jobs.ListJobs(ctx, mechanicID, page, perPage)
}

// ListAssigned returns the jobs where the actor is the assigned mechanic,
// newest-first. Unlike List it filters for admins too.
func (w *Controller) ListAssigned(ctx context.Context, actor policy.Actor, page, perPage int) ([]*model.RepairJob, int, error) {
	if !policy.Allows(actor, policy.ViewJobs, policy.Resource{}) {
		return nil, 0, ErrForbidden
	}
	return w.Jobs.ListJobs(ctx, actor.ID, page, perPage)
}

// AddNote appends a note to a job, recording the actor as author. Admins may
// note any job, mechanics only their own; the text must be non-empty.
func (w *Controller) AddNote(ctx context.Context, actor policy.Actor, jobID uint64, text string) (*model.JobNote, error) {
	job, err := w.loadJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !policy.Allows(actor, policy.CreateNote, jobResource(job)) {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(text) == "" {
		return nil, &ValidationError{Fields: map[string]string{"note": "required"}}
	}
	n := &model.JobNote{RepairJobID: jobID, UserID: actor.ID, Note: text}
	if err := w.Notes.CreateNote(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// ListNotes returns a job's notes newest-first, subject to the same
// visibility rule as the job itself.
func (w *Controller) ListNotes(ctx context.Context, actor policy.Actor, jobID uint64, page, perPage int) ([]*model.JobNote, int, error) {
	job, err := w.loadJob(ctx, jobID)
	if err != nil {
		return nil, 0, err
	}
	if !policy.Allows(actor, policy.ViewNotes, jobResource(job)) {
		return nil, 0, ErrForbidden
	}
	return w.Notes.ListNotes(ctx, jobID, page, perPage)
}

// DeleteNote removes a note. Allowed for admins and for the note's own
// author regardless of role.
func (w *Controller) DeleteNote(ctx context.Context, actor policy.Actor, jobID, noteID uint64) error {
	note, err := w.Notes.GetNote(ctx, jobID, noteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if !policy.Allows(actor, policy.DeleteNote, policy.Resource{NoteAuthorID: note.UserID}) {
		return ErrForbidden
	}
	return w.Notes.DeleteNote(ctx, note.ID)
}

// loadJob fetches a job and maps a missing row to ErrNotFound.
func (w *Controller) loadJob(ctx context.Context, id uint64) (*model.RepairJob, error) {
	job, err := w.Jobs.GetJob(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return job, nil
}
