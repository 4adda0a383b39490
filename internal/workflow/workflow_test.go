package workflow

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"testing"

	"github.com/iliyamo/workshop-job-tracker/internal/model"
	"github.com/iliyamo/workshop-job-tracker/internal/policy"
	"github.com/iliyamo/workshop-job-tracker/internal/queue"
)

// memStore is an in-memory stand-in for the repositories, implementing
// JobStore, NoteStore and Directory.
type memStore struct {
	jobs      map[uint64]*model.RepairJob
	notes     map[uint64]*model.JobNote
	nextJob   uint64
	nextNote  uint64
	vehicles  map[uint64]bool
	customers map[uint64]bool
	statuses  map[uint64]bool
	users     map[uint64]string // id -> role name
}

func newMemStore() *memStore {
	return &memStore{
		jobs:      map[uint64]*model.RepairJob{},
		notes:     map[uint64]*model.JobNote{},
		vehicles:  map[uint64]bool{1: true},
		customers: map[uint64]bool{1: true},
		statuses:  map[uint64]bool{1: true, 2: true, 3: true, 4: true},
		users:     map[uint64]string{1: "Admin", 7: "Mechanic", 9: "Mechanic", 3: "Customer"},
	}
}

func (s *memStore) GetJob(_ context.Context, id uint64) (*model.RepairJob, error) {
	j, ok := s.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *j
	return &cp, nil
}

func (s *memStore) CreateJob(_ context.Context, j *model.RepairJob) error {
	s.nextJob++
	j.ID = s.nextJob
	cp := *j
	s.jobs[j.ID] = &cp
	return nil
}

func (s *memStore) UpdateJob(_ context.Context, id uint64, p JobPatch) error {
	j, ok := s.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if p.VehicleID != nil {
		j.VehicleID = *p.VehicleID
	}
	if p.CustomerID != nil {
		j.CustomerID = *p.CustomerID
	}
	if p.AssignedMechanicID != nil {
		v := *p.AssignedMechanicID
		j.AssignedMechanicID = &v
	}
	if p.StatusID != nil {
		j.StatusID = *p.StatusID
	}
	if p.Description != nil {
		j.Description = *p.Description
	}
	if p.Priority != nil {
		j.Priority = *p.Priority
	}
	return nil
}

func (s *memStore) UpdateJobStatus(_ context.Context, id, statusID uint64) error {
	j, ok := s.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	j.StatusID = statusID
	return nil
}

func (s *memStore) DeleteJob(_ context.Context, id uint64) error {
	delete(s.jobs, id)
	for nid, n := range s.notes {
		if n.RepairJobID == id {
			delete(s.notes, nid)
		}
	}
	return nil
}

func (s *memStore) ListJobs(_ context.Context, mechanicID uint64, page, perPage int) ([]*model.RepairJob, int, error) {
	var out []*model.RepairJob
	for _, j := range s.jobs {
		if mechanicID != 0 && (j.AssignedMechanicID == nil || *j.AssignedMechanicID != mechanicID) {
			continue
		}
		cp := *j
		out = append(out, &cp)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID > out[b].ID }) // newest first
	return out, len(out), nil
}

func (s *memStore) GetNote(_ context.Context, jobID, noteID uint64) (*model.JobNote, error) {
	n, ok := s.notes[noteID]
	if !ok || n.RepairJobID != jobID {
		return nil, sql.ErrNoRows
	}
	cp := *n
	return &cp, nil
}

func (s *memStore) CreateNote(_ context.Context, n *model.JobNote) error {
	s.nextNote++
	n.ID = s.nextNote
	cp := *n
	s.notes[n.ID] = &cp
	return nil
}

func (s *memStore) DeleteNote(_ context.Context, id uint64) error {
	if _, ok := s.notes[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.notes, id)
	return nil
}

func (s *memStore) ListNotes(_ context.Context, jobID uint64, page, perPage int) ([]*model.JobNote, int, error) {
	var out []*model.JobNote
	for _, n := range s.notes {
		if n.RepairJobID == jobID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID > out[b].ID })
	return out, len(out), nil
}

func (s *memStore) VehicleExists(_ context.Context, id uint64) (bool, error) {
	return s.vehicles[id], nil
}
func (s *memStore) CustomerExists(_ context.Context, id uint64) (bool, error) {
	return s.customers[id], nil
}
func (s *memStore) StatusExists(_ context.Context, id uint64) (bool, error) {
	return s.statuses[id], nil
}
func (s *memStore) UserRole(_ context.Context, id uint64) (string, error) {
	return s.users[id], nil
}

// recordPublisher captures published events.
type recordPublisher struct{ events []queue.JobStatusChangedEvent }

func (p *recordPublisher) JobStatusChanged(_ context.Context, ev queue.JobStatusChangedEvent) error {
	p.events = append(p.events, ev)
	return nil
}

var (
	admin    = policy.Actor{ID: 1, Role: "Admin"}
	mech7    = policy.Actor{ID: 7, Role: "Mechanic"}
	mech9    = policy.Actor{ID: 9, Role: "Mechanic"}
	customer = policy.Actor{ID: 3, Role: "Customer"}
)

func u64(v uint64) *uint64 { return &v }
func str(v string) *string { return &v }

func seedJob(t *testing.T, w *Controller, mechanicID uint64) *model.RepairJob {
	t.Helper()
	j := &model.RepairJob{
		VehicleID:          1,
		CustomerID:         1,
		AssignedMechanicID: u64(mechanicID),
		StatusID:           1,
		Description:        "brake pads worn",
	}
	if err := w.Create(context.Background(), admin, j); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return j
}

func newTestController() (*Controller, *memStore, *recordPublisher) {
	s := newMemStore()
	p := &recordPublisher{}
	return NewController(s, s, s, p), s, p
}

func TestCreateValidatesReferences(t *testing.T) {
	w, s, _ := newTestController()
	ctx := context.Background()

	j := &model.RepairJob{
		VehicleID:          42, // does not exist
		CustomerID:         1,
		AssignedMechanicID: u64(7),
		StatusID:           1,
		Description:        "x",
	}
	err := w.Create(ctx, admin, j)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := verr.Fields["vehicle_id"]; !ok {
		t.Fatalf("expected vehicle_id violation, got %v", verr.Fields)
	}
	if len(s.jobs) != 0 {
		t.Fatalf("expected no insert on validation failure")
	}
}

func TestCreateAggregatesViolations(t *testing.T) {
	w, _, _ := newTestController()

	err := w.Create(context.Background(), admin, &model.RepairJob{Priority: "urgent"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, f := range []string{"vehicle_id", "customer_id", "assigned_mechanic_id", "status_id", "description", "priority"} {
		if _, ok := verr.Fields[f]; !ok {
			t.Fatalf("expected violation for %s, got %v", f, verr.Fields)
		}
	}
}

func TestCreateRejectsNonMechanicAssignee(t *testing.T) {
	w, _, _ := newTestController()

	j := &model.RepairJob{
		VehicleID:          1,
		CustomerID:         1,
		AssignedMechanicID: u64(3), // a customer
		StatusID:           1,
		Description:        "x",
	}
	err := w.Create(context.Background(), admin, j)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Fields["assigned_mechanic_id"] == "" {
		t.Fatalf("expected assigned_mechanic_id violation, got %v", verr.Fields)
	}
}

func TestCreateForbiddenForMechanic(t *testing.T) {
	w, _, _ := newTestController()
	err := w.Create(context.Background(), mech7, &model.RepairJob{})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUpdateGeneralDropsStatusForAdmin(t *testing.T) {
	w, s, _ := newTestController()
	j := seedJob(t, w, 7)

	updated, err := w.UpdateGeneral(context.Background(), admin, j.ID, JobPatch{
		StatusID:    u64(2),
		Description: str("new desc"),
	})
	if err != nil {
		t.Fatalf("UpdateGeneral: %v", err)
	}
	if updated.Description != "new desc" {
		t.Fatalf("expected description updated, got %q", updated.Description)
	}
	if updated.StatusID != 1 {
		t.Fatalf("expected status_id untouched, got %d", updated.StatusID)
	}
	if s.jobs[j.ID].StatusID != 1 {
		t.Fatalf("expected stored status_id untouched, got %d", s.jobs[j.ID].StatusID)
	}
}

func TestUpdateGeneralNotFound(t *testing.T) {
	w, _, _ := newTestController()
	if _, err := w.UpdateGeneral(context.Background(), admin, 999, JobPatch{Description: str("x")}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateGeneralValidatesForeignKeys(t *testing.T) {
	w, _, _ := newTestController()
	j := seedJob(t, w, 7)

	_, err := w.UpdateGeneral(context.Background(), admin, j.ID, JobPatch{VehicleID: u64(42)})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestUpdateStatusByAssignedMechanic(t *testing.T) {
	w, _, pub := newTestController()
	j := seedJob(t, w, 7)

	updated, err := w.UpdateStatus(context.Background(), mech7, j.ID, 4)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.StatusID != 4 {
		t.Fatalf("expected status 4, got %d", updated.StatusID)
	}
	if len(pub.events) != 1 || pub.events[0].ToStatusID != 4 || pub.events[0].FromStatusID != 1 {
		t.Fatalf("expected one status change event, got %+v", pub.events)
	}
}

func TestUpdateStatusForbiddenForOtherMechanic(t *testing.T) {
	w, s, pub := newTestController()
	j := seedJob(t, w, 7)

	_, err := w.UpdateStatus(context.Background(), mech9, j.ID, 4)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if s.jobs[j.ID].StatusID != 1 {
		t.Fatalf("expected status unchanged, got %d", s.jobs[j.ID].StatusID)
	}
	if len(pub.events) != 0 {
		t.Fatalf("expected no event on forbidden change")
	}
}

func TestUpdateStatusByAdminAnyTarget(t *testing.T) {
	w, _, _ := newTestController()
	j := seedJob(t, w, 7)

	// No ordering between statuses: Received straight to Completed and back.
	for _, target := range []uint64{4, 2, 1} {
		updated, err := w.UpdateStatus(context.Background(), admin, j.ID, target)
		if err != nil {
			t.Fatalf("UpdateStatus to %d: %v", target, err)
		}
		if updated.StatusID != target {
			t.Fatalf("expected status %d, got %d", target, updated.StatusID)
		}
	}
}

func TestUpdateStatusUnknownStatusRejected(t *testing.T) {
	w, _, _ := newTestController()
	j := seedJob(t, w, 7)

	_, err := w.UpdateStatus(context.Background(), admin, j.ID, 99)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestDeleteAdminOnly(t *testing.T) {
	w, s, _ := newTestController()
	j := seedJob(t, w, 7)

	if err := w.Delete(context.Background(), mech7, j.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for mechanic, got %v", err)
	}
	if err := w.Delete(context.Background(), admin, j.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(s.jobs) != 0 {
		t.Fatalf("expected job removed")
	}
	if err := w.Delete(context.Background(), admin, j.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestListFiltersByRole(t *testing.T) {
	w, _, _ := newTestController()
	seedJob(t, w, 7)
	seedJob(t, w, 9)
	j3 := seedJob(t, w, 7)

	all, total, err := w.List(context.Background(), admin, 1, 15)
	if err != nil {
		t.Fatalf("List admin: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Fatalf("expected admin to see 3 jobs, got %d", total)
	}
	if all[0].ID != j3.ID {
		t.Fatalf("expected newest first, got id %d", all[0].ID)
	}

	mine, total, err := w.List(context.Background(), mech7, 1, 15)
	if err != nil {
		t.Fatalf("List mechanic: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected mechanic 7 to see 2 jobs, got %d", total)
	}
	for _, j := range mine {
		if j.AssignedMechanicID == nil || *j.AssignedMechanicID != 7 {
			t.Fatalf("expected only jobs assigned to mechanic 7, got %+v", j)
		}
	}

	if _, _, err := w.List(context.Background(), customer, 1, 15); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for customer, got %v", err)
	}
}

func TestListAssignedFiltersForAdminToo(t *testing.T) {
	w, s, _ := newTestController()
	seedJob(t, w, 7)
	seedJob(t, w, 9)
	// A job assigned to the admin's own user id, inserted directly since
	// the workflow only accepts mechanics as assignees.
	adminJob := &model.RepairJob{VehicleID: 1, CustomerID: 1, AssignedMechanicID: u64(1), StatusID: 1, Description: "own job"}
	if err := s.CreateJob(context.Background(), adminJob); err != nil {
		t.Fatalf("seed admin job: %v", err)
	}

	mine, total, err := w.ListAssigned(context.Background(), admin, 1, 15)
	if err != nil {
		t.Fatalf("ListAssigned admin: %v", err)
	}
	if total != 1 || len(mine) != 1 {
		t.Fatalf("expected admin to see 1 assigned job, got %d", total)
	}
	if mine[0].AssignedMechanicID == nil || *mine[0].AssignedMechanicID != 1 {
		t.Fatalf("expected job assigned to user 1, got %+v", mine[0])
	}

	if _, _, err := w.ListAssigned(context.Background(), customer, 1, 15); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for customer, got %v", err)
	}
}

func TestGetScopedForMechanic(t *testing.T) {
	w, _, _ := newTestController()
	j := seedJob(t, w, 7)

	if _, err := w.Get(context.Background(), mech7, j.ID); err != nil {
		t.Fatalf("Get by assigned mechanic: %v", err)
	}
	if _, err := w.Get(context.Background(), mech9, j.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for other mechanic, got %v", err)
	}
	if _, err := w.Get(context.Background(), admin, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNotesLifecycle(t *testing.T) {
	w, _, _ := newTestController()
	j := seedJob(t, w, 7)
	ctx := context.Background()

	note, err := w.AddNote(ctx, mech7, j.ID, "ordered new pads")
	if err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	if note.UserID != 7 {
		t.Fatalf("expected author captured from actor, got %d", note.UserID)
	}

	// Empty text rejected.
	if _, err := w.AddNote(ctx, mech7, j.ID, "  "); err == nil {
		t.Fatalf("expected validation error for empty note")
	}

	// Unassigned mechanic may neither add nor view.
	if _, err := w.AddNote(ctx, mech9, j.ID, "hi"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden adding note, got %v", err)
	}
	if _, _, err := w.ListNotes(ctx, mech9, j.ID, 1, 20); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden listing notes, got %v", err)
	}

	notes, total, err := w.ListNotes(ctx, admin, j.ID, 1, 20)
	if err != nil || total != 1 || len(notes) != 1 {
		t.Fatalf("expected 1 note, got total=%d err=%v", total, err)
	}

	// Neither author nor admin: forbidden. Then admin deletes.
	if err := w.DeleteNote(ctx, mech9, j.ID, note.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-author, got %v", err)
	}
	if err := w.DeleteNote(ctx, admin, j.ID, note.ID); err != nil {
		t.Fatalf("DeleteNote by admin: %v", err)
	}
	if err := w.DeleteNote(ctx, admin, j.ID, note.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for deleted note, got %v", err)
	}
}

func TestDeleteNoteByAuthor(t *testing.T) {
	w, _, _ := newTestController()
	j := seedJob(t, w, 7)
	ctx := context.Background()

	note, err := w.AddNote(ctx, mech7, j.ID, "self note")
	if err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	if err := w.DeleteNote(ctx, mech7, j.ID, note.ID); err != nil {
		t.Fatalf("expected author delete to succeed, got %v", err)
	}
}

func TestDeleteNoteWrongJobIsNotFound(t *testing.T) {
	w, _, _ := newTestController()
	j1 := seedJob(t, w, 7)
	j2 := seedJob(t, w, 7)
	ctx := context.Background()

	note, err := w.AddNote(ctx, mech7, j1.ID, "on job 1")
	if err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	if err := w.DeleteNote(ctx, admin, j2.ID, note.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for note under wrong job, got %v", err)
	}
}
