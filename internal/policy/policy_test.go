package policy

import "testing"

func mech(id uint64) *uint64 { return &id }

func TestAdminAllowedEverything(t *testing.T) {
	admin := Actor{ID: 1, Role: "Admin"}
	actions := []Action{
		ViewJobs, CreateJob, UpdateJob, ChangeJobStatus, DeleteJob,
		ManageUsers, ManageCustomers, ManageVehicles, ManageJobStatuses,
		CreateNote, ViewNotes, DeleteNote,
	}
	for _, a := range actions {
		if !Allows(admin, a, Resource{}) {
			t.Fatalf("expected admin allowed for action %d", a)
		}
	}
}

func TestRoleNameCaseInsensitive(t *testing.T) {
	if !Allows(Actor{ID: 1, Role: "ADMIN"}, ManageUsers, Resource{}) {
		t.Fatalf("expected ADMIN treated as Admin")
	}
	if !Allows(Actor{ID: 7, Role: "mechanic"}, ChangeJobStatus, Resource{AssignedMechanicID: mech(7)}) {
		t.Fatalf("expected mechanic (lowercase) allowed on own job")
	}
}

func TestMechanicScopedToAssignedJobs(t *testing.T) {
	m := Actor{ID: 7, Role: "Mechanic"}

	if !Allows(m, ViewJobs, Resource{}) {
		t.Fatalf("expected mechanic allowed to view jobs")
	}
	if !Allows(m, ChangeJobStatus, Resource{AssignedMechanicID: mech(7)}) {
		t.Fatalf("expected assigned mechanic allowed to change status")
	}
	if Allows(m, ChangeJobStatus, Resource{AssignedMechanicID: mech(9)}) {
		t.Fatalf("expected unassigned mechanic denied status change")
	}
	if Allows(m, ChangeJobStatus, Resource{}) {
		t.Fatalf("expected mechanic denied status change on unassigned job")
	}
	if !Allows(m, CreateNote, Resource{AssignedMechanicID: mech(7)}) {
		t.Fatalf("expected assigned mechanic allowed to add note")
	}
	if Allows(m, ViewNotes, Resource{AssignedMechanicID: mech(9)}) {
		t.Fatalf("expected mechanic denied notes of another mechanic's job")
	}

	// Management actions stay admin-only.
	for _, a := range []Action{CreateJob, UpdateJob, DeleteJob, ManageUsers, ManageCustomers, ManageVehicles, ManageJobStatuses} {
		if Allows(m, a, Resource{AssignedMechanicID: mech(7)}) {
			t.Fatalf("expected mechanic denied management action %d", a)
		}
	}
}

func TestDeleteNoteAdminOrAuthor(t *testing.T) {
	res := Resource{NoteAuthorID: 7}

	if !Allows(Actor{ID: 1, Role: "Admin"}, DeleteNote, res) {
		t.Fatalf("expected admin allowed to delete any note")
	}
	if !Allows(Actor{ID: 7, Role: "Mechanic"}, DeleteNote, res) {
		t.Fatalf("expected author allowed to delete own note")
	}
	// Author exception holds regardless of role.
	if !Allows(Actor{ID: 7, Role: "Customer"}, DeleteNote, res) {
		t.Fatalf("expected author allowed to delete own note regardless of role")
	}
	if Allows(Actor{ID: 9, Role: "Mechanic"}, DeleteNote, res) {
		t.Fatalf("expected non-author mechanic denied")
	}
}

func TestNonStaffAndUnauthenticatedDenied(t *testing.T) {
	cust := Actor{ID: 3, Role: "Customer"}
	for _, a := range []Action{ViewJobs, CreateJob, ChangeJobStatus, CreateNote, ViewNotes, ManageUsers} {
		if Allows(cust, a, Resource{AssignedMechanicID: mech(3)}) {
			t.Fatalf("expected customer denied action %d", a)
		}
	}

	var nobody Actor // zero actor = unauthenticated
	for _, a := range []Action{ViewJobs, ChangeJobStatus, DeleteNote, ManageUsers} {
		if Allows(nobody, a, Resource{}) {
			t.Fatalf("expected unauthenticated actor denied action %d", a)
		}
	}
}
