package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/workshop-job-tracker/internal/model"
	"github.com/iliyamo/workshop-job-tracker/internal/workflow"
)

// RepairJobRepo provides persistence for the `repair_jobs` table and
// implements workflow.JobStore. Reads join the vehicle, customer, status and
// mechanic rows so responses can embed them in one round trip.
type RepairJobRepo struct{ DB *sql.DB }

func NewRepairJobRepo(db *sql.DB) *RepairJobRepo { return &RepairJobRepo{DB: db} }

const jobSelect = `SELECT j.id, j.vehicle_id, j.customer_id, j.assigned_mechanic_id, j.status_id,
	j.description, j.estimated_duration_hours, j.priority,
	j.received_at, j.started_at, j.completed_at, j.created_at, j.updated_at,
	v.make, v.model, v.registration, v.year,
	c.name, c.email, c.phone, c.address,
	s.name, s.description,
	m.name, m.username, m.email, m.role_id
	FROM repair_jobs j
	JOIN vehicles v ON v.id = j.vehicle_id
	JOIN customers c ON c.id = j.customer_id
	JOIN job_statuses s ON s.id = j.status_id
	LEFT JOIN users m ON m.id = j.assigned_mechanic_id`

func scanJob(row interface{ Scan(...any) error }) (*model.RepairJob, error) {
	var (
		j          model.RepairJob
		mechanicID sql.NullInt64
		estimated  sql.NullInt64
		priority   sql.NullString
		received   sql.NullTime
		started    sql.NullTime
		completed  sql.NullTime
		veh        model.Vehicle
		vehYear    sql.NullInt64
		cust       model.Customer
		status     model.JobStatus
		mName      sql.NullString
		mUsername  sql.NullString
		mEmail     sql.NullString
		mRoleID    sql.NullInt64
	)
	if err := row.Scan(&j.ID, &j.VehicleID, &j.CustomerID, &mechanicID, &j.StatusID,
		&j.Description, &estimated, &priority,
		&received, &started, &completed, &j.CreatedAt, &j.UpdatedAt,
		&veh.Make, &veh.Model, &veh.Registration, &vehYear,
		&cust.Name, &cust.Email, &cust.Phone, &cust.Address,
		&status.Name, &status.Description,
		&mName, &mUsername, &mEmail, &mRoleID); err != nil {
		return nil, err
	}
	if mechanicID.Valid {
		id := uint64(mechanicID.Int64)
		j.AssignedMechanicID = &id
		j.Mechanic = &model.User{
			ID:       id,
			Name:     mName.String,
			Username: mUsername.String,
			Email:    mEmail.String,
			RoleID:   uint64(mRoleID.Int64),
		}
	}
	if estimated.Valid {
		n := int(estimated.Int64)
		j.EstimatedDurationHours = &n
	}
	j.Priority = priority.String
	if received.Valid {
		t := received.Time
		j.ReceivedAt = &t
	}
	if started.Valid {
		t := started.Time
		j.StartedAt = &t
	}
	if completed.Valid {
		t := completed.Time
		j.CompletedAt = &t
	}
	veh.ID = j.VehicleID
	veh.CustomerID = j.CustomerID
	if vehYear.Valid {
		y := int(vehYear.Int64)
		veh.Year = &y
	}
	cust.ID = j.CustomerID
	status.ID = j.StatusID
	j.Vehicle = &veh
	j.Customer = &cust
	j.Status = &status
	return &j, nil
}

// GetJob fetches a job with its relations, sql.ErrNoRows when absent.
func (r *RepairJobRepo) GetJob(ctx context.Context, id uint64) (*model.RepairJob, error) {
	return scanJob(r.DB.QueryRowContext(ctx, jobSelect+" WHERE j.id=? LIMIT 1", id))
}

// CreateJob inserts a job and reloads it with relations populated.
func (r *RepairJobRepo) CreateJob(ctx context.Context, j *model.RepairJob) error {
	var priority any
	if j.Priority != "" {
		priority = j.Priority
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO repair_jobs (vehicle_id, customer_id, assigned_mechanic_id, status_id,
		 description, estimated_duration_hours, priority, received_at, started_at, completed_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		j.VehicleID, j.CustomerID, j.AssignedMechanicID, j.StatusID,
		j.Description, j.EstimatedDurationHours, priority, j.ReceivedAt, j.StartedAt, j.CompletedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	got, err := r.GetJob(ctx, uint64(id))
	if err != nil {
		return err
	}
	*j = *got
	return nil
}

// UpdateJob applies a partial update; nil fields are left unchanged. The
// workflow has already validated the patch and dropped status_id where the
// rules require it.
func (r *RepairJobRepo) UpdateJob(ctx context.Context, id uint64, p workflow.JobPatch) error {
	set := []string{}
	args := []any{}
	if p.VehicleID != nil {
		set = append(set, "vehicle_id=?")
		args = append(args, *p.VehicleID)
	}
	if p.CustomerID != nil {
		set = append(set, "customer_id=?")
		args = append(args, *p.CustomerID)
	}
	if p.AssignedMechanicID != nil {
		set = append(set, "assigned_mechanic_id=?")
		args = append(args, *p.AssignedMechanicID)
	}
	if p.StatusID != nil {
		set = append(set, "status_id=?")
		args = append(args, *p.StatusID)
	}
	if p.Description != nil {
		set = append(set, "description=?")
		args = append(args, *p.Description)
	}
	if p.EstimatedDurationHours != nil {
		set = append(set, "estimated_duration_hours=?")
		args = append(args, *p.EstimatedDurationHours)
	}
	if p.Priority != nil {
		set = append(set, "priority=?")
		args = append(args, *p.Priority)
	}
	if p.ReceivedAt != nil {
		set = append(set, "received_at=?")
		args = append(args, *p.ReceivedAt)
	}
	if p.StartedAt != nil {
		set = append(set, "started_at=?")
		args = append(args, *p.StartedAt)
	}
	if p.CompletedAt != nil {
		set = append(set, "completed_at=?")
		args = append(args, *p.CompletedAt)
	}
	if len(set) == 0 {
		return nil
	}
	set = append(set, "updated_at=CURRENT_TIMESTAMP")
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE repair_jobs SET "+strings.Join(set, ", ")+" WHERE id=?", args...)
	return err
}

// UpdateJobStatus sets status_id. Last write wins; there is no version
// check on concurrent updates.
func (r *RepairJobRepo) UpdateJobStatus(ctx context.Context, id, statusID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE repair_jobs SET status_id=?, updated_at=CURRENT_TIMESTAMP WHERE id=?",
		statusID, id)
	return err
}

// DeleteJob removes a job and its notes in one transaction.
func (r *RepairJobRepo) DeleteJob(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()
	if _, err = tx.ExecContext(ctx, "DELETE FROM job_notes WHERE repair_job_id=?", id); err != nil {
		return err
	}
	var res sql.Result
	if res, err = tx.ExecContext(ctx, "DELETE FROM repair_jobs WHERE id=?", id); err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = sql.ErrNoRows
		return err
	}
	return nil
}

// ListJobs returns jobs newest-first with the total count. mechanicID == 0
// means all jobs; otherwise only jobs assigned to that mechanic.
func (r *RepairJobRepo) ListJobs(ctx context.Context, mechanicID uint64, page, perPage int) ([]*model.RepairJob, int, error) {
	where := ""
	args := []any{}
	if mechanicID != 0 {
		where = " WHERE j.assigned_mechanic_id=?"
		args = append(args, mechanicID)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM repair_jobs j"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, perPage, (page-1)*perPage)
	rows, err := r.DB.QueryContext(ctx,
		jobSelect+where+" ORDER BY j.created_at DESC, j.id DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*model.RepairJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, j)
	}
	return out, total, rows.Err()
}
