package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/workshop-job-tracker/internal/model"
)

// JobStatusRepo manages the `job_statuses` reference table. The status set
// is live data: admins may add, rename or remove statuses and the workflow
// treats whatever exists as the legal target set.
type JobStatusRepo struct{ DB *sql.DB }

func NewJobStatusRepo(db *sql.DB) *JobStatusRepo { return &JobStatusRepo{DB: db} }

// Insertion order matches the seeded workflow sequence (Received through
// Pending), so id order presents statuses the way work actually flows.
const jobStatusListQuery = "SELECT id, name, description FROM job_statuses ORDER BY id"

// List returns every status in insertion order.
func (r *JobStatusRepo) List(ctx context.Context) ([]*model.JobStatus, error) {
	rows, err := r.DB.QueryContext(ctx, jobStatusListQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.JobStatus
	for rows.Next() {
		s := new(model.JobStatus)
		if err := rows.Scan(&s.ID, &s.Name, &s.Description); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetByID fetches one status, sql.ErrNoRows when absent.
func (r *JobStatusRepo) GetByID(ctx context.Context, id uint64) (*model.JobStatus, error) {
	var s model.JobStatus
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, description FROM job_statuses WHERE id=? LIMIT 1",
		id).Scan(&s.ID, &s.Name, &s.Description)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a status. Duplicate names map to ErrStatusNameExists.
func (r *JobStatusRepo) Create(ctx context.Context, s *model.JobStatus) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO job_statuses (name, description) VALUES (?,?)",
		s.Name, s.Description)
	if err != nil {
		if isDuplicate(err) {
			return ErrStatusNameExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// StatusPatch carries optional fields of a status update.
type StatusPatch struct {
	Name        *string
	Description *string
}

// Update applies a partial update and returns the fresh row.
func (r *JobStatusRepo) Update(ctx context.Context, id uint64, p StatusPatch) (*model.JobStatus, error) {
	set := []string{}
	args := []any{}
	if p.Name != nil {
		set = append(set, "name=?")
		args = append(args, *p.Name)
	}
	if p.Description != nil {
		set = append(set, "description=?")
		args = append(args, *p.Description)
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}
	args = append(args, id)
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE job_statuses SET "+strings.Join(set, ", ")+" WHERE id=?", args...); err != nil {
		if isDuplicate(err) {
			return nil, ErrStatusNameExists
		}
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a status. ErrConflict while repair jobs still use it.
func (r *JobStatusRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM job_statuses WHERE id=?", id)
	if err != nil {
		if isRestricted(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
