package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/workshop-job-tracker/internal/model"
)

// JobNoteRepo provides persistence for the `job_notes` table and implements
// workflow.NoteStore. Reads join the author row.
type JobNoteRepo struct{ DB *sql.DB }

func NewJobNoteRepo(db *sql.DB) *JobNoteRepo { return &JobNoteRepo{DB: db} }

const noteCols = `n.id, n.repair_job_id, n.user_id, n.note, n.created_at,
	u.name, u.username, u.email, u.role_id`

func scanNote(row interface{ Scan(...any) error }) (*model.JobNote, error) {
	var (
		n      model.JobNote
		author model.User
	)
	if err := row.Scan(&n.ID, &n.RepairJobID, &n.UserID, &n.Note, &n.CreatedAt,
		&author.Name, &author.Username, &author.Email, &author.RoleID); err != nil {
		return nil, err
	}
	author.ID = n.UserID
	n.Author = &author
	return &n, nil
}

// GetNote fetches a note scoped by job, so a note id belonging to a
// different job reads as missing.
func (r *JobNoteRepo) GetNote(ctx context.Context, jobID, noteID uint64) (*model.JobNote, error) {
	return scanNote(r.DB.QueryRowContext(ctx,
		"SELECT "+noteCols+" FROM job_notes n JOIN users u ON u.id = n.user_id"+
			" WHERE n.id=? AND n.repair_job_id=? LIMIT 1", noteID, jobID))
}

// CreateNote inserts a note and reloads it with the author populated.
func (r *JobNoteRepo) CreateNote(ctx context.Context, n *model.JobNote) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO job_notes (repair_job_id, user_id, note) VALUES (?,?,?)",
		n.RepairJobID, n.UserID, n.Note)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	got, err := r.GetNote(ctx, n.RepairJobID, uint64(id))
	if err != nil {
		return err
	}
	*n = *got
	return nil
}

// DeleteNote removes a note by id, sql.ErrNoRows when absent.
func (r *JobNoteRepo) DeleteNote(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM job_notes WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListNotes returns a job's notes newest-first with the total count.
func (r *JobNoteRepo) ListNotes(ctx context.Context, jobID uint64, page, perPage int) ([]*model.JobNote, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM job_notes WHERE repair_job_id=?", jobID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+noteCols+" FROM job_notes n JOIN users u ON u.id = n.user_id"+
			" WHERE n.repair_job_id=? ORDER BY n.created_at DESC, n.id DESC LIMIT ? OFFSET ?",
		jobID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*model.JobNote
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}
