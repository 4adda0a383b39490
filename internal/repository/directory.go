package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Directory answers the referential existence lookups the workflow needs
// when validating job fields. It implements workflow.Directory.
type Directory struct{ DB *sql.DB }

func NewDirectory(db *sql.DB) *Directory { return &Directory{DB: db} }

func (d *Directory) exists(ctx context.Context, query string, id uint64) (bool, error) {
	var one int
	err := d.DB.QueryRowContext(ctx, query, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *Directory) VehicleExists(ctx context.Context, id uint64) (bool, error) {
	return d.exists(ctx, "SELECT 1 FROM vehicles WHERE id=? LIMIT 1", id)
}

func (d *Directory) CustomerExists(ctx context.Context, id uint64) (bool, error) {
	return d.exists(ctx, "SELECT 1 FROM customers WHERE id=? LIMIT 1", id)
}

func (d *Directory) StatusExists(ctx context.Context, id uint64) (bool, error) {
	return d.exists(ctx, "SELECT 1 FROM job_statuses WHERE id=? LIMIT 1", id)
}

// UserRole returns the role name of the user, or "" when the user does not
// exist.
func (d *Directory) UserRole(ctx context.Context, id uint64) (string, error) {
	var name string
	err := d.DB.QueryRowContext(ctx,
		"SELECT r.name FROM users u JOIN roles r ON r.id = u.role_id WHERE u.id=? LIMIT 1",
		id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return name, nil
}
