package database

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/iliyamo/workshop-job-tracker/internal/utils"
)

// Seed inserts the reference data the application assumes: the three roles
// and the job status set, including the "Pending" default the dashboard
// falls back to for jobs that never got a status. Every insert is
// first-or-create so repeated startups are harmless. When demo is true a
// demo admin and three mechanics are created as well (password "password").
func Seed(ctx context.Context, db *sql.DB, bcryptCost int, demo bool) error {
	roles := []struct{ name, desc string }{
		{"Admin", "Garage manager"},
		{"Mechanic", "Mechanic user"},
		{"Customer", "Customer user"},
	}
	for _, r := range roles {
		if err := ensureRow(ctx, db,
			"SELECT id FROM roles WHERE name=?",
			"INSERT INTO roles (name, description) VALUES (?,?)",
			r.name, r.name, r.desc); err != nil {
			return err
		}
	}

	statuses := []string{"Received", "In Progress", "Awaiting Parts", "Completed", "Pending"}
	for _, name := range statuses {
		if err := ensureRow(ctx, db,
			"SELECT id FROM job_statuses WHERE name=?",
			"INSERT INTO job_statuses (name) VALUES (?)",
			name, name); err != nil {
			return err
		}
	}

	if !demo {
		return nil
	}

	var adminRole, mechanicRole uint64
	if err := db.QueryRowContext(ctx, "SELECT id FROM roles WHERE name='Admin'").Scan(&adminRole); err != nil {
		return err
	}
	if err := db.QueryRowContext(ctx, "SELECT id FROM roles WHERE name='Mechanic'").Scan(&mechanicRole); err != nil {
		return err
	}

	accounts := []struct {
		name, username, email string
		roleID                uint64
	}{
		{"Admin", "admin", "admin@example.com", adminRole},
		{"John Doe", "john_mechanic", "john.mechanic@example.com", mechanicRole},
		{"Sarah Smith", "sarah_mechanic", "sarah.mechanic@example.com", mechanicRole},
		{"Alex Brown", "alex_mechanic", "alex.mechanic@example.com", mechanicRole},
	}
	for _, a := range accounts {
		exists, err := rowExists(ctx, db,
			"SELECT id FROM users WHERE email=? OR username=?", a.email, a.username)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		hash, err := utils.HashPassword("password", bcryptCost)
		if err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx,
			"INSERT INTO users (name, username, email, password_hash, role_id) VALUES (?,?,?,?,?)",
			a.name, a.username, a.email, hash, a.roleID); err != nil {
			return err
		}
		log.Printf("seed: created account %s (%s)", a.username, a.email)
	}
	return nil
}

// ensureRow inserts only when the lookup finds nothing.
func ensureRow(ctx context.Context, db *sql.DB, lookup, insert string, lookupArg string, insertArgs ...any) error {
	exists, err := rowExists(ctx, db, lookup, lookupArg)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = db.ExecContext(ctx, insert, insertArgs...)
	return err
}

func rowExists(ctx context.Context, db *sql.DB, query string, args ...any) (bool, error) {
	var id uint64
	err := db.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
