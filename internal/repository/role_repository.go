package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/workshop-job-tracker/internal/model"
)

// RoleRepo reads the `roles` reference table. Roles are seeded at startup
// and never mutated through the API.
type RoleRepo struct{ DB *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{DB: db} }

// GetByID fetches a role by id.
func (r *RoleRepo) GetByID(ctx context.Context, id uint64) (*model.Role, error) {
	var role model.Role
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, description FROM roles WHERE id=? LIMIT 1",
		id).Scan(&role.ID, &role.Name, &role.Description)
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// GetByName fetches a role by its (case-insensitive) unique name.
func (r *RoleRepo) GetByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, description FROM roles WHERE LOWER(name)=LOWER(?) LIMIT 1",
		name).Scan(&role.ID, &role.Name, &role.Description)
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// List returns all roles ordered by id.
func (r *RoleRepo) List(ctx context.Context) ([]*model.Role, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id, name, description FROM roles ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Role
	for rows.Next() {
		role := new(model.Role)
		if err := rows.Scan(&role.ID, &role.Name, &role.Description); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}
