package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/workshop-job-tracker/internal/model"
	"github.com/iliyamo/workshop-job-tracker/internal/utils"
)

// UserRepo provides persistence for the `users` table. Every read joins the
// role row so callers always see the resolved role name.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `u.id, u.name, u.username, u.email, u.password_hash, u.role_id,
	u.created_at, u.updated_at, r.name, r.description`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var (
		u    model.User
		role model.Role
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.PasswordHash,
		&u.RoleID, &u.CreatedAt, &u.UpdatedAt, &role.Name, &role.Description); err != nil {
		return nil, err
	}
	role.ID = u.RoleID
	u.Role = &role
	return &u, nil
}

// Create inserts a user, hashing the password with the given bcrypt cost,
// and returns the stored row. Duplicate email/username map to the named
// conflict sentinels.
func (r *UserRepo) Create(ctx context.Context, name, username, email, password string, roleID uint64, cost int) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return nil, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, username, email, password_hash, role_id) VALUES (?,?,?,?,?)",
		name, username, email, hash, roleID)
	if err != nil {
		return nil, dupUserErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, uint64(id))
}

// dupUserErr maps MySQL 1062 on the users table to a field-specific sentinel.
func dupUserErr(err error) error {
	if !isDuplicate(err) {
		return err
	}
	if strings.Contains(err.Error(), "username") {
		return ErrUsernameExists
	}
	return ErrEmailExists
}

// GetByID fetches a user with its role, returning sql.ErrNoRows when absent.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users u JOIN roles r ON r.id = u.role_id WHERE u.id=? LIMIT 1", id))
}

// GetByLogin fetches a user by email when login looks like an email address,
// otherwise by username. This mirrors the single login field of the API.
func (r *UserRepo) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	login = strings.TrimSpace(login)
	field := "u.username"
	if strings.Contains(login, "@") {
		field = "u.email"
		login = strings.ToLower(login)
	}
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users u JOIN roles r ON r.id = u.role_id WHERE "+field+"=? LIMIT 1", login))
}

// List returns users newest-first, optionally filtered by role name, with
// the total row count for pagination.
func (r *UserRepo) List(ctx context.Context, roleName string, page, perPage int) ([]*model.User, int, error) {
	where := ""
	args := []any{}
	if roleName != "" {
		where = " WHERE LOWER(r.name)=LOWER(?)"
		args = append(args, roleName)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users u JOIN roles r ON r.id = u.role_id"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := "SELECT " + userCols + " FROM users u JOIN roles r ON r.id = u.role_id" + where +
		" ORDER BY u.created_at DESC, u.id DESC LIMIT ? OFFSET ?"
	args = append(args, perPage, (page-1)*perPage)
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

// UserPatch carries the optional fields of a user update. An empty Password
// means "leave the password unchanged".
type UserPatch struct {
	Name     *string
	Username *string
	Email    *string
	Password *string
	RoleID   *uint64
}

// Update applies a partial update and returns the fresh row. It returns
// sql.ErrNoRows when the user does not exist.
func (r *UserRepo) Update(ctx context.Context, id uint64, p UserPatch, cost int) (*model.User, error) {
	set := []string{}
	args := []any{}
	if p.Name != nil {
		set = append(set, "name=?")
		args = append(args, *p.Name)
	}
	if p.Username != nil {
		set = append(set, "username=?")
		args = append(args, strings.TrimSpace(*p.Username))
	}
	if p.Email != nil {
		set = append(set, "email=?")
		args = append(args, strings.ToLower(strings.TrimSpace(*p.Email)))
	}
	if p.Password != nil && *p.Password != "" {
		hash, err := utils.HashPassword(*p.Password, cost)
		if err != nil {
			return nil, err
		}
		set = append(set, "password_hash=?")
		args = append(args, hash)
	}
	if p.RoleID != nil {
		set = append(set, "role_id=?")
		args = append(args, *p.RoleID)
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}
	set = append(set, "updated_at=CURRENT_TIMESTAMP")
	args = append(args, id)

	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(set, ", ")+" WHERE id=?", args...)
	if err != nil {
		return nil, dupUserErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Could also be a no-op update of identical values; confirm existence.
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

// Delete removes a user. sql.ErrNoRows when absent; ErrConflict when repair
// jobs or notes still reference the user.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
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
