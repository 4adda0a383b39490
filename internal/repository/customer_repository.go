package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/workshop-job-tracker/internal/model"
)

// CustomerRepo provides persistence for the `customers` table.
type CustomerRepo struct{ DB *sql.DB }

func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{DB: db} }

const customerCols = "id, name, email, phone, address, created_at, updated_at"

func scanCustomer(row interface{ Scan(...any) error }) (*model.Customer, error) {
	var c model.Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a customer and populates its generated fields.
func (r *CustomerRepo) Create(ctx context.Context, c *model.Customer) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO customers (name, email, phone, address) VALUES (?,?,?,?)",
		c.Name, c.Email, c.Phone, c.Address)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	got, err := r.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	*c = *got
	return nil
}

// GetByID fetches a customer, returning sql.ErrNoRows when absent.
func (r *CustomerRepo) GetByID(ctx context.Context, id uint64) (*model.Customer, error) {
	return scanCustomer(r.DB.QueryRowContext(ctx,
		"SELECT "+customerCols+" FROM customers WHERE id=? LIMIT 1", id))
}

// List returns customers newest-first with the total count.
func (r *CustomerRepo) List(ctx context.Context, page, perPage int) ([]*model.Customer, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers").Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+customerCols+" FROM customers ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*model.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// CustomerPatch carries optional fields of a customer update.
type CustomerPatch struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
}

// Update applies a partial update and returns the fresh row.
func (r *CustomerRepo) Update(ctx context.Context, id uint64, p CustomerPatch) (*model.Customer, error) {
	set := []string{}
	args := []any{}
	if p.Name != nil {
		set = append(set, "name=?")
		args = append(args, *p.Name)
	}
	if p.Email != nil {
		set = append(set, "email=?")
		args = append(args, *p.Email)
	}
	if p.Phone != nil {
		set = append(set, "phone=?")
		args = append(args, *p.Phone)
	}
	if p.Address != nil {
		set = append(set, "address=?")
		args = append(args, *p.Address)
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}
	set = append(set, "updated_at=CURRENT_TIMESTAMP")
	args = append(args, id)
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE customers SET "+strings.Join(set, ", ")+" WHERE id=?", args...); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a customer and their vehicles (schema cascade). Deletion is
// refused with ErrConflict while repair jobs still reference the customer.
func (r *CustomerRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM customers WHERE id=?", id)
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
