package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/workshop-job-tracker/internal/model"
)

// VehicleRepo provides persistence for the `vehicles` table. Reads join the
// owning customer so API responses can embed it.
type VehicleRepo struct{ DB *sql.DB }

func NewVehicleRepo(db *sql.DB) *VehicleRepo { return &VehicleRepo{DB: db} }

const vehicleCols = `v.id, v.customer_id, v.make, v.model, v.registration, v.year,
	v.created_at, v.updated_at, c.name, c.email, c.phone, c.address`

func scanVehicle(row interface{ Scan(...any) error }) (*model.Vehicle, error) {
	var (
		v    model.Vehicle
		year sql.NullInt64
		cust model.Customer
	)
	if err := row.Scan(&v.ID, &v.CustomerID, &v.Make, &v.Model, &v.Registration, &year,
		&v.CreatedAt, &v.UpdatedAt, &cust.Name, &cust.Email, &cust.Phone, &cust.Address); err != nil {
		return nil, err
	}
	if year.Valid {
		y := int(year.Int64)
		v.Year = &y
	}
	cust.ID = v.CustomerID
	v.Customer = &cust
	return &v, nil
}

// Create inserts a vehicle. A duplicate registration maps to
// ErrRegistrationExists.
func (r *VehicleRepo) Create(ctx context.Context, v *model.Vehicle) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO vehicles (customer_id, make, model, registration, year) VALUES (?,?,?,?,?)",
		v.CustomerID, v.Make, v.Model, v.Registration, v.Year)
	if err != nil {
		if isDuplicate(err) {
			return ErrRegistrationExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	got, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*v = *got
	return nil
}

// GetByID fetches a vehicle with its customer, sql.ErrNoRows when absent.
func (r *VehicleRepo) GetByID(ctx context.Context, id uint64) (*model.Vehicle, error) {
	return scanVehicle(r.DB.QueryRowContext(ctx,
		"SELECT "+vehicleCols+" FROM vehicles v JOIN customers c ON c.id = v.customer_id WHERE v.id=? LIMIT 1", id))
}

// List returns vehicles newest-first with the total count.
func (r *VehicleRepo) List(ctx context.Context, page, perPage int) ([]*model.Vehicle, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM vehicles").Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+vehicleCols+" FROM vehicles v JOIN customers c ON c.id = v.customer_id"+
			" ORDER BY v.created_at DESC, v.id DESC LIMIT ? OFFSET ?",
		perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*model.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, total, rows.Err()
}

// VehiclePatch carries optional fields of a vehicle update.
type VehiclePatch struct {
	CustomerID   *uint64
	Make         *string
	Model        *string
	Registration *string
	Year         *int
}

// Update applies a partial update and returns the fresh row.
func (r *VehicleRepo) Update(ctx context.Context, id uint64, p VehiclePatch) (*model.Vehicle, error) {
	set := []string{}
	args := []any{}
	if p.CustomerID != nil {
		set = append(set, "customer_id=?")
		args = append(args, *p.CustomerID)
	}
	if p.Make != nil {
		set = append(set, "make=?")
		args = append(args, *p.Make)
	}
	if p.Model != nil {
		set = append(set, "model=?")
		args = append(args, *p.Model)
	}
	if p.Registration != nil {
		set = append(set, "registration=?")
		args = append(args, *p.Registration)
	}
	if p.Year != nil {
		set = append(set, "year=?")
		args = append(args, *p.Year)
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}
	set = append(set, "updated_at=CURRENT_TIMESTAMP")
	args = append(args, id)
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE vehicles SET "+strings.Join(set, ", ")+" WHERE id=?", args...); err != nil {
		if isDuplicate(err) {
			return nil, ErrRegistrationExists
		}
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a vehicle. ErrConflict while repair jobs reference it.
func (r *VehicleRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM vehicles WHERE id=?", id)
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
