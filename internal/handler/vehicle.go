package handler

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/workshop-job-tracker/internal/model"
	"github.com/iliyamo/workshop-job-tracker/internal/repository"
)

// VehicleHandler implements the admin-only vehicle CRUD endpoints.
type VehicleHandler struct {
	Vehicles  *repository.VehicleRepo
	Customers *repository.CustomerRepo
}

func NewVehicleHandler(vehicles *repository.VehicleRepo, customers *repository.CustomerRepo) *VehicleHandler {
	if vehicles == nil || customers == nil {
		panic("nil repository passed to NewVehicleHandler")
	}
	return &VehicleHandler{Vehicles: vehicles, Customers: customers}
}

type vehicleReq struct {
	CustomerID   uint64 `json:"customer_id"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Registration string `json:"registration"`
	Year         *int   `json:"year"`
}

func validYear(y int) bool {
	return y >= 1900 && y <= time.Now().Year()+1
}

// List handles GET /v1/vehicles.
func (h *VehicleHandler) List(c echo.Context) error {
	page := pageParam(c)
	vehicles, total, err := h.Vehicles.List(c.Request().Context(), page, entityPageSize)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, listResponse(vehicles, total, page, entityPageSize))
}

// Create handles POST /v1/vehicles.
func (h *VehicleHandler) Create(c echo.Context) error {
	var req vehicleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	errs := map[string]string{}
	if strings.TrimSpace(req.Make) == "" {
		errs["make"] = "required"
	}
	if strings.TrimSpace(req.Model) == "" {
		errs["model"] = "required"
	}
	if strings.TrimSpace(req.Registration) == "" {
		errs["registration"] = "required"
	}
	if req.Year != nil && !validYear(*req.Year) {
		errs["year"] = "must be a plausible model year"
	}
	if req.CustomerID == 0 {
		errs["customer_id"] = "required"
	} else if _, err := h.Customers.GetByID(c.Request().Context(), req.CustomerID); err != nil {
		if err == sql.ErrNoRows {
			errs["customer_id"] = "customer does not exist"
		} else {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
	}
	if len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}

	v := &model.Vehicle{
		CustomerID:   req.CustomerID,
		Make:         strings.TrimSpace(req.Make),
		Model:        strings.TrimSpace(req.Model),
		Registration: strings.TrimSpace(req.Registration),
		Year:         req.Year,
	}
	if err := h.Vehicles.Create(c.Request().Context(), v); err != nil {
		if err == repository.ErrRegistrationExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "registration already exists", "field": "registration"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create vehicle"})
	}
	return c.JSON(http.StatusCreated, v)
}

// Show handles GET /v1/vehicles/:id.
func (h *VehicleHandler) Show(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	v, err := h.Vehicles.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, v)
}

type vehicleUpdateReq struct {
	CustomerID   *uint64 `json:"customer_id"`
	Make         *string `json:"make"`
	Model        *string `json:"model"`
	Registration *string `json:"registration"`
	Year         *int    `json:"year"`
}

// Update handles PUT /v1/vehicles/:id with partial fields.
func (h *VehicleHandler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req vehicleUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	errs := map[string]string{}
	if req.Make != nil && strings.TrimSpace(*req.Make) == "" {
		errs["make"] = "must not be empty"
	}
	if req.Model != nil && strings.TrimSpace(*req.Model) == "" {
		errs["model"] = "must not be empty"
	}
	if req.Registration != nil && strings.TrimSpace(*req.Registration) == "" {
		errs["registration"] = "must not be empty"
	}
	if req.Year != nil && !validYear(*req.Year) {
		errs["year"] = "must be a plausible model year"
	}
	if req.CustomerID != nil {
		if _, err := h.Customers.GetByID(c.Request().Context(), *req.CustomerID); err != nil {
			if err == sql.ErrNoRows {
				errs["customer_id"] = "customer does not exist"
			} else {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
			}
		}
	}
	if len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}

	v, err := h.Vehicles.Update(c.Request().Context(), id, repository.VehiclePatch{
		CustomerID:   req.CustomerID,
		Make:         req.Make,
		Model:        req.Model,
		Registration: req.Registration,
		Year:         req.Year,
	})
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
		case repository.ErrRegistrationExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "registration already exists", "field": "registration"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, v)
}

// Delete handles DELETE /v1/vehicles/:id.
func (h *VehicleHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Vehicles.Delete(c.Request().Context(), id); err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "vehicle still referenced by repair jobs"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
