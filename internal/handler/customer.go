package handler

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/workshop-job-tracker/internal/model"
	"github.com/iliyamo/workshop-job-tracker/internal/repository"
)

// CustomerHandler implements the admin-only customer CRUD endpoints.
type CustomerHandler struct {
	Customers *repository.CustomerRepo
}

func NewCustomerHandler(customers *repository.CustomerRepo) *CustomerHandler {
	if customers == nil {
		panic("nil repository passed to NewCustomerHandler")
	}
	return &CustomerHandler{Customers: customers}
}

type customerReq struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (r customerReq) validate() map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(r.Name) == "" {
		errs["name"] = "required"
	}
	if e := strings.TrimSpace(r.Email); e != "" && !strings.Contains(e, "@") {
		errs["email"] = "must be a valid email address"
	}
	return errs
}

// List handles GET /v1/customers.
func (h *CustomerHandler) List(c echo.Context) error {
	page := pageParam(c)
	customers, total, err := h.Customers.List(c.Request().Context(), page, entityPageSize)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, listResponse(customers, total, page, entityPageSize))
}

// Create handles POST /v1/customers.
func (h *CustomerHandler) Create(c echo.Context) error {
	var req customerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if errs := req.validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}
	cust := &model.Customer{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Phone:   strings.TrimSpace(req.Phone),
		Address: strings.TrimSpace(req.Address),
	}
	if err := h.Customers.Create(c.Request().Context(), cust); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create customer"})
	}
	return c.JSON(http.StatusCreated, cust)
}

// Show handles GET /v1/customers/:id.
func (h *CustomerHandler) Show(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	cust, err := h.Customers.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, cust)
}

type customerUpdateReq struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

// Update handles PUT /v1/customers/:id with partial fields.
func (h *CustomerHandler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req customerUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	errs := map[string]string{}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		errs["name"] = "must not be empty"
	}
	if req.Email != nil {
		if e := strings.TrimSpace(*req.Email); e != "" && !strings.Contains(e, "@") {
			errs["email"] = "must be a valid email address"
		}
	}
	if len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}
	cust, err := h.Customers.Update(c.Request().Context(), id, repository.CustomerPatch{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, cust)
}

// Delete handles DELETE /v1/customers/:id. Vehicles cascade in the
// database; repair jobs referencing the customer block the delete.
func (h *CustomerHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Customers.Delete(c.Request().Context(), id); err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "customer still referenced by repair jobs"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
