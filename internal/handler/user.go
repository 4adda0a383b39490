package handler

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/workshop-job-tracker/internal/config"
	"github.com/iliyamo/workshop-job-tracker/internal/repository"
)

// UserHandler implements the admin-only user management endpoints.
type UserHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
	Roles *repository.RoleRepo
}

func NewUserHandler(cfg config.Config, users *repository.UserRepo, roles *repository.RoleRepo) *UserHandler {
	if users == nil || roles == nil {
		panic("nil repository passed to NewUserHandler")
	}
	return &UserHandler{Cfg: cfg, Users: users, Roles: roles}
}

type createUserReq struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	RoleID   uint64 `json:"role_id"`
}

// validateUserFields collects field violations shared by create and update.
func validateUserFields(name, email, password string, passwordRequired bool) map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(name) == "" {
		errs["name"] = "required"
	}
	if email := strings.TrimSpace(email); email == "" {
		errs["email"] = "required"
	} else if !strings.Contains(email, "@") {
		errs["email"] = "must be a valid email address"
	}
	if password == "" {
		if passwordRequired {
			errs["password"] = "required"
		}
	} else if len(password) < 6 {
		errs["password"] = "must be at least 6 characters"
	}
	return errs
}

// List handles GET /v1/users with an optional ?role= filter.
func (h *UserHandler) List(c echo.Context) error {
	page := pageParam(c)
	users, total, err := h.Users.List(c.Request().Context(), c.QueryParam("role"), page, entityPageSize)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, listResponse(users, total, page, entityPageSize))
}

// Create handles POST /v1/users.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	errs := validateUserFields(req.Name, req.Email, req.Password, true)
	if strings.TrimSpace(req.Username) == "" {
		errs["username"] = "required"
	}
	if req.RoleID == 0 {
		errs["role_id"] = "required"
	} else if _, err := h.Roles.GetByID(c.Request().Context(), req.RoleID); err != nil {
		if err == sql.ErrNoRows {
			errs["role_id"] = "role does not exist"
		} else {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
	}
	if len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}

	u, err := h.Users.Create(c.Request().Context(),
		req.Name, req.Username, req.Email, req.Password, req.RoleID, h.Cfg.BcryptCost)
	if err != nil {
		switch err {
		case repository.ErrEmailExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists", "field": "email"})
		case repository.ErrUsernameExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists", "field": "username"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create user"})
	}
	return c.JSON(http.StatusCreated, u)
}

// Show handles GET /v1/users/:id.
func (h *UserHandler) Show(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	u, err := h.Users.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, u)
}

type updateUserReq struct {
	Name     *string `json:"name"`
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"` // empty = leave unchanged
	RoleID   *uint64 `json:"role_id"`
}

// Update handles PUT /v1/users/:id with partial fields.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	errs := map[string]string{}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		errs["name"] = "must not be empty"
	}
	if req.Username != nil && strings.TrimSpace(*req.Username) == "" {
		errs["username"] = "must not be empty"
	}
	if req.Email != nil {
		if e := strings.TrimSpace(*req.Email); e == "" || !strings.Contains(e, "@") {
			errs["email"] = "must be a valid email address"
		}
	}
	if req.Password != nil && *req.Password != "" && len(*req.Password) < 6 {
		errs["password"] = "must be at least 6 characters"
	}
	if req.RoleID != nil {
		if _, err := h.Roles.GetByID(c.Request().Context(), *req.RoleID); err != nil {
			if err == sql.ErrNoRows {
				errs["role_id"] = "role does not exist"
			} else {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
			}
		}
	}
	if len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}

	u, err := h.Users.Update(c.Request().Context(), id, repository.UserPatch{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		RoleID:   req.RoleID,
	}, h.Cfg.BcryptCost)
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case repository.ErrEmailExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists", "field": "email"})
		case repository.ErrUsernameExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists", "field": "username"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, u)
}

// Delete handles DELETE /v1/users/:id.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Users.Delete(c.Request().Context(), id); err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "user still referenced by repair jobs or notes"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
