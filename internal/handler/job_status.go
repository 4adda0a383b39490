package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/workshop-job-tracker/internal/model"
	"github.com/iliyamo/workshop-job-tracker/internal/repository"
)

// JobStatusHandler serves the job status catalogue. Listing is open to
// every authenticated user; mutation is admin-only.
type JobStatusHandler struct {
	Statuses *repository.JobStatusRepo

	// Invalidate, when set, drops the cached catalogue list. It is called
	// after every successful mutation so readers never see a renamed or
	// deleted status for a full cache TTL.
	Invalidate func(ctx context.Context)
}

func NewJobStatusHandler(statuses *repository.JobStatusRepo) *JobStatusHandler {
	if statuses == nil {
		panic("nil repository passed to NewJobStatusHandler")
	}
	return &JobStatusHandler{Statuses: statuses}
}

func (h *JobStatusHandler) invalidate(c echo.Context) {
	if h.Invalidate != nil {
		h.Invalidate(c.Request().Context())
	}
}

// List handles GET /v1/job-statuses. The catalogue is small and
// changes rarely, so the route sits behind the response cache.
func (h *JobStatusHandler) List(c echo.Context) error {
	statuses, err := h.Statuses.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": statuses})
}

type jobStatusReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create handles POST /v1/job-statuses.
func (h *JobStatusHandler) Create(c echo.Context) error {
	var req jobStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": map[string]string{"name": "required"}})
	}
	s := &model.JobStatus{Name: strings.TrimSpace(req.Name), Description: strings.TrimSpace(req.Description)}
	if err := h.Statuses.Create(c.Request().Context(), s); err != nil {
		if err == repository.ErrStatusNameExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "status name already exists", "field": "name"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create status"})
	}
	h.invalidate(c)
	return c.JSON(http.StatusCreated, s)
}

type jobStatusUpdateReq struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// Update handles PUT /v1/job-statuses/:id.
func (h *JobStatusHandler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req jobStatusUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": map[string]string{"name": "must not be empty"}})
	}
	s, err := h.Statuses.Update(c.Request().Context(), id, repository.StatusPatch{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "status not found"})
		case repository.ErrStatusNameExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "status name already exists", "field": "name"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	h.invalidate(c)
	return c.JSON(http.StatusOK, s)
}

// Delete handles DELETE /v1/job-statuses/:id. Statuses referenced by
// repair jobs cannot be removed.
func (h *JobStatusHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Statuses.Delete(c.Request().Context(), id); err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "status not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "status still referenced by repair jobs"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	h.invalidate(c)
	return c.NoContent(http.StatusNoContent)
}
