package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/workshop-job-tracker/internal/model"
	"github.com/iliyamo/workshop-job-tracker/internal/workflow"
)

// JobHandler exposes the repair job endpoints. All decisions about who may
// do what live in the workflow controller; the handler only translates HTTP.
type JobHandler struct {
	Jobs *workflow.Controller
}

func NewJobHandler(jobs *workflow.Controller) *JobHandler {
	if jobs == nil {
		panic("nil controller passed to NewJobHandler")
	}
	return &JobHandler{Jobs: jobs}
}

type createJobReq struct {
	VehicleID              uint64     `json:"vehicle_id"`
	CustomerID             uint64     `json:"customer_id"`
	AssignedMechanicID     *uint64    `json:"assigned_mechanic_id"`
	StatusID               uint64     `json:"status_id"`
	Description            string     `json:"description"`
	EstimatedDurationHours *int       `json:"estimated_duration_hours"`
	Priority               string     `json:"priority"`
	ReceivedAt             *time.Time `json:"received_at"`
	StartedAt              *time.Time `json:"started_at"`
	CompletedAt            *time.Time `json:"completed_at"`
}

// List handles GET /v1/repair-jobs. Mechanics see only their own jobs.
func (h *JobHandler) List(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	page := pageParam(c)
	jobs, total, err := h.Jobs.List(c.Request().Context(), actor, page, entityPageSize)
	if err != nil {
		return workflowError(c, err)
	}
	return c.JSON(http.StatusOK, listResponse(jobs, total, page, entityPageSize))
}

// MyJobs handles GET /v1/my-jobs: jobs assigned to the caller.
func (h *JobHandler) MyJobs(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	page := pageParam(c)
	jobs, total, err := h.Jobs.ListAssigned(c.Request().Context(), actor, page, entityPageSize)
	if err != nil {
		return workflowError(c, err)
	}
	return c.JSON(http.StatusOK, listResponse(jobs, total, page, entityPageSize))
}

// Show handles GET /v1/repair-jobs/:id.
func (h *JobHandler) Show(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	job, err := h.Jobs.Get(c.Request().Context(), actor, id)
	if err != nil {
		return workflowError(c, err)
	}
	return c.JSON(http.StatusOK, job)
}

// Create handles POST /v1/repair-jobs.
func (h *JobHandler) Create(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createJobReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	job := &model.RepairJob{
		VehicleID:              req.VehicleID,
		CustomerID:             req.CustomerID,
		AssignedMechanicID:     req.AssignedMechanicID,
		StatusID:               req.StatusID,
		Description:            req.Description,
		EstimatedDurationHours: req.EstimatedDurationHours,
		Priority:               req.Priority,
		ReceivedAt:             req.ReceivedAt,
		StartedAt:              req.StartedAt,
		CompletedAt:            req.CompletedAt,
	}
	if err := h.Jobs.Create(c.Request().Context(), actor, job); err != nil {
		return workflowError(c, err)
	}
	return c.JSON(http.StatusCreated, job)
}

type updateJobReq struct {
	VehicleID              *uint64    `json:"vehicle_id"`
	CustomerID             *uint64    `json:"customer_id"`
	AssignedMechanicID     *uint64    `json:"assigned_mechanic_id"`
	StatusID               *uint64    `json:"status_id"`
	Description            *string    `json:"description"`
	EstimatedDurationHours *int       `json:"estimated_duration_hours"`
	Priority               *string    `json:"priority"`
	ReceivedAt             *time.Time `json:"received_at"`
	StartedAt              *time.Time `json:"started_at"`
	CompletedAt            *time.Time `json:"completed_at"`
}

// Update handles PUT /v1/repair-jobs/:id. A status_id in the body is
// ignored here; status changes go through the dedicated PATCH route.
func (h *JobHandler) Update(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateJobReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	job, err := h.Jobs.UpdateGeneral(c.Request().Context(), actor, id, workflow.JobPatch{
		VehicleID:              req.VehicleID,
		CustomerID:             req.CustomerID,
		AssignedMechanicID:     req.AssignedMechanicID,
		StatusID:               req.StatusID,
		Description:            req.Description,
		EstimatedDurationHours: req.EstimatedDurationHours,
		Priority:               req.Priority,
		ReceivedAt:             req.ReceivedAt,
		StartedAt:              req.StartedAt,
		CompletedAt:            req.CompletedAt,
	})
	if err != nil {
		return workflowError(c, err)
	}
	return c.JSON(http.StatusOK, job)
}

type updateStatusReq struct {
	StatusID uint64 `json:"status_id"`
}

// UpdateStatus handles PATCH /v1/repair-jobs/:id/status.
func (h *JobHandler) UpdateStatus(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.StatusID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": map[string]string{"status_id": "required"}})
	}
	job, err := h.Jobs.UpdateStatus(c.Request().Context(), actor, id, req.StatusID)
	if err != nil {
		return workflowError(c, err)
	}
	return c.JSON(http.StatusOK, job)
}

// Delete handles DELETE /v1/repair-jobs/:id. The job's notes go with it.
func (h *JobHandler) Delete(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Jobs.Delete(c.Request().Context(), actor, id); err != nil {
		return workflowError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
