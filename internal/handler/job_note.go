package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/workshop-job-tracker/internal/workflow"
)

// NoteHandler exposes the per-job note endpoints.
type NoteHandler struct {
	Jobs *workflow.Controller
}

func NewNoteHandler(jobs *workflow.Controller) *NoteHandler {
	if jobs == nil {
		panic("nil controller passed to NewNoteHandler")
	}
	return &NoteHandler{Jobs: jobs}
}

// List handles GET /v1/repair-jobs/:id/notes.
func (h *NoteHandler) List(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	jobID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	page := pageParam(c)
	notes, total, err := h.Jobs.ListNotes(c.Request().Context(), actor, jobID, page, notePageSize)
	if err != nil {
		return workflowError(c, err)
	}
	return c.JSON(http.StatusOK, listResponse(notes, total, page, notePageSize))
}

type createNoteReq struct {
	Note string `json:"note"`
}

// Create handles POST /v1/repair-jobs/:id/notes.
func (h *NoteHandler) Create(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	jobID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req createNoteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	note, err := h.Jobs.AddNote(c.Request().Context(), actor, jobID, req.Note)
	if err != nil {
		return workflowError(c, err)
	}
	return c.JSON(http.StatusCreated, note)
}

// Delete handles DELETE /v1/repair-jobs/:id/notes/:note_id.
func (h *NoteHandler) Delete(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	jobID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	noteID, err := paramID(c, "note_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid note id"})
	}
	if err := h.Jobs.DeleteNote(c.Request().Context(), actor, jobID, noteID); err != nil {
		return workflowError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
