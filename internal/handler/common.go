// Package handler defines the HTTP handlers of the API.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/workshop-job-tracker/internal/policy"
	"github.com/iliyamo/workshop-job-tracker/internal/workflow"
)

// getActor builds the policy actor from the identity the JWT middleware
// stored in the context. An incomplete identity is reported as an error so
// callers respond 401.
func getActor(c echo.Context) (policy.Actor, error) {
	uid, _ := c.Get("user_id").(uint64)
	role, _ := c.Get("role").(string)
	if uid == 0 || role == "" {
		return policy.Actor{}, errors.New("no authenticated user in context")
	}
	return policy.Actor{ID: uid, Role: role}, nil
}

// paramID parses a numeric path parameter.
func paramID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// pageParam returns the 1-based page number from the query string.
func pageParam(c echo.Context) int {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	return page
}

// Fixed page sizes of the list endpoints.
const (
	entityPageSize = 15
	notePageSize   = 20
)

// listResponse is the envelope of every paginated list.
func listResponse(items any, total, page, perPage int) echo.Map {
	return echo.Map{"items": items, "total": total, "page": page, "per_page": perPage}
}

// workflowError translates workflow errors into HTTP responses.
func workflowError(c echo.Context, err error) error {
	var verr *workflow.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": verr.Fields})
	case errors.Is(err, workflow.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, workflow.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
