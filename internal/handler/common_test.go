package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/workshop-job-tracker/internal/workflow"
)

func newTestContext(t *testing.T, target string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHealth(t *testing.T) {
	c, rec := newTestContext(t, "/healthz")
	if err := Health(c); err != nil {
		t.Fatalf("Health: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestWorkflowErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &workflow.ValidationError{Fields: map[string]string{"status_id": "required"}}, http.StatusBadRequest},
		{"not found", workflow.ErrNotFound, http.StatusNotFound},
		{"forbidden", workflow.ErrForbidden, http.StatusForbidden},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		c, rec := newTestContext(t, "/")
		if err := workflowError(c, tc.err); err != nil {
			t.Fatalf("%s: workflowError returned %v", tc.name, err)
		}
		if rec.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, rec.Code, tc.want)
		}
	}
}

func TestWorkflowErrorValidationBody(t *testing.T) {
	c, rec := newTestContext(t, "/")
	err := workflowError(c, &workflow.ValidationError{Fields: map[string]string{
		"vehicle_id":  "vehicle does not exist",
		"description": "required",
	}})
	if err != nil {
		t.Fatalf("workflowError: %v", err)
	}
	var body struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body.Errors["vehicle_id"] != "vehicle does not exist" || body.Errors["description"] != "required" {
		t.Errorf("unexpected errors map: %v", body.Errors)
	}
}

func TestPageParam(t *testing.T) {
	for target, want := range map[string]int{
		"/?page=3":  3,
		"/?page=0":  1,
		"/?page=-2": 1,
		"/?page=x":  1,
		"/":         1,
	} {
		c, _ := newTestContext(t, target)
		if got := pageParam(c); got != want {
			t.Errorf("pageParam(%s) = %d, want %d", target, got, want)
		}
	}
}
