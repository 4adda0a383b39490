package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/workshop-job-tracker/internal/utils"
)

const testSecret = "unit-test-secret"

func doRequest(t *testing.T, mw echo.MiddlewareFunc, authz string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec, c
}

func TestJWTAuthValidToken(t *testing.T) {
	at, err := utils.NewAccessToken(testSecret, 7, "Mechanic", 5)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	rec, c := doRequest(t, JWTAuth(testSecret), "Bearer "+at.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if uid, _ := c.Get("user_id").(uint64); uid != 7 {
		t.Errorf("user_id = %v, want 7", c.Get("user_id"))
	}
	if role, _ := c.Get("role").(string); role != "Mechanic" {
		t.Errorf("role = %v, want Mechanic", c.Get("role"))
	}
}

func TestJWTAuthMissingHeader(t *testing.T) {
	rec, _ := doRequest(t, JWTAuth(testSecret), "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestJWTAuthWrongSecret(t *testing.T) {
	at, err := utils.NewAccessToken("another-secret", 7, "Admin", 5)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	rec, _ := doRequest(t, JWTAuth(testSecret), "Bearer "+at.Token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestJWTAuthGarbageToken(t *testing.T) {
	rec, _ := doRequest(t, JWTAuth(testSecret), "Bearer not.a.jwt")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func requireRoleWith(t *testing.T, role any, allowed ...string) int {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != nil {
		c.Set("role", role)
	}
	handler := RequireRole(allowed...)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec.Code
}

func TestRequireRole(t *testing.T) {
	if code := requireRoleWith(t, "Admin", "Admin", "Mechanic"); code != http.StatusOK {
		t.Errorf("admin on staff route: %d, want 200", code)
	}
	if code := requireRoleWith(t, "mechanic", "Admin", "Mechanic"); code != http.StatusOK {
		t.Errorf("case-insensitive mechanic: %d, want 200", code)
	}
	if code := requireRoleWith(t, "Customer", "Admin", "Mechanic"); code != http.StatusForbidden {
		t.Errorf("customer on staff route: %d, want 403", code)
	}
	if code := requireRoleWith(t, "Mechanic", "Admin"); code != http.StatusForbidden {
		t.Errorf("mechanic on admin route: %d, want 403", code)
	}
	if code := requireRoleWith(t, nil, "Admin"); code != http.StatusForbidden {
		t.Errorf("missing role: %d, want 403", code)
	}
}
