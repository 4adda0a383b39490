package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/workshop-job-tracker/internal/config"
)

func testCacheConfig(strategy string) config.CacheConfig {
	return config.CacheConfig{
		Enabled:     true,
		Methods:     map[string]bool{"GET": true},
		KeyStrategy: strategy,
		Prefix:      "cache",
	}
}

// An invalidating writer must land on the same key the middleware stored
// the response under, otherwise mutations leave stale entries behind.
func TestCacheKeyMatchesInvalidationKey(t *testing.T) {
	for _, strategy := range []string{"route", "method_route", "method_route_query", "route_query"} {
		cfg := testCacheConfig(strategy)

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/v1/job-statuses", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath("/v1/job-statuses")

		stored := cacheKey(cfg, c)
		dropped := cacheKeyFor(cfg, http.MethodGet, "/v1/job-statuses", "")
		if stored != dropped {
			t.Errorf("strategy %s: stored key %q != invalidation key %q", strategy, stored, dropped)
		}
	}
}

func TestCacheKeyVariesByRoute(t *testing.T) {
	cfg := testCacheConfig("route_query")
	a := cacheKeyFor(cfg, http.MethodGet, "/v1/job-statuses", "")
	b := cacheKeyFor(cfg, http.MethodGet, "/v1/repair-jobs", "")
	if a == b {
		t.Fatal("different routes produced the same cache key")
	}
}

func TestInvalidateCacheNilClient(t *testing.T) {
	cfg := testCacheConfig("route_query")
	if err := InvalidateCache(context.Background(), cfg, nil, http.MethodGet, "/v1/job-statuses", ""); err != nil {
		t.Fatalf("nil client should be a no-op, got %v", err)
	}
}
