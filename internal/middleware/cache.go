package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/workshop-job-tracker/internal/config"
)

// cachedResponse is the envelope stored in Redis per cache key. Body is
// base64-encoded by the json marshaller.
type cachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// recordingWriter tees the response body into a buffer, up to limit bytes,
// while still streaming it to the client.
type recordingWriter struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	written  int64
	limit    int64
	overflow bool
}

func (w *recordingWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	if w.limit > 0 && w.written+int64(len(b)) > w.limit {
		w.overflow = true // response too large to cache
	} else {
		w.buf.Write(b)
	}
	w.written += int64(len(b))
	return w.ResponseWriter.Write(b)
}

// cacheKey hashes route and query under the configured prefix so the raw
// key material never hits Redis.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	return cacheKeyFor(cfg, r.Method, c.Path(), r.URL.RawQuery)
}

// cacheKeyFor derives the storage key from its raw inputs. Writers that
// invalidate must land on the same key readers populate, so both go
// through this one function.
func cacheKeyFor(cfg config.CacheConfig, method, path, rawQuery string) string {
	var tail string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		tail = path
	case "method_route":
		tail = method + ":" + path
	case "method_route_query":
		tail = method + ":" + path + "?" + rawQuery
	default: // route_query
		tail = path + "?" + rawQuery
	}
	sum := sha256.Sum256([]byte(tail))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// InvalidateCache drops the stored response for one route so the next read
// repopulates it. method, path and rawQuery must match the cached request.
// A nil client is a no-op.
func InvalidateCache(ctx context.Context, cfg config.CacheConfig, rdb *redis.Client, method, path, rawQuery string) error {
	if rdb == nil || !cfg.Enabled {
		return nil
	}
	return rdb.Del(ctx, cacheKeyFor(cfg, method, path, rawQuery)).Err()
}

// NewRedisCache caches whole 200 responses (status, headers and body) of
// the configured methods so a hit replays the response byte for byte.
// Anything that is not a plain 200, or exceeds MaxBodyBytes, is never
// stored.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			key := cacheKey(cfg, c)

			if raw, err := rdb.Get(c.Request().Context(), key).Bytes(); err == nil {
				var cached cachedResponse
				if json.Unmarshal(raw, &cached) == nil {
					return replay(c, cached)
				}
			}

			rw := &recordingWriter{
				ResponseWriter: c.Response().Writer,
				status:         http.StatusOK,
				limit:          int64(cfg.MaxBodyBytes),
			}
			c.Response().Writer = rw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			if rw.status == http.StatusOK && !rw.overflow {
				cached := cachedResponse{
					Status: rw.status,
					Header: cloneHeader(c.Response().Header()),
					Body:   rw.buf.Bytes(),
				}
				if raw, err := json.Marshal(cached); err == nil {
					// The request context may already be done; store anyway.
					_ = rdb.SetEx(context.Background(), key, raw, ttl).Err()
				}
			}
			return nil
		}
	}
}

// replay writes a stored response back to the client.
func replay(c echo.Context, cached cachedResponse) error {
	h := c.Response().Header()
	for k, vals := range cached.Header {
		if strings.EqualFold(k, "Content-Length") {
			continue
		}
		for _, v := range vals {
			h.Add(k, v)
		}
	}
	h.Set("X-Cache", "HIT")
	c.Response().WriteHeader(cached.Status)
	if len(cached.Body) > 0 {
		_, _ = c.Response().Write(cached.Body)
	}
	return nil
}

func cloneHeader(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for k, vals := range src {
		vv := make([]string, len(vals))
		copy(vv, vals)
		dst[k] = vv
	}
	return dst
}
