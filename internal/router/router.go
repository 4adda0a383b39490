package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/workshop-job-tracker/internal/handler"
	"github.com/iliyamo/workshop-job-tracker/internal/middleware"
	"github.com/iliyamo/workshop-job-tracker/internal/policy"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring systems use this endpoint to verify
	// that the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware. Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Session endpoints. Login exchanges credentials for a token pair,
	// refresh rotates the refresh token, refresh-access issues a new
	// access token without rotating, and logout revokes by refresh token.
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)

	// /v1/me needs a valid access token but no particular role; any
	// authenticated account can inspect itself.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)

	// Logout is also reachable with a bearer token and no body, in which
	// case every session of the caller is revoked.
	auth.POST("/logout", a.Logout)
}

// RegisterStaff registers the endpoints shared by admins and mechanics:
// repair jobs, their notes and the status catalogue. The fine-grained
// scoping (a mechanic sees only assigned jobs) happens in the workflow
// controller, not here.
func RegisterStaff(e *echo.Echo, jobs *handler.JobHandler, notes *handler.NoteHandler,
	statuses *handler.JobStatusHandler, jwtSecret string, cacheList echo.MiddlewareFunc) {
	// The status catalogue is readable by any authenticated account; it
	// changes rarely, so the list route can sit behind the Redis response
	// cache when one is configured.
	catalog := e.Group("/v1")
	catalog.Use(middleware.JWTAuth(jwtSecret))
	if cacheList != nil {
		catalog.GET("/job-statuses", statuses.List, cacheList)
	} else {
		catalog.GET("/job-statuses", statuses.List)
	}

	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(policy.RoleAdmin, policy.RoleMechanic))

	g.GET("/repair-jobs", jobs.List)
	g.GET("/repair-jobs/:id", jobs.Show)
	g.PATCH("/repair-jobs/:id/status", jobs.UpdateStatus)
	g.GET("/my-jobs", jobs.MyJobs)

	g.GET("/repair-jobs/:id/notes", notes.List)
	g.POST("/repair-jobs/:id/notes", notes.Create)
	g.DELETE("/repair-jobs/:id/notes/:note_id", notes.Delete)
}

// RegisterAdmin registers the management surface: users, customers,
// vehicles, the status catalogue mutations and full repair job CRUD.
// Every route requires the Admin role.
func RegisterAdmin(e *echo.Echo, users *handler.UserHandler, customers *handler.CustomerHandler,
	vehicles *handler.VehicleHandler, statuses *handler.JobStatusHandler,
	jobs *handler.JobHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(policy.RoleAdmin))

	g.GET("/users", users.List)
	g.POST("/users", users.Create)
	g.GET("/users/:id", users.Show)
	g.PUT("/users/:id", users.Update)
	g.DELETE("/users/:id", users.Delete)

	g.GET("/customers", customers.List)
	g.POST("/customers", customers.Create)
	g.GET("/customers/:id", customers.Show)
	g.PUT("/customers/:id", customers.Update)
	g.DELETE("/customers/:id", customers.Delete)

	g.GET("/vehicles", vehicles.List)
	g.POST("/vehicles", vehicles.Create)
	g.GET("/vehicles/:id", vehicles.Show)
	g.PUT("/vehicles/:id", vehicles.Update)
	g.DELETE("/vehicles/:id", vehicles.Delete)

	g.POST("/job-statuses", statuses.Create)
	g.PUT("/job-statuses/:id", statuses.Update)
	g.DELETE("/job-statuses/:id", statuses.Delete)

	g.POST("/repair-jobs", jobs.Create)
	g.PUT("/repair-jobs/:id", jobs.Update)
	g.DELETE("/repair-jobs/:id", jobs.Delete)
}
