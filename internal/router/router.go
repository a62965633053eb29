// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/guestgate/event-checkin/internal/handler"
	"github.com/guestgate/event-checkin/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies
// the necessary middleware. Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Issues a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout does not require JWT middleware; the handler accepts either
	// a bearer token or a refresh_token in the body.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ORGANIZER", "STAFF"),
	)
	auth.GET("/me", a.Me)
}

// RegisterScan registers the public terminal endpoints. No JWT is
// involved: the terminal code in the body is the device credential. The
// token bucket limiter shields the database from terminals stuck in a
// retry loop.
func RegisterScan(e *echo.Echo, s *handler.ScanHandler, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/events/:code", limiter)
	g.POST("/scan", s.Scan)
	g.POST("/scan/reverse", s.Reverse)
}

// RegisterOrganizer registers ORGANIZER-scoped endpoints under /v1.
// All routes require a valid JWT and the ORGANIZER role. The stats
// route additionally goes through the short-TTL response cache.
func RegisterOrganizer(e *echo.Echo, ev *handler.EventHandler, tb *handler.TableHandler,
	inv *handler.InvitationHandler, term *handler.TerminalHandler,
	jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ORGANIZER"),
	)

	// ---- Events ----
	g.POST("/events", ev.Create)
	g.GET("/events", ev.List)
	g.GET("/events/:id", ev.Get)
	g.PATCH("/events/:id", ev.Update)
	g.POST("/events/:id/cancel", ev.Cancel)
	g.DELETE("/events/:id", ev.Delete)
	g.GET("/events/:id/stats", ev.Stats, cache)

	// ---- Tables ----
	g.POST("/events/:id/tables", tb.Create)
	g.GET("/events/:id/tables", tb.List)
	g.PATCH("/events/:id/tables/:tableId", tb.Update)
	g.DELETE("/events/:id/tables/:tableId", tb.Delete)
	g.POST("/events/:id/tables/:tableId/allocate", tb.Allocate)
	g.DELETE("/events/:id/tables/:tableId/allocate/:invitationId", tb.Deallocate)

	// ---- Invitations ----
	g.POST("/events/:id/invitations", inv.Create)
	g.GET("/events/:id/invitations", inv.List)
	g.GET("/events/:id/invitations/:invitationId", inv.Get)
	g.PATCH("/events/:id/invitations/:invitationId", inv.Update)
	g.DELETE("/events/:id/invitations/:invitationId", inv.Delete)

	// ---- Terminals ----
	g.POST("/events/:id/terminals", term.Create)
	g.GET("/events/:id/terminals", term.List)
	g.PATCH("/events/:id/terminals/:terminalId", term.Update)
	g.DELETE("/events/:id/terminals/:terminalId", term.Delete)
}
