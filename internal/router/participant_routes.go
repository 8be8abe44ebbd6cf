package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-checkin/internal/handler"
	"github.com/iliyamo/event-checkin/internal/middleware"
)

// RegisterParticipants registers the check-in endpoints under
// /api/participants.  Every route requires a valid JWT; bulk and generate
// operations are ADMIN only.  scanLimit throttles the scan endpoint and may
// be nil.
func RegisterParticipants(e *echo.Echo, p *handler.ParticipantHandler, jwtSecret string, scanLimit echo.MiddlewareFunc) {
	g := e.Group("/api/participants", middleware.JWTAuth(jwtSecret))

	staff := middleware.RequireRole("ADMIN", "STAFF")
	admin := middleware.RequireRole("ADMIN")

	scan := []echo.MiddlewareFunc{staff}
	if scanLimit != nil {
		scan = append(scan, scanLimit)
	}
	g.POST("/checkin", p.CheckIn, scan...)
	g.GET("/stats", p.Stats, staff)
	g.GET("/seat/:key", p.FindBySeat, staff)

	// ---- Admin ----
	g.POST("/generate", p.Generate, admin)
	g.DELETE("/all", p.DeleteAll, admin)
	g.POST("/checkin/all/:value", p.SetAllCheckedIn, admin)
}
