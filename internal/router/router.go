package router // package router defines how HTTP routes are registered for the API

import (
	"log/slog" // request logging
	"net/http" // http.Handler for the websocket endpoint

	"github.com/google/uuid"                              // request ids
	"github.com/labstack/echo/v4"                         // import the Echo web framework to handle routing
	echomw "github.com/labstack/echo/v4/middleware"       // echo's stock middleware
	"github.com/prometheus/client_golang/prometheus/promhttp" // /metrics exposition

	"github.com/iliyamo/event-checkin/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/event-checkin/internal/middleware" // JWT authentication, role enforcement, request log
)

// Setup installs the middleware every request passes through: panic
// recovery, request ids, structured request logging and CORS for the
// browser dashboards.
func Setup(e *echo.Echo, logger *slog.Logger, origins []string) {
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	e.Use(middleware.RequestLog(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: origins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
	}))
}

// RegisterRoutes registers the routes that do not require authentication:
// the health check, prometheus metrics and the realtime websocket.
func RegisterRoutes(e *echo.Echo, ws http.Handler) {
	// Liveness probe for load balancers.
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	// Welcome screens and dashboards connect here and join rooms.
	e.GET("/ws", handler.Realtime(ws))
}

// RegisterAuth registers all authentication-related routes.  Token
// exchange lives under /api/auth; /api/me and account creation require a
// valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/api/auth")
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Logout parses the bearer itself so a refresh token alone is enough.
	g.POST("/logout", a.Logout)

	// Admins open accounts for scanner operators.
	g.POST("/users", a.CreateUser, middleware.JWTAuth(jwtSecret), middleware.RequireRole("ADMIN"))

	auth := e.Group("/api", middleware.JWTAuth(jwtSecret), middleware.RequireRole("ADMIN", "STAFF"))
	auth.GET("/me", a.Me)
}
