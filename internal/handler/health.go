package handler // HTTP handlers for the check-in service

import (
    "net/http" // status codes

    "github.com/labstack/echo/v4" // web framework
)

// Health is the liveness probe used by load balancers and container
// orchestrators.  It does not touch the database.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}
