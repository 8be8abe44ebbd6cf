package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// Realtime adapts the websocket server to an echo route.  The upgrade takes
// over the connection, so nothing is written through echo afterwards.
func Realtime(ws http.Handler) echo.HandlerFunc {
    return func(c echo.Context) error {
        ws.ServeHTTP(c.Response(), c.Request())
        return nil
    }
}
