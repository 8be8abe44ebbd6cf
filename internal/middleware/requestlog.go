package middleware

import (
    "log/slog"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
)

// RequestLog logs one structured line per request through logger.  Server
// errors are logged at error level, client errors at warn, the rest at info.
func RequestLog(logger *slog.Logger) echo.MiddlewareFunc {
    return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogStatus:    true,
        LogURI:       true,
        LogMethod:    true,
        LogLatency:   true,
        LogRequestID: true,
        LogError:     true,
        HandleError:  true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            attrs := []slog.Attr{
                slog.String("method", v.Method),
                slog.String("uri", v.URI),
                slog.Int("status", v.Status),
                slog.Duration("latency", v.Latency),
                slog.String("request_id", v.RequestID),
                slog.String("user", UserID(c)),
            }
            level := slog.LevelInfo
            switch {
            case v.Error != nil || v.Status >= 500:
                level = slog.LevelError
                if v.Error != nil {
                    attrs = append(attrs, slog.String("error", v.Error.Error()))
                }
            case v.Status >= 400:
                level = slog.LevelWarn
            }
            logger.LogAttrs(c.Request().Context(), level, "request", attrs...)
            return nil
        },
    })
}
