package middleware

// identity.go defines helpers shared across middleware files and handlers
// for reading the caller identity that JWTAuth stored in the Echo context.

import "github.com/labstack/echo/v4"

const (
    ctxUserID = "user_id"
    ctxRole   = "role"
)

// UserID returns the authenticated user's id, or "anon" when the request
// did not pass through JWTAuth.
func UserID(c echo.Context) string {
    if s, ok := c.Get(ctxUserID).(string); ok && s != "" {
        return s
    }
    return "anon"
}

// Role returns the authenticated user's role, or "" when unauthenticated.
func Role(c echo.Context) string {
    s, _ := c.Get(ctxRole).(string)
    return s
}

// SetIdentity stores a caller identity in the context the same way JWTAuth
// does.  It lets other authenticated transports (and tests) reuse the role
// guard.
func SetIdentity(c echo.Context, userID, role string) {
    c.Set(ctxUserID, userID)
    c.Set(ctxRole, role)
}
