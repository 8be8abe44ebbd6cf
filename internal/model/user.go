package model

import "time"

// Roles understood by the access guard.  Admins manage participant data;
// staff operate the scanners and dashboards.
const (
    RoleAdmin = "ADMIN"
    RoleStaff = "STAFF"
)

// User is an operator account from the `users` table.  Refresh tokens are
// stored as hashes next to it and handled entirely by the token repository.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email, stored lower-cased
    PasswordHash string    // bcrypt hash
    Role         string    // RoleAdmin or RoleStaff
    IsActive     bool      // inactive accounts cannot log in or refresh
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// ValidRole reports whether r is one of the known roles.
func ValidRole(r string) bool {
    return r == RoleAdmin || r == RoleStaff
}
