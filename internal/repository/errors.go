// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// check-in service and the handlers to distinguish between different
// failure scenarios without inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrParticipantNotFound is returned when no participant matches the
// requested identifier or seat number.
var ErrParticipantNotFound = errors.New("participant not found")

// ErrDuplicateParticipant is returned when a participant with the same
// identifier already exists.
var ErrDuplicateParticipant = errors.New("participant already exists")

// ErrEmailExists is returned when an account with the same email exists.
var ErrEmailExists = errors.New("email already exists")

// ErrInvalidRefresh is returned when a refresh token is unknown, revoked
// or expired.
var ErrInvalidRefresh = errors.New("invalid refresh token")

// isDuplicateKey reports whether err is a MySQL unique constraint violation.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
