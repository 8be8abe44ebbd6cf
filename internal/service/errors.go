package service

import "errors"

// Errors returned by ParticipantService.  Handlers map them onto HTTP
// statuses; anything else is an internal failure.
var (
	// ErrInvalidInput means the request itself is unusable (empty id, empty batch).
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound means no participant matches the scanned code or seat.
	ErrNotFound = errors.New("participant not found")
	// ErrAlreadyCheckedIn means the participant was checked in before this scan.
	ErrAlreadyCheckedIn = errors.New("already checked in")
)
