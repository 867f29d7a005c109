package repositories

import "errors"

// Sentinel errors shared by every repository. Handlers map these onto 404
// and 409 responses without inspecting driver error codes themselves.
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflict")
)
