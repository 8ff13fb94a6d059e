package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a quiz session has not been opened.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionClosed is returned for operations on a torn-down session.
	ErrSessionClosed = errors.New("quiz session closed")
	// ErrCatalogNotFound indicates the reference catalog could not be loaded.
	ErrCatalogNotFound = errors.New("catalog not found")
	// ErrInvalidCatalog wraps every catalog validation failure.
	ErrInvalidCatalog = errors.New("invalid catalog")
	// ErrInvalidScore indicates an answer outside the 0..2 option range.
	ErrInvalidScore = errors.New("answer score must be 0, 1 or 2")
	// ErrInvalidSectionScore indicates a shared section total outside 0..10.
	ErrInvalidSectionScore = errors.New("section score must be between 0 and 10")
	// ErrUnexpectedScreen indicates an operation that is not allowed on the current screen.
	ErrUnexpectedScreen = errors.New("operation not allowed on current screen")
	// ErrProgressNotFound is returned by progress stores when nothing is saved.
	ErrProgressNotFound = errors.New("progress not found")
)
