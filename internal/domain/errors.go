package domain

import "errors"

var (
	ErrConflict            = errors.New("conflict")
	ErrNotFound            = errors.New("not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidToken        = errors.New("invalid token")
	ErrOptimizationFailure = errors.New("optimization failure")
	ErrInsufficientPoints  = errors.New("insufficient points")

	ErrSuperseded     = errors.New("superseded by a newer request")
	ErrNoDraftSession = errors.New("no draft session")
	ErrLastOrder      = errors.New("waypoint must keep at least one order")
	ErrInvalidIndex   = errors.New("index out of range")

	// Both match errors.Is(err, ErrNotFound).
	ErrRouteNotFound    error = &kindError{msg: "route not found", kind: ErrNotFound}
	ErrWaypointNotFound error = &kindError{msg: "waypoint not found", kind: ErrNotFound}
)

type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }
