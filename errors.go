package sessiongate

import "errors"

var (
	// ErrBadRequest is an exported constant or variable used by the session gate.
	ErrBadRequest = errors.New("bad request")
	// ErrUnauthorized is an exported constant or variable used by the session gate.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is an exported constant or variable used by the session gate.
	ErrForbidden = errors.New("forbidden origin")
	// ErrUserRequired is an exported constant or variable used by the session gate.
	ErrUserRequired = errors.New("user precondition required")
	// ErrUserChanged is an exported constant or variable used by the session gate.
	ErrUserChanged = errors.New("user precondition changed")
)
