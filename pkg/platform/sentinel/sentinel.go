// Package sentinel holds backend-neutral infrastructure errors. Audit sinks
// return them, possibly wrapped, so callers can match with errors.Is without
// importing a specific backend.
package sentinel

import "errors"

var (
	// ErrUnavailable means the backend is down or deliberately bypassed.
	ErrUnavailable = errors.New("unavailable")
	// ErrClosed means the component was shut down and takes no more work.
	ErrClosed = errors.New("closed")
)
