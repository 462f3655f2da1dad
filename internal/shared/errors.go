package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrSessionMissing occurs when a request carries no authenticated session.
	ErrSessionMissing = errors.New("session missing")
)
