package dispatch

import "errors"

var (
	// ErrInvalidAction is returned when broadcasting an event no plugin
	// declares. Never retried, never recorded in the session.
	ErrInvalidAction = errors.New("invalid action")

	// ErrPermissionDenied is returned when the session actor fails the
	// permission check for the event; no subscriber is invoked.
	ErrPermissionDenied = errors.New("permission denied")
)
