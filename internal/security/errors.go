package security

import "errors"

var (
	// ErrInvalidRule is returned when registering a nil security rule.
	ErrInvalidRule = errors.New("invalid security rule")

	// ErrSyncFailed wraps any failure during resynchronization. The
	// transaction is rolled back before it surfaces.
	ErrSyncFailed = errors.New("security resynchronization failed")
)
