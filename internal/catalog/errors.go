package catalog

import "errors"

// Catalog errors.
var (
	// ErrPluginNotFound is returned when a plugin name is not in the repository.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrAlwaysActive is returned when attempting to change the activity
	// state of an always-active plugin.
	ErrAlwaysActive = errors.New("plugin is always active")

	// ErrPersist is returned when the repository blob cannot be written.
	// Callers may continue with the in-memory repository.
	ErrPersist = errors.New("repository persist failed")
)
