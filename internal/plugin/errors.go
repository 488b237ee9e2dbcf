package plugin

import "errors"

// Plugin loading errors.
var (
	// ErrPluginNotFound is returned when a plugin name is not in the repository.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrNoCodeUnit is returned when invoking a handler on a plugin whose
	// code unit does not exist on disk.
	ErrNoCodeUnit = errors.New("plugin has no code unit")

	// ErrNotLoaded is returned when using an instance that was never loaded.
	ErrNotLoaded = errors.New("plugin is not loaded")
)
