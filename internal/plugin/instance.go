package plugin

import (
	"fmt"
	"strings"

	"github.com/dhaslem/herald/internal/catalog"
	plua "github.com/dhaslem/herald/internal/plugin/lua"
)

// Instance is one materialized plugin unit: its Lua state plus the optional
// resource mount. Instances are created by the Loader and live for the rest
// of the process.
type Instance struct {
	name  string
	dir   string
	mount *Mount

	state  *plua.State
	bridge *plua.Bridge

	// Deferred load failure: surfaced on the first invocation attempt,
	// not at load time.
	loadErr error
}

// Name returns the plugin name.
func (i *Instance) Name() string {
	return i.name
}

// Dir returns the plugin directory.
func (i *Instance) Dir() string {
	return i.dir
}

// Mount returns the attached resource mount, or nil if the plugin has none.
func (i *Instance) Mount() *Mount {
	return i.mount
}

// Defunct returns the deferred load failure, if any. A defunct instance has
// no runnable code; the error is reported when a dispatch first tries to
// invoke one of its handlers.
func (i *Instance) Defunct() error {
	return i.loadErr
}

// HasHandler returns true if the plugin's code defines a handler for the
// event. A defunct instance has no handlers.
func (i *Instance) HasHandler(event string) bool {
	if i.state == nil {
		return false
	}
	return i.state.HasFunction(handlerName(event))
}

// Invoke calls the plugin's handler for the event with the broadcast
// arguments. The handler's first return value comes back as a Go value; a
// handler returning nothing yields nil. Lua errors propagate to the caller
// unwrapped into a Go error.
func (i *Instance) Invoke(event string, args map[string]interface{}) (interface{}, error) {
	if i.state == nil {
		if i.loadErr != nil {
			return nil, i.loadErr
		}
		return nil, ErrNotLoaded
	}

	results, err := i.state.Call(handlerName(event), i.bridge.ToLuaValue(args))
	if err != nil {
		return nil, fmt.Errorf("plugin %q handler %q: %w", i.name, event, err)
	}

	if len(results) == 0 {
		return nil, nil
	}
	return i.bridge.ToGoValue(results[0]), nil
}

// handlerName maps an event name to its handler function name.
func handlerName(event string) string {
	return catalog.HandlerPrefix + strings.ToLower(event)
}
