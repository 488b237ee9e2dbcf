package catalog

import "strings"

// Activity represents the runtime activity state of a plugin.
type Activity int

// Plugin activity states.
const (
	// Inactive - Plugin is installed but receives no events.
	Inactive Activity = iota

	// Active - Plugin receives events and can be deactivated.
	Active

	// AlwaysActive - Plugin receives events and cannot be deactivated.
	AlwaysActive
)

// String returns a string representation of the activity state.
func (a Activity) String() string {
	switch a {
	case Inactive:
		return "inactive"
	case Active:
		return "active"
	case AlwaysActive:
		return "always-active"
	default:
		return "unknown"
	}
}

// Enabled returns true if a plugin in this state receives events.
func (a Activity) Enabled() bool {
	return a == Active || a == AlwaysActive
}

// Requirement is one declared access requirement for an event. A zero field
// places no demand; a user satisfies the requirement when every non-zero
// field is met.
type Requirement struct {
	Group string `json:"group,omitempty"`
	Role  string `json:"role,omitempty"`
	Level int    `json:"level,omitempty"`
}

// Zero returns true if the requirement places no demands at all.
func (r Requirement) Zero() bool {
	return r.Group == "" && r.Role == "" && r.Level == 0
}

// Method describes one event exposed by a plugin: its annotations and the
// follow-up routing used after a broadcast.
type Method struct {
	Name      string   `json:"name"`
	Title     string   `json:"title,omitempty"`
	Template  string   `json:"template,omitempty"`
	Priority  int      `json:"priority,omitempty"`
	OnSuccess string   `json:"onSuccess,omitempty"`
	OnError   string   `json:"onError,omitempty"`
	SafeMode  bool     `json:"safeMode,omitempty"`
	Paths     []string `json:"paths,omitempty"`
	Languages []string `json:"languages,omitempty"`

	// Requirements lists the declared access rows for this event.
	// An empty list means the event is public.
	Requirements []Requirement `json:"requirements,omitempty"`
}

// Public returns true if the event has no declared access requirements.
func (m *Method) Public() bool {
	return len(m.Requirements) == 0
}

// Plugin describes one installed plugin unit and the methods it implements.
type Plugin struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Activity Activity  `json:"activity"`
	Methods  []*Method `json:"methods,omitempty"`
}

// Method returns the plugin's declaration for the named event, if any.
// Lookup is case-insensitive.
func (p *Plugin) Method(event string) (*Method, bool) {
	event = strings.ToLower(event)
	for _, m := range p.Methods {
		if strings.ToLower(m.Name) == event {
			return m, true
		}
	}
	return nil, false
}
