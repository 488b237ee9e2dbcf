package catalog

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"
)

// Subscriber pairs a plugin name with its declared priority for one event.
type Subscriber struct {
	Plugin   string
	Priority int
}

// Repository is the aggregate catalog of installed plugins, keyed by
// lower-cased plugin name, with a derived view from event name to the
// ordered set of subscribing plugins.
type Repository struct {
	mu sync.RWMutex

	// Plugins by lower-cased name
	plugins map[string]*Plugin

	// Discovery order of plugin keys (for deterministic tie-breaking)
	order []string

	// Most recently resolved subscriber set (see Subscribers)
	current []string
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{
		plugins: make(map[string]*Plugin),
	}
}

// Add registers a plugin. A plugin with the same name replaces the earlier
// entry but keeps its discovery position.
func (r *Repository) Add(p *Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(p.Name)
	if _, exists := r.plugins[key]; !exists {
		r.order = append(r.order, key)
	}
	r.plugins[key] = p
}

// Plugin returns the named plugin. Lookup is case-insensitive.
func (r *Repository) Plugin(name string) (*Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plugins[strings.ToLower(name)]
	return p, ok
}

// Plugins returns all plugins in discovery order.
func (r *Repository) Plugins() []*Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Plugin, 0, len(r.order))
	for _, key := range r.order {
		if p, ok := r.plugins[key]; ok {
			result = append(result, p)
		}
	}
	return result
}

// Count returns the number of registered plugins.
func (r *Repository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// Method returns the configuration for the named event. When several plugins
// declare the same event, the declaration of the highest-priority plugin
// wins, ties broken by discovery order. Activity state does not affect the
// lookup: an event stays defined while any installed plugin declares it.
func (r *Repository) Method(event string) (*Method, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs := r.subscribersLocked(event, false)
	if len(subs) == 0 {
		return nil, false
	}

	p := r.plugins[subs[0].Plugin]
	return methodOf(p, event)
}

// IsEvent returns true if any installed plugin declares the event.
// The check is case-insensitive.
func (r *Repository) IsEvent(event string) bool {
	_, ok := r.Method(event)
	return ok
}

// Events returns all declared event names, sorted.
func (r *Repository) Events() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	for _, key := range r.order {
		p := r.plugins[key]
		for _, m := range p.Methods {
			seen[strings.ToLower(m.Name)] = true
		}
	}

	events := make([]string, 0, len(seen))
	for e := range seen {
		events = append(events, e)
	}
	sort.Strings(events)
	return events
}

// Subscribers returns the plugins subscribed to the event, ordered by
// descending declared priority with ties broken by discovery order. Only
// enabled plugins are returned. The resolved set is recorded as the
// repository's current set for the dispatch about to occur (see Current).
func (r *Repository) Subscribers(event string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := r.subscribersLocked(event, true)
	names := make([]string, len(subs))
	for i, s := range subs {
		names[i] = s.Plugin
	}

	r.current = names
	return names
}

// Current returns the subscriber set resolved by the last Subscribers call.
func (r *Repository) Current() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.current...)
}

// subscribersLocked resolves the ordered subscriber list for an event.
// Must be called with mu held (read or write).
func (r *Repository) subscribersLocked(event string, enabledOnly bool) []Subscriber {
	var subs []Subscriber
	for _, key := range r.order {
		p := r.plugins[key]
		if enabledOnly && !p.Activity.Enabled() {
			continue
		}
		if m, ok := methodOf(p, event); ok {
			subs = append(subs, Subscriber{Plugin: key, Priority: m.Priority})
		}
	}

	// Priority descending; discovery order already breaks ties because
	// SliceStable preserves the iteration order above.
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].Priority > subs[j].Priority
	})

	return subs
}

// SetActive changes a plugin's activity state. Always-active plugins cannot
// be moved to a different state.
func (r *Repository) SetActive(name string, state Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.plugins[strings.ToLower(name)]
	if !ok {
		return ErrPluginNotFound
	}

	if p.Activity == AlwaysActive && state != AlwaysActive {
		return ErrAlwaysActive
	}

	p.Activity = state
	return nil
}

// AdoptActivity carries the activity state of plugins that exist in base
// over to this repository. Used when merging a fresh scan with the persisted
// repository: stored state survives a rescan, except that a plugin freshly
// declared always-active stays always-active.
func (r *Repository) AdoptActivity(base *Repository) {
	if base == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	base.mu.RLock()
	defer base.mu.RUnlock()

	for key, p := range r.plugins {
		prev, ok := base.plugins[key]
		if !ok {
			continue
		}
		if p.Activity == AlwaysActive {
			continue
		}
		p.Activity = prev.Activity
	}
}

// methodOf returns p's declaration for event, case-insensitively.
func methodOf(p *Plugin, event string) (*Method, bool) {
	if p == nil {
		return nil, false
	}
	return p.Method(event)
}

// repositoryJSON is the serialized form of a Repository.
type repositoryJSON struct {
	Plugins []*Plugin `json:"plugins"`
}

// MarshalJSON implements json.Marshaler, preserving discovery order.
func (r *Repository) MarshalJSON() ([]byte, error) {
	return json.Marshal(repositoryJSON{Plugins: r.Plugins()})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Repository) UnmarshalJSON(data []byte) error {
	var blob repositoryJSON
	if err := json.Unmarshal(data, &blob); err != nil {
		return err
	}

	r.mu.Lock()
	r.plugins = make(map[string]*Plugin, len(blob.Plugins))
	r.order = r.order[:0]
	r.mu.Unlock()

	for _, p := range blob.Plugins {
		r.Add(p)
	}
	return nil
}
