package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/dhaslem/herald/internal/catalog"
	plua "github.com/dhaslem/herald/internal/plugin/lua"
)

// Loader instantiates plugin units on demand. Loading is lazy and
// memoized: the first EnsureLoaded for a name materializes the instance,
// every later call returns the same one.
type Loader struct {
	mu     sync.Mutex
	logger hclog.Logger
	repo   *catalog.Repository

	instances map[string]*Instance
	order     []string
}

// NewLoader creates a loader over the repository.
func NewLoader(logger hclog.Logger, repo *catalog.Repository) *Loader {
	return &Loader{
		logger:    logger.Named("loader"),
		repo:      repo,
		instances: make(map[string]*Instance),
	}
}

// EnsureLoaded returns the instance for the named plugin, materializing it
// on the first call. The name must be in the repository. A missing or
// broken code unit still yields an instance; the failure is recorded and
// surfaces when a handler invocation is attempted.
func (l *Loader) EnsureLoaded(name string) (*Instance, error) {
	key := strings.ToLower(name)

	l.mu.Lock()
	defer l.mu.Unlock()

	if inst, ok := l.instances[key]; ok {
		return inst, nil
	}

	p, ok := l.repo.Plugin(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}

	inst := l.materialize(p)
	l.instances[key] = inst
	l.order = append(l.order, key)
	return inst, nil
}

// Instance returns an already-loaded instance.
func (l *Loader) Instance(name string) (*Instance, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst, ok := l.instances[strings.ToLower(name)]
	return inst, ok
}

// IsLoaded reports whether the named plugin has been materialized.
func (l *Loader) IsLoaded(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.instances[strings.ToLower(name)]
	return ok
}

// Loaded returns the names of all materialized plugins in load order.
func (l *Loader) Loaded() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, len(l.order))
	copy(names, l.order)
	return names
}

// Close tears down every materialized Lua state.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, inst := range l.instances {
		if inst.state != nil {
			inst.state.Close()
		}
	}
}

func (l *Loader) materialize(p *catalog.Plugin) *Instance {
	inst := &Instance{name: p.Name, dir: p.Path}

	unitPath := filepath.Join(p.Path, p.Name+catalog.CodeUnitSuffix)
	if _, err := os.Stat(unitPath); err != nil {
		l.logger.Warn("plugin code unit missing", "plugin", p.Name, "path", unitPath)
		inst.loadErr = fmt.Errorf("%w: %s", ErrNoCodeUnit, p.Name)
		return inst
	}

	state, err := plua.NewState()
	if err != nil {
		inst.loadErr = fmt.Errorf("creating runtime for plugin %q: %w", p.Name, err)
		return inst
	}
	if err := state.DoFile(unitPath); err != nil {
		l.logger.Warn("plugin code unit failed to load", "plugin", p.Name, "error", err)
		state.Close()
		inst.loadErr = fmt.Errorf("loading plugin %q: %w", p.Name, err)
		return inst
	}

	inst.state = state
	inst.bridge = plua.NewBridge(state.LuaState())

	mountPath := filepath.Join(p.Path, p.Name+catalog.MountSuffix)
	mount, err := LoadMount(mountPath)
	if err != nil {
		// A broken mount does not take the code down with it.
		l.logger.Warn("plugin mount descriptor invalid", "plugin", p.Name, "error", err)
	} else {
		inst.mount = mount
	}

	l.logger.Debug("plugin loaded", "plugin", p.Name, "handlers", len(p.Methods))
	return inst
}
