package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	plua "github.com/dhaslem/herald/internal/plugin/lua"
)

// Plugin unit layout within the plugin directory.
const (
	// CodeUnitSuffix is appended to the plugin name to form its code unit,
	// e.g. <dir>/blog/blog.plugin.lua.
	CodeUnitSuffix = ".plugin.lua"

	// MountSuffix is appended to the plugin name to form its optional
	// resource mount descriptor, e.g. <dir>/blog/blog.drive.xml.
	MountSuffix = ".drive.xml"

	// HandlerPrefix marks a global Lua function as an event handler.
	// The event name is the function name minus this prefix.
	HandlerPrefix = "on_"
)

// Scanner discovers plugin units in a directory tree and extracts the
// methods each unit declares.
type Scanner struct {
	logger hclog.Logger
	dir    string
}

// NewScanner creates a scanner for the given plugin directory.
func NewScanner(logger hclog.Logger, dir string) *Scanner {
	return &Scanner{
		logger: logger.Named("scanner"),
		dir:    dir,
	}
}

// Dir returns the scanned plugin directory.
func (s *Scanner) Dir() string {
	return s.dir
}

// Scan discovers every plugin unit under the directory and returns a fresh
// repository. Units that fail to load are logged and skipped; a missing
// plugin directory yields an empty repository, not an error.
func (s *Scanner) Scan() (*Repository, error) {
	repo := NewRepository()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return repo, nil
		}
		return nil, fmt.Errorf("reading plugin directory %s: %w", s.dir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		name := entry.Name()
		p, err := s.inspect(name, filepath.Join(s.dir, name))
		if err != nil {
			s.logger.Warn("skipping plugin", "name", name, "error", err)
			continue
		}
		if p == nil {
			s.logger.Debug("no code unit", "name", name)
			continue
		}

		repo.Add(p)
		s.logger.Debug("discovered plugin", "name", p.Name, "methods", len(p.Methods))
	}

	return repo, nil
}

// inspect loads a single unit's code in a throwaway sandboxed state and
// extracts its handler functions and declared annotations. Returns (nil,
// nil) when the directory contains no code unit.
func (s *Scanner) inspect(name, path string) (*Plugin, error) {
	codePath := filepath.Join(path, name+CodeUnitSuffix)
	if _, err := os.Stat(codePath); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	state, err := plua.NewState()
	if err != nil {
		return nil, err
	}
	defer state.Close()

	if err := state.DoFile(codePath); err != nil {
		return nil, fmt.Errorf("loading code unit: %w", err)
	}

	bridge := plua.NewBridge(state.LuaState())

	p := &Plugin{
		Name:     strings.ToLower(name),
		Path:     path,
		Activity: Active,
	}

	// Unit-level annotations: plugin = { always_active = true }
	if meta, ok := bridge.ToGoValue(state.GetGlobal("plugin")).(map[string]interface{}); ok {
		if always, _ := meta["always_active"].(bool); always {
			p.Activity = AlwaysActive
		}
	}

	// Per-event annotations: events = { save = { title = ..., ... } }
	annotations, _ := bridge.ToGoValue(state.GetGlobal("events")).(map[string]interface{})

	// Every global on_<event> function is a handler; annotations are
	// matched by event name.
	for _, fn := range state.GlobalFunctions(HandlerPrefix) {
		event := strings.ToLower(strings.TrimPrefix(fn, HandlerPrefix))
		if event == "" {
			continue
		}
		p.Methods = append(p.Methods, parseMethod(event, annotations[event]))
	}

	return p, nil
}

// parseMethod builds a method descriptor from the event name and its raw
// annotation table (which may be absent).
func parseMethod(event string, raw interface{}) *Method {
	m := &Method{Name: event}

	attrs, ok := raw.(map[string]interface{})
	if !ok {
		return m
	}

	m.Title = strField(attrs, "title")
	m.Template = strField(attrs, "template")
	m.Priority = intField(attrs, "priority")
	m.OnSuccess = strings.ToLower(strField(attrs, "on_success"))
	m.OnError = strings.ToLower(strField(attrs, "on_error"))
	m.SafeMode = boolField(attrs, "safe")
	m.Paths = strList(attrs, "paths")
	m.Languages = strList(attrs, "languages")

	if rows, ok := attrs["acls"].([]interface{}); ok {
		for _, row := range rows {
			attrs, ok := row.(map[string]interface{})
			if !ok {
				continue
			}
			req := Requirement{
				Group: strings.ToLower(strField(attrs, "group")),
				Role:  strings.ToLower(strField(attrs, "role")),
				Level: intField(attrs, "level"),
			}
			if !req.Zero() {
				m.Requirements = append(m.Requirements, req)
			}
		}
	}

	return m
}

func strField(attrs map[string]interface{}, key string) string {
	s, _ := attrs[key].(string)
	return s
}

func intField(attrs map[string]interface{}, key string) int {
	switch n := attrs[key].(type) {
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func boolField(attrs map[string]interface{}, key string) bool {
	b, _ := attrs[key].(bool)
	return b
}

func strList(attrs map[string]interface{}, key string) []string {
	items, ok := attrs[key].([]interface{})
	if !ok {
		return nil
	}

	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
