package security

import (
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/dhaslem/herald/internal/catalog"
	"github.com/dhaslem/herald/internal/rowstore"
)

// Engine answers permission checks against the stored requirement rows and
// the registered rule chain. One engine serves one session; it owns the
// session's permission cache.
type Engine struct {
	logger hclog.Logger
	store  rowstore.Store
	repo   *catalog.Repository
	cache  *Cache
	rules  []Rule

	defaultProfile string
	defaultUser    string
	defaultReq     *catalog.Requirement
	allowUnmatched bool
	lastEvent      func() string

	resyncTried bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithDefaultActor sets the ambient profile and user substituted for empty
// arguments to CheckPermission.
func WithDefaultActor(profile, user string) Option {
	return func(e *Engine) {
		e.defaultProfile = profile
		e.defaultUser = user
	}
}

// WithLastEvent supplies the fallback action for an empty action argument,
// typically the dispatch session's last event.
func WithLastEvent(fn func() string) Option {
	return func(e *Engine) {
		e.lastEvent = fn
	}
}

// WithUnmatchedAllow sets whether an action with no requirement rows and no
// default requirement is allowed. The default is true: an undeclared action
// is public.
func WithUnmatchedAllow(allow bool) Option {
	return func(e *Engine) {
		e.allowUnmatched = allow
	}
}

// WithDefaultRequirement sets a global requirement applied to actions that
// have no rows of their own.
func WithDefaultRequirement(req catalog.Requirement) Option {
	return func(e *Engine) {
		e.defaultReq = &req
	}
}

// NewEngine creates an engine over the row store and live catalog.
func NewEngine(logger hclog.Logger, store rowstore.Store, repo *catalog.Repository, opts ...Option) *Engine {
	e := &Engine{
		logger:         logger.Named("security"),
		store:          store,
		repo:           repo,
		cache:          NewCache(),
		allowUnmatched: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddRule appends a rule to the chain.
func (e *Engine) AddRule(rule Rule) error {
	if rule == nil {
		return ErrInvalidRule
	}
	e.rules = append(e.rules, rule)
	return nil
}

// CheckPermission reports whether (profile, action, user) is permitted.
// Empty arguments take ambient defaults; an action that cannot be resolved
// at all is denied. Decisions are cached per normalized triple.
func (e *Engine) CheckPermission(profile, action, user string) bool {
	if profile == "" {
		profile = e.defaultProfile
	}
	if user == "" {
		user = e.defaultUser
	}
	if action == "" && e.lastEvent != nil {
		action = e.lastEvent()
	}
	if action == "" {
		return false
	}

	profile = strings.ToLower(profile)
	action = strings.ToLower(action)
	user = strings.ToLower(user)

	if allowed, ok := e.cache.Get(profile, user, action); ok {
		return allowed
	}

	rows, err := e.store.Select(rowstore.TableActionRules, rowstore.Predicate{"action": action})
	if err != nil {
		e.logger.Warn("action rules unavailable, denying", "action", action, "error", err)
		return false
	}

	if len(rows) == 0 {
		if empty, err := e.rulesTableEmpty(); err == nil && empty && !e.resyncTried {
			// One shot per engine: rebuild the tables, deny this call.
			e.resyncTried = true
			e.logger.Warn("action rules table empty, resynchronizing", "action", action)
			if err := e.Resynchronize(); err != nil {
				e.logger.Error("resynchronization failed", "error", err)
			}
			return false
		}
		allowed := e.unmatchedDecision(profile, action, user)
		e.cache.Put(profile, user, action, allowed)
		return allowed
	}

	allowed := false
	for _, row := range rows {
		req := catalog.Requirement{
			Group: row.String("usergroup"),
			Role:  row.String("userrole"),
			Level: row.Int("level"),
		}
		if e.checkRule(req, profile, action, user) {
			allowed = true
			break
		}
	}

	e.cache.Put(profile, user, action, allowed)
	return allowed
}

// unmatchedDecision handles an action with no requirement rows of its own.
func (e *Engine) unmatchedDecision(profile, action, user string) bool {
	if e.defaultReq != nil {
		return e.checkRule(*e.defaultReq, profile, action, user)
	}
	return e.allowUnmatched
}

// checkRule runs the rule chain against one requirement row. The first
// deny ends the row as denied; an allow sticks unless a later rule denies;
// abstentions change nothing.
func (e *Engine) checkRule(req catalog.Requirement, profile, action, user string) bool {
	result := false
	for _, rule := range e.rules {
		switch rule(e.store, req, profile, action, user) {
		case Deny:
			return false
		case Allow:
			result = true
		}
	}
	return result
}

func (e *Engine) rulesTableEmpty() (bool, error) {
	all, err := e.store.Select(rowstore.TableActionRules, nil)
	if err != nil {
		return false, err
	}
	return len(all) == 0, nil
}
