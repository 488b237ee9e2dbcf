package dispatch

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/dhaslem/herald/internal/catalog"
	"github.com/dhaslem/herald/internal/plugin"
)

// PermissionChecker is the authorization collaborator consulted before any
// subscriber is invoked.
type PermissionChecker interface {
	CheckPermission(profile, action, user string) bool
}

// Dispatcher broadcasts events to subscribed plugins on behalf of one
// session.
type Dispatcher struct {
	logger  hclog.Logger
	repo    *catalog.Repository
	loader  *plugin.Loader
	checker PermissionChecker
	session *Session
}

// NewDispatcher wires a dispatcher. checker may be nil, in which case no
// permission check runs.
func NewDispatcher(logger hclog.Logger, repo *catalog.Repository, loader *plugin.Loader, checker PermissionChecker, session *Session) *Dispatcher {
	return &Dispatcher{
		logger:  logger.Named("dispatch"),
		repo:    repo,
		loader:  loader,
		checker: checker,
		session: session,
	}
}

// Session returns the dispatch session.
func (d *Dispatcher) Session() *Session {
	return d.session
}

// Broadcast dispatches the event to its subscribers in priority order and
// returns the aggregated result. An unknown event fails with
// ErrInvalidAction and leaves the session untouched; the same holds for a
// failed permission check and for a handler error, which propagates
// unwrapped in meaning to the caller.
func (d *Dispatcher) Broadcast(event string, args map[string]interface{}) (interface{}, error) {
	name := strings.ToLower(event)

	if _, ok := d.repo.Method(name); !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAction, event)
	}

	if d.checker != nil {
		actor := d.session.Actor()
		if !d.checker.CheckPermission(actor.Profile, name, actor.User) {
			d.logger.Warn("broadcast denied", "event", name, "user", actor.User)
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, event)
		}
	}

	subscribers := d.repo.Subscribers(name)
	instances := make([]*plugin.Instance, 0, len(subscribers))
	for _, sub := range subscribers {
		inst, err := d.loader.EnsureLoaded(sub)
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}

	d.logger.Debug("broadcasting", "event", name, "subscribers", len(instances))

	var result interface{} = true
	for _, inst := range instances {
		if err := inst.Defunct(); err != nil {
			return nil, err
		}
		if !inst.HasHandler(name) {
			continue
		}

		r, err := inst.Invoke(name, args)
		if err != nil {
			return nil, err
		}

		// The exact boolean false is a veto: stop here.
		if b, ok := r.(bool); ok && !b {
			result = false
			break
		}
		result = r
	}

	d.session.record(name, result)
	return result, nil
}

// NextEvent returns the follow-up event for the session: the first event's
// success route unless the last result was the false sentinel, then its
// error route. Computed lazily and stable after the first call.
func (d *Dispatcher) NextEvent() string {
	if d.session.nextSet {
		return d.session.nextEvent
	}

	m, ok := d.repo.Method(d.session.FirstEvent())
	if !ok {
		return ""
	}

	next := m.OnSuccess
	if d.session.Failed() {
		next = m.OnError
	}

	d.session.nextEvent = next
	d.session.nextSet = true
	return next
}
