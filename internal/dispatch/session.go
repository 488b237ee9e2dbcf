package dispatch

// Actor identifies who a session dispatches on behalf of: a profile (the
// application surface) and a user name.
type Actor struct {
	Profile string
	User    string
}

// Session is the per-process dispatch state. Scoped to a single request;
// not safe for concurrent use.
type Session struct {
	actor Actor

	firstEvent string
	lastEvent  string

	lastResult interface{}
	resultSet  bool

	nextEvent string
	nextSet   bool
}

// NewSession creates a session for the actor.
func NewSession(actor Actor) *Session {
	return &Session{actor: actor}
}

// Actor returns the session actor.
func (s *Session) Actor() Actor {
	return s.actor
}

// FirstEvent returns the first event dispatched in this session. Set once,
// sticky for the session's lifetime.
func (s *Session) FirstEvent() string {
	return s.firstEvent
}

// LastEvent returns the most recently dispatched event.
func (s *Session) LastEvent() string {
	return s.lastEvent
}

// LastResult returns the last broadcast result and whether any broadcast
// has completed yet.
func (s *Session) LastResult() (interface{}, bool) {
	return s.lastResult, s.resultSet
}

// Failed reports whether the last broadcast ended in the explicit false
// sentinel.
func (s *Session) Failed() bool {
	r, ok := s.lastResult.(bool)
	return s.resultSet && ok && !r
}

// record stores the outcome of a completed broadcast.
func (s *Session) record(event string, result interface{}) {
	if s.firstEvent == "" {
		s.firstEvent = event
	}
	s.lastEvent = event
	s.lastResult = result
	s.resultSet = true
}
