// Package dispatch broadcasts named events to the subscribed plugins.
//
// A broadcast resolves the event's configuration, checks the session
// actor's permission, loads each subscriber and invokes its handler in
// priority order. A handler returning the exact boolean false vetoes the
// broadcast: the result becomes false and no later subscriber runs. Among
// handlers that do run, the last non-false return value wins.
//
// The session tracks the first and last dispatched event, the last result,
// and derives the follow-up event from the first event's success or error
// route.
package dispatch
