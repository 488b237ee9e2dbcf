package dispatch

import (
	"testing"

	"github.com/dhaslem/herald/internal/catalog"
)

func routedDispatcher(t *testing.T, handlerRet string) *Dispatcher {
	t.Helper()
	d := newFixture(t, nil, fixturePlugin{
		name:     "router",
		priority: 10,
		code:     tracked(handlerRet),
		methods:  []string{"save", "probe"},
	})

	// Attach routing to the save declaration.
	p, ok := d.repo.Plugin("router")
	if !ok {
		t.Fatal("router plugin missing")
	}
	m, ok := p.Method("save")
	if !ok {
		t.Fatal("save method missing")
	}
	m.OnSuccess = "saved_ok"
	m.OnError = "save_failed"
	return d
}

func TestNextEventSuccessRoute(t *testing.T) {
	d := routedDispatcher(t, "true")

	if _, err := d.Broadcast("save", nil); err != nil {
		t.Fatal(err)
	}
	if got := d.NextEvent(); got != "saved_ok" {
		t.Errorf("NextEvent() = %q, want saved_ok", got)
	}
}

func TestNextEventErrorRoute(t *testing.T) {
	d := routedDispatcher(t, "false")

	if _, err := d.Broadcast("save", nil); err != nil {
		t.Fatal(err)
	}
	if got := d.NextEvent(); got != "save_failed" {
		t.Errorf("NextEvent() = %q, want save_failed", got)
	}
}

func TestNextEventCachedAfterFirstCall(t *testing.T) {
	d := routedDispatcher(t, "true")

	if _, err := d.Broadcast("save", nil); err != nil {
		t.Fatal(err)
	}
	first := d.NextEvent()

	// Later catalog changes must not alter the already-computed route.
	p, _ := d.repo.Plugin("router")
	p.Methods = append(p.Methods, &catalog.Method{Name: "fail", Priority: 10})

	if got := d.NextEvent(); got != first {
		t.Errorf("NextEvent() = %q after recompute, want cached %q", got, first)
	}
}

func TestNextEventBeforeAnyBroadcast(t *testing.T) {
	d := newFixture(t, nil)
	if got := d.NextEvent(); got != "" {
		t.Errorf("NextEvent() = %q before any broadcast, want empty", got)
	}
}

func TestSessionDefaults(t *testing.T) {
	s := NewSession(Actor{Profile: "site", User: "alice"})

	if s.Actor().User != "alice" {
		t.Errorf("Actor().User = %q, want alice", s.Actor().User)
	}
	if _, set := s.LastResult(); set {
		t.Error("fresh session reports a result")
	}
	if s.Failed() {
		t.Error("fresh session reports failure")
	}

	s.record("save", false)
	if !s.Failed() {
		t.Error("Failed() = false after recording the false sentinel")
	}

	s.record("delete", "ok")
	if s.Failed() {
		t.Error("Failed() = true after a non-false result")
	}
	if s.FirstEvent() != "save" {
		t.Errorf("FirstEvent() = %q, want save (sticky)", s.FirstEvent())
	}
}
