package security

import (
	"errors"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/dhaslem/herald/internal/catalog"
	"github.com/dhaslem/herald/internal/rowstore"
)

func syncTestRepo() *catalog.Repository {
	repo := catalog.NewRepository()
	repo.Add(&catalog.Plugin{
		Name:     "blog",
		Activity: catalog.Active,
		Methods: []*catalog.Method{
			{
				Name:  "save",
				Title: "Save Post",
				Requirements: []catalog.Requirement{
					{Group: "staff", Level: 10},
					{Role: "editor"},
				},
			},
			{Name: "view"},
		},
	})
	return repo
}

func TestResynchronizeBuildsTables(t *testing.T) {
	store := rowstore.NewMemoryStore()
	e := NewEngine(hclog.NewNullLogger(), store, syncTestRepo())

	if err := e.Resynchronize(); err != nil {
		t.Fatalf("Resynchronize() error = %v", err)
	}

	actions, err := store.Select(rowstore.TableActions, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(actions) != 2 {
		t.Fatalf("action rows = %d, want 2", len(actions))
	}

	titles := map[string]string{}
	for _, r := range actions {
		titles[r.String("id")] = r.String("title")
	}
	if titles["save"] != "Save Post" {
		t.Errorf("save title = %q, want Save Post", titles["save"])
	}
	if titles["view"] != "view" {
		t.Errorf("view title = %q, want the action id as default", titles["view"])
	}

	if n := store.Count(rowstore.TableActionRules); n != 2 {
		t.Errorf("rule rows = %d, want 2", n)
	}
	groups, _ := store.Select(rowstore.TableGroups, rowstore.Predicate{"name": "staff"})
	if len(groups) != 1 {
		t.Error("group staff was not upserted")
	}
	roles, _ := store.Select(rowstore.TableRoles, rowstore.Predicate{"name": "editor"})
	if len(roles) != 1 {
		t.Error("role editor was not upserted")
	}
}

func TestResynchronizeIsIdempotent(t *testing.T) {
	store := rowstore.NewMemoryStore()
	e := NewEngine(hclog.NewNullLogger(), store, syncTestRepo())

	if err := e.Resynchronize(); err != nil {
		t.Fatal(err)
	}
	if err := e.Resynchronize(); err != nil {
		t.Fatal(err)
	}

	if n := store.Count(rowstore.TableActionRules); n != 2 {
		t.Errorf("rule rows after second resync = %d, want 2 (replaced, not duplicated)", n)
	}
	if n := store.Count(rowstore.TableGroups); n != 1 {
		t.Errorf("group rows = %d, want 1", n)
	}
}

func TestResynchronizeKeepsCuratedTitle(t *testing.T) {
	store := rowstore.NewMemoryStore()
	e := NewEngine(hclog.NewNullLogger(), store, syncTestRepo())

	if err := e.Resynchronize(); err != nil {
		t.Fatal(err)
	}

	// An operator renamed the bare "view" action; the curated title must
	// survive the next resync even though code declares none.
	if err := store.Remove(rowstore.TableActions, rowstore.Predicate{"id": "view"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Insert(rowstore.TableActions, rowstore.Row{"id": "view", "title": "View Posts"}); err != nil {
		t.Fatal(err)
	}

	if err := e.Resynchronize(); err != nil {
		t.Fatal(err)
	}

	rows, err := store.Select(rowstore.TableActions, rowstore.Predicate{"id": "view"})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].String("title") != "View Posts" {
		t.Errorf("view row = %v, want curated title View Posts", rows)
	}
}

func TestResynchronizeKeepsHandAddedRules(t *testing.T) {
	store := rowstore.NewMemoryStore()
	if err := store.Insert(rowstore.TableActionRules, rowstore.Row{
		"action": "save", "usergroup": "admins", "userrole": "", "level": 0, "origin": "manual",
	}); err != nil {
		t.Fatal(err)
	}

	e := NewEngine(hclog.NewNullLogger(), store, syncTestRepo())
	if err := e.Resynchronize(); err != nil {
		t.Fatal(err)
	}

	manual, err := store.Select(rowstore.TableActionRules, rowstore.Predicate{"origin": "manual"})
	if err != nil {
		t.Fatal(err)
	}
	if len(manual) != 1 {
		t.Errorf("manual rule rows = %d, want 1 (resync replaces only predefined rows)", len(manual))
	}
}

func TestResynchronizeAtomicOnFailure(t *testing.T) {
	store := rowstore.NewMemoryStore()
	e := NewEngine(hclog.NewNullLogger(), store, syncTestRepo())

	if err := e.Resynchronize(); err != nil {
		t.Fatal(err)
	}
	wantActions := store.Count(rowstore.TableActions)
	wantRules := store.Count(rowstore.TableActionRules)
	wantGroups := store.Count(rowstore.TableGroups)
	wantRoles := store.Count(rowstore.TableRoles)

	// The second resync inserts 2 action rows and 2 rule rows (group and
	// role already exist). Fail the last insert and verify nothing moved.
	store.FailInsert(4)
	err := e.Resynchronize()
	if err == nil {
		t.Fatal("Resynchronize() with injected failure should error")
	}
	if !errors.Is(err, ErrSyncFailed) {
		t.Errorf("error = %v, want ErrSyncFailed", err)
	}

	if store.Count(rowstore.TableActions) != wantActions ||
		store.Count(rowstore.TableActionRules) != wantRules ||
		store.Count(rowstore.TableGroups) != wantGroups ||
		store.Count(rowstore.TableRoles) != wantRoles {
		t.Error("tables changed despite aborted resynchronization")
	}
}
