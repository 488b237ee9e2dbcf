package rowstore

import (
	"testing"
)

func TestMemoryStoreInsertSelect(t *testing.T) {
	m := NewMemoryStore()

	if err := m.Insert(TableActions, Row{"id": "save", "title": "Save"}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := m.Insert(TableActions, Row{"id": "delete", "title": "Delete"}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	rows, err := m.Select(TableActions, Predicate{"id": "save"})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if len(rows) != 1 || rows[0].String("title") != "Save" {
		t.Errorf("Select() = %v, want one row titled Save", rows)
	}

	all, err := m.Select(TableActions, nil)
	if err != nil {
		t.Fatalf("Select(nil) error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Select(nil) = %d rows, want 2", len(all))
	}
}

func TestMemoryStoreRemove(t *testing.T) {
	m := NewMemoryStore()

	for _, id := range []string{"a", "b", "c"} {
		if err := m.Insert(TableActions, Row{"id": id}); err != nil {
			t.Fatal(err)
		}
	}

	if err := m.Remove(TableActions, Predicate{"id": "b"}); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if m.Count(TableActions) != 2 {
		t.Errorf("Count() = %d after remove, want 2", m.Count(TableActions))
	}

	if err := m.Remove(TableActions, nil); err != nil {
		t.Fatalf("Remove(nil) error = %v", err)
	}
	if m.Count(TableActions) != 0 {
		t.Errorf("Count() = %d after remove-all, want 0", m.Count(TableActions))
	}
}

func TestMemoryStoreUnknownTable(t *testing.T) {
	m := NewMemoryStore()

	if _, err := m.Select("nosuchtable", nil); err == nil {
		t.Error("Select() on unknown table should error")
	}
	if err := m.Insert("nosuchtable", Row{"x": 1}); err == nil {
		t.Error("Insert() on unknown table should error")
	}
}

func TestMemoryStoreTxCommit(t *testing.T) {
	m := NewMemoryStore()
	if err := m.Insert(TableGroups, Row{"name": "staff"}); err != nil {
		t.Fatal(err)
	}

	tx, err := m.Begin()
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.Remove(TableGroups, nil); err != nil {
		t.Fatal(err)
	}
	if err := tx.Insert(TableGroups, Row{"name": "admins"}); err != nil {
		t.Fatal(err)
	}

	// Nothing applies before commit.
	if m.Count(TableGroups) != 1 {
		t.Errorf("Count() = %d before commit, want 1", m.Count(TableGroups))
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	rows, err := m.Select(TableGroups, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].String("name") != "admins" {
		t.Errorf("after commit rows = %v, want [admins]", rows)
	}
}

func TestMemoryStoreTxRollback(t *testing.T) {
	m := NewMemoryStore()

	tx, err := m.Begin()
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.Insert(TableRoles, Row{"name": "editor"}); err != nil {
		t.Fatal(err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}

	if m.Count(TableRoles) != 0 {
		t.Errorf("Count() = %d after rollback, want 0", m.Count(TableRoles))
	}
}

func TestMemoryStoreFailInsert(t *testing.T) {
	m := NewMemoryStore()
	m.FailInsert(2)

	if err := m.Insert(TableActions, Row{"id": "one"}); err != nil {
		t.Fatalf("first Insert() error = %v", err)
	}
	if err := m.Insert(TableActions, Row{"id": "two"}); err == nil {
		t.Fatal("second Insert() should fail under injection")
	}
	if err := m.Insert(TableActions, Row{"id": "three"}); err != nil {
		t.Fatalf("third Insert() error = %v", err)
	}
	if m.Count(TableActions) != 2 {
		t.Errorf("Count() = %d, want 2", m.Count(TableActions))
	}
}

func TestRowAccessors(t *testing.T) {
	r := Row{"title": []byte("Save"), "level": int64(50), "ratio": float64(3)}

	if got := r.String("title"); got != "Save" {
		t.Errorf("String(title) = %q, want Save", got)
	}
	if got := r.Int("level"); got != 50 {
		t.Errorf("Int(level) = %d, want 50", got)
	}
	if got := r.Int("ratio"); got != 3 {
		t.Errorf("Int(ratio) = %d, want 3", got)
	}
	if got := r.String("missing"); got != "" {
		t.Errorf("String(missing) = %q, want empty", got)
	}
	if got := r.Int("missing"); got != 0 {
		t.Errorf("Int(missing) = %d, want 0", got)
	}
}
