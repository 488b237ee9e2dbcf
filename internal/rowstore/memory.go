package rowstore

import (
	"fmt"
	"sync"
)

// MemoryStore is an in-memory Store for tests. Its transactions stage
// writes until Commit, and an insert failure can be injected to exercise
// rollback paths.
type MemoryStore struct {
	mu     sync.Mutex
	tables map[string][]Row

	insertCount int
	failInsert  int // 1-based insert ordinal to fail; 0 disables
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store with all security tables.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables: map[string][]Row{
			TableActionRules: nil,
			TableActions:     nil,
			TableGroups:      nil,
			TableRoles:       nil,
		},
	}
}

// FailInsert arranges for the nth insert from now (1-based, counted across
// the store and its transactions) to fail. Zero disables injection.
func (m *MemoryStore) FailInsert(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertCount = 0
	m.failInsert = n
}

// Count returns the number of rows in a table.
func (m *MemoryStore) Count(table string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tables[table])
}

func (m *MemoryStore) Select(table string, pred Predicate) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows, ok := m.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	var out []Row
	for _, r := range rows {
		if matches(r, pred) {
			out = append(out, cloneRow(r))
		}
	}
	return out, nil
}

func (m *MemoryStore) Insert(table string, row Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(table, row)
}

func (m *MemoryStore) Remove(table string, pred Predicate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(table, pred)
}

func (m *MemoryStore) Begin() (Tx, error) {
	return &memoryTx{store: m}, nil
}

func (m *MemoryStore) insertLocked(table string, row Row) error {
	if _, ok := m.tables[table]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	m.insertCount++
	if m.failInsert > 0 && m.insertCount == m.failInsert {
		return fmt.Errorf("injected insert failure on %s", table)
	}
	m.tables[table] = append(m.tables[table], cloneRow(row))
	return nil
}

func (m *MemoryStore) removeLocked(table string, pred Predicate) error {
	rows, ok := m.tables[table]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	kept := rows[:0]
	for _, r := range rows {
		if !matches(r, pred) {
			kept = append(kept, r)
		}
	}
	m.tables[table] = kept
	return nil
}

// memoryTx stages operations and applies them atomically on Commit.
// Injected failures fire at staging time, like a statement error would.
type memoryTx struct {
	store *MemoryStore
	ops   []func() error
	done  bool
	err   error
}

func (t *memoryTx) Insert(table string, row Row) error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if _, ok := t.store.tables[table]; !ok {
		t.err = fmt.Errorf("%w: %s", ErrUnknownTable, table)
		return t.err
	}
	t.store.insertCount++
	if t.store.failInsert > 0 && t.store.insertCount == t.store.failInsert {
		t.err = fmt.Errorf("injected insert failure on %s", table)
		return t.err
	}

	staged := cloneRow(row)
	t.ops = append(t.ops, func() error {
		t.store.tables[table] = append(t.store.tables[table], staged)
		return nil
	})
	return nil
}

func (t *memoryTx) Remove(table string, pred Predicate) error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}
	t.ops = append(t.ops, func() error {
		return t.store.removeLocked(table, pred)
	})
	return nil
}

func (t *memoryTx) Commit() error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}
	t.done = true
	if t.err != nil {
		return t.err
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, op := range t.ops {
		if err := op(); err != nil {
			return err
		}
	}
	return nil
}

func (t *memoryTx) Rollback() error {
	t.done = true
	t.ops = nil
	return nil
}

func matches(r Row, pred Predicate) bool {
	for k, want := range pred {
		if r[k] != want {
			return false
		}
	}
	return true
}

func cloneRow(r Row) Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
