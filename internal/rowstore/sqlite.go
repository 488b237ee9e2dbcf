package rowstore

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	// SQLite driver, registered as "sqlite3".
	_ "github.com/mattn/go-sqlite3"
)

// schema creates the security tables on first open.
const schema = `
CREATE TABLE IF NOT EXISTS securityaction (
	id    TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS securitygroup (
	name TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS securityrole (
	name TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS securityactionrules (
	action    TEXT NOT NULL,
	usergroup TEXT NOT NULL DEFAULT '',
	userrole  TEXT NOT NULL DEFAULT '',
	level     INTEGER NOT NULL DEFAULT 0,
	origin    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_actionrules_action ON securityactionrules(action);
`

// tableColumns whitelists column names per table. Identifiers cannot be
// bound as query parameters, so anything outside this map is rejected
// before it reaches SQL text.
var tableColumns = map[string]map[string]bool{
	TableActions:     {"id": true, "title": true},
	TableGroups:      {"name": true},
	TableRoles:       {"name": true},
	TableActionRules: {"action": true, "usergroup": true, "userrole": true, "level": true, "origin": true},
}

// SQLiteStore is the Store implementation over a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the security database at path and
// ensures the schema exists.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open row store: %w", err)
	}
	// SQLite handles one writer; a single connection avoids lock churn.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create security tables: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Select(table string, pred Predicate) ([]Row, error) {
	where, args, err := buildWhere(table, pred)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query("SELECT * FROM "+table+where, args...)
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", table, err)
	}

	var out []Row
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("select from %s: %w", table, err)
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[c] = string(b)
			} else {
				row[c] = vals[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select from %s: %w", table, err)
	}
	return out, nil
}

func (s *SQLiteStore) Insert(table string, row Row) error {
	return execInsert(s.db, table, row)
}

func (s *SQLiteStore) Remove(table string, pred Predicate) error {
	return execRemove(s.db, table, pred)
}

func (s *SQLiteStore) Begin() (Tx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &sqliteTx{tx: tx}, nil
}

type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) Insert(table string, row Row) error {
	return execInsert(t.tx, table, row)
}

func (t *sqliteTx) Remove(table string, pred Predicate) error {
	return execRemove(t.tx, table, pred)
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// execer covers *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func execInsert(e execer, table string, row Row) error {
	cols, err := checkColumns(table, map[string]interface{}(row))
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return fmt.Errorf("insert into %s: empty row", table)
	}

	args := make([]interface{}, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		args[i] = row[c]
		marks[i] = "?"
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(marks, ", "))
	if _, err := e.Exec(q, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

func execRemove(e execer, table string, pred Predicate) error {
	where, args, err := buildWhere(table, pred)
	if err != nil {
		return err
	}
	if _, err := e.Exec("DELETE FROM "+table+where, args...); err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return nil
}

func buildWhere(table string, pred Predicate) (string, []interface{}, error) {
	cols, err := checkColumns(table, map[string]interface{}(pred))
	if err != nil {
		return "", nil, err
	}
	if len(cols) == 0 {
		return "", nil, nil
	}

	clauses := make([]string, len(cols))
	args := make([]interface{}, len(cols))
	for i, c := range cols {
		clauses[i] = c + " = ?"
		args[i] = pred[c]
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

// checkColumns validates the table and every referenced column, returning
// the column names in a stable order.
func checkColumns(table string, vals map[string]interface{}) ([]string, error) {
	allowed, ok := tableColumns[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	cols := make([]string, 0, len(vals))
	for c := range vals {
		if !allowed[c] {
			return nil, fmt.Errorf("unknown column %q in table %s", c, table)
		}
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols, nil
}
