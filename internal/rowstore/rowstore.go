package rowstore

import "errors"

// Security tables consumed by the authorization engine.
const (
	TableActionRules = "securityactionrules"
	TableActions     = "securityaction"
	TableGroups      = "securitygroup"
	TableRoles       = "securityrole"
)

// ErrUnknownTable is returned for a table outside the security set.
var ErrUnknownTable = errors.New("unknown table")

// Row is one stored record, keyed by column name.
type Row map[string]interface{}

// Predicate selects rows whose columns equal every given value. An empty
// predicate matches all rows.
type Predicate map[string]interface{}

// Store is the row-store collaborator: equality selects, inserts, removes,
// and whole-operation transactions.
type Store interface {
	Select(table string, pred Predicate) ([]Row, error)
	Insert(table string, row Row) error
	Remove(table string, pred Predicate) error
	Begin() (Tx, error)
}

// Tx is an open transaction. Writes stage until Commit; Rollback discards
// them. A Tx is single-use.
type Tx interface {
	Insert(table string, row Row) error
	Remove(table string, pred Predicate) error
	Commit() error
	Rollback() error
}

// String reads a column as a string, tolerating the driver handing back
// bytes. Missing or mistyped columns yield "".
func (r Row) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

// Int reads a column as an int across the numeric types drivers produce.
// Missing or mistyped columns yield 0.
func (r Row) Int(key string) int {
	switch v := r[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
