// Package rowstore is the row-level persistence boundary for the security
// tables. The authorization engine talks to it through the Store interface
// in terms of tables, rows and equality predicates; it never sees SQL.
//
// Two implementations exist: SQLite for real deployments and an in-memory
// store for tests.
package rowstore
