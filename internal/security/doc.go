// Package security decides whether an actor may run an action.
//
// Permission checks combine the requirement rows stored for the action with
// a chain of registered rules. Rows combine with OR: satisfying any one row
// grants the action. Within a row the rule chain runs in registration
// order; the first deny ends the row as denied, an allow sticks unless a
// later rule denies, and an abstaining rule changes nothing.
//
// Resynchronize rebuilds the stored action, group and role tables from the
// live catalog in a single transaction.
package security
