package security

import (
	"fmt"

	"github.com/dhaslem/herald/internal/rowstore"
)

// originPredefined tags rule rows produced by resynchronization, so a later
// resync replaces them without touching hand-added rows.
const originPredefined = "predefined"

// Resynchronize rebuilds the action, group and role tables from the live
// catalog. Existing predefined rule rows and all action rows are replaced;
// curated action titles survive. The whole rebuild runs in one transaction;
// any failure rolls back and surfaces as ErrSyncFailed.
func (e *Engine) Resynchronize() error {
	prevTitles, err := e.storedTitles()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSyncFailed, err)
	}
	groups, err := e.storedNames(rowstore.TableGroups)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSyncFailed, err)
	}
	roles, err := e.storedNames(rowstore.TableRoles)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSyncFailed, err)
	}

	tx, err := e.store.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSyncFailed, err)
	}

	if err := e.rebuild(tx, prevTitles, groups, roles); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%w: %v", ErrSyncFailed, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrSyncFailed, err)
	}

	e.logger.Info("security tables resynchronized", "events", len(e.repo.Events()))
	return nil
}

func (e *Engine) rebuild(tx rowstore.Tx, prevTitles map[string]string, groups, roles map[string]bool) error {
	if err := tx.Remove(rowstore.TableActionRules, rowstore.Predicate{"origin": originPredefined}); err != nil {
		return err
	}
	if err := tx.Remove(rowstore.TableActions, nil); err != nil {
		return err
	}

	for _, event := range e.repo.Events() {
		m, ok := e.repo.Method(event)
		if !ok {
			continue
		}

		title := m.Title
		if title == "" {
			title = event
		}
		// A previously curated title (anything other than the bare action
		// id) wins over the declared one.
		if prev, had := prevTitles[event]; had && prev != event {
			title = prev
		}

		if err := tx.Insert(rowstore.TableActions, rowstore.Row{"id": event, "title": title}); err != nil {
			return err
		}

		for _, req := range m.Requirements {
			if req.Group != "" && !groups[req.Group] {
				if err := tx.Insert(rowstore.TableGroups, rowstore.Row{"name": req.Group}); err != nil {
					return err
				}
				groups[req.Group] = true
			}
			if req.Role != "" && !roles[req.Role] {
				if err := tx.Insert(rowstore.TableRoles, rowstore.Row{"name": req.Role}); err != nil {
					return err
				}
				roles[req.Role] = true
			}
			row := rowstore.Row{
				"action":    event,
				"usergroup": req.Group,
				"userrole":  req.Role,
				"level":     req.Level,
				"origin":    originPredefined,
			}
			if err := tx.Insert(rowstore.TableActionRules, row); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) storedTitles() (map[string]string, error) {
	rows, err := e.store.Select(rowstore.TableActions, nil)
	if err != nil {
		return nil, err
	}
	titles := make(map[string]string, len(rows))
	for _, r := range rows {
		titles[r.String("id")] = r.String("title")
	}
	return titles, nil
}

func (e *Engine) storedNames(table string) (map[string]bool, error) {
	rows, err := e.store.Select(table, nil)
	if err != nil {
		return nil, err
	}
	names := make(map[string]bool, len(rows))
	for _, r := range rows {
		names[r.String("name")] = true
	}
	return names, nil
}
