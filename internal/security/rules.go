package security

import (
	"strings"

	"github.com/dhaslem/herald/internal/catalog"
	"github.com/dhaslem/herald/internal/rowstore"
)

// Verdict is a rule's judgment on one requirement row.
type Verdict int

const (
	// Abstain leaves the row's running result unchanged.
	Abstain Verdict = iota
	// Allow marks the row satisfied unless a later rule denies.
	Allow
	// Deny ends the row's evaluation immediately as denied.
	Deny
)

func (v Verdict) String() string {
	switch v {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return "abstain"
	}
}

// Rule judges one requirement row for one (profile, action, user) triple.
// Rules may consult the row store for additional context.
type Rule func(store rowstore.Store, req catalog.Requirement, profile, action, user string) Verdict

// Directory resolves user standing: privilege level, group membership and
// held roles. The composition root supplies a concrete implementation.
type Directory interface {
	UserLevel(user string) (int, error)
	UserInGroup(user, group string) (bool, error)
	UserHasRole(user, role string) (bool, error)
}

// DirectoryRule is the built-in rule: a requirement row is satisfied when
// the user meets every constraint the row declares (group, role, minimum
// level). Rows constraining an aspect the user fails yield Abstain, so a
// later row or rule can still grant. Directory lookup failures deny.
func DirectoryRule(dir Directory) Rule {
	return func(_ rowstore.Store, req catalog.Requirement, _, _, user string) Verdict {
		if req.Zero() {
			return Abstain
		}
		if req.Group != "" {
			ok, err := dir.UserInGroup(user, req.Group)
			if err != nil {
				return Deny
			}
			if !ok {
				return Abstain
			}
		}
		if req.Role != "" {
			ok, err := dir.UserHasRole(user, req.Role)
			if err != nil {
				return Deny
			}
			if !ok {
				return Abstain
			}
		}
		if req.Level > 0 {
			lvl, err := dir.UserLevel(user)
			if err != nil {
				return Deny
			}
			if lvl < req.Level {
				return Abstain
			}
		}
		return Allow
	}
}

// StaticDirectory is a fixed in-memory Directory, used by the CLI (actor
// standing from configuration) and by tests.
type StaticDirectory struct {
	Levels map[string]int
	Groups map[string][]string
	Roles  map[string][]string
}

var _ Directory = (*StaticDirectory)(nil)

func (d *StaticDirectory) UserLevel(user string) (int, error) {
	return d.Levels[strings.ToLower(user)], nil
}

func (d *StaticDirectory) UserInGroup(user, group string) (bool, error) {
	return containsFold(d.Groups[strings.ToLower(user)], group), nil
}

func (d *StaticDirectory) UserHasRole(user, role string) (bool, error) {
	return containsFold(d.Roles[strings.ToLower(user)], role), nil
}

func containsFold(list []string, want string) bool {
	for _, s := range list {
		if strings.EqualFold(s, want) {
			return true
		}
	}
	return false
}
