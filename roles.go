package identity

import "sort"

// Role is one of the closed set of roles the application understands.
type Role string

const (
	// RoleAdmin grants access to back-office operations.
	RoleAdmin Role = "ADMIN"
	// RoleUser is the standard authenticated shopper role.
	RoleUser Role = "USER"
	// RoleAnonymous represents an unauthenticated visitor.
	RoleAnonymous Role = "ANONYMOUS"
	// RoleUnknown is the degraded value for labels the application does not
	// recognize. Unrecognized is never an error.
	RoleUnknown Role = "UNKNOWN"
)

// rolePrefix is the conventional prefix on token authority labels.
const rolePrefix = "ROLE_"

var rolesByKey = map[string]Role{
	RoleAdmin.Key():     RoleAdmin,
	RoleUser.Key():      RoleUser,
	RoleAnonymous.Key(): RoleAnonymous,
	RoleUnknown.Key():   RoleUnknown,
}

// Key returns the prefixed label under which the role travels in tokens,
// e.g. "ROLE_ADMIN".
func (r Role) Key() string {
	return rolePrefix + string(r)
}

// RoleFrom resolves a raw authority label into a Role. A blank label is the
// only failure; any unrecognized label resolves to RoleUnknown. Matching is
// case-sensitive and expects the ROLE_ prefix.
func RoleFrom(raw string) (Role, error) {
	if raw == "" {
		return RoleUnknown, NewMissingField("role")
	}

	if role, ok := rolesByKey[raw]; ok {
		return role, nil
	}
	return RoleUnknown, nil
}

// Roles is an immutable set of Role values.
type Roles struct {
	roles map[Role]struct{}
}

// EmptyRoles is the canonical empty set.
var EmptyRoles = NewRoles(nil)

// NewRoles builds a role set. A nil slice collapses to the empty set.
func NewRoles(roles []Role) Roles {
	set := make(map[Role]struct{}, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return Roles{roles: set}
}

// HasAny reports whether the set contains at least one role.
func (r Roles) HasAny() bool {
	return len(r.roles) > 0
}

// Has reports whether the set contains the given role.
func (r Roles) Has(role Role) bool {
	_, ok := r.roles[role]
	return ok
}

// Size returns the number of roles in the set.
func (r Roles) Size() int {
	return len(r.roles)
}

// Slice returns the roles in stable order.
func (r Roles) Slice() []Role {
	out := make([]Role, 0, len(r.roles))
	for role := range r.roles {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
