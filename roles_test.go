package identity_test

import (
	"testing"

	"github.com/codecake/ecom-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleFrom(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected identity.Role
	}{
		{
			name:     "admin label resolves",
			raw:      "ROLE_ADMIN",
			expected: identity.RoleAdmin,
		},
		{
			name:     "user label resolves",
			raw:      "ROLE_USER",
			expected: identity.RoleUser,
		},
		{
			name:     "anonymous label resolves",
			raw:      "ROLE_ANONYMOUS",
			expected: identity.RoleAnonymous,
		},
		{
			name:     "unrecognized label degrades to unknown",
			raw:      "ROLE_SUPERUSER",
			expected: identity.RoleUnknown,
		},
		{
			name:     "unprefixed label degrades to unknown",
			raw:      "ADMIN",
			expected: identity.RoleUnknown,
		},
		{
			name:     "lowercase label degrades to unknown",
			raw:      "role_admin",
			expected: identity.RoleUnknown,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			role, err := identity.RoleFrom(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, role)
		})
	}
}

func TestRoleFromBlankFails(t *testing.T) {
	_, err := identity.RoleFrom("")
	require.Error(t, err)
	assert.True(t, identity.IsMissingField(err))
}

func TestRoleKey(t *testing.T) {
	assert.Equal(t, "ROLE_ADMIN", identity.RoleAdmin.Key())
	assert.Equal(t, "ROLE_UNKNOWN", identity.RoleUnknown.Key())
}

func TestRolesSet(t *testing.T) {
	t.Run("nil collapses to the empty set", func(t *testing.T) {
		roles := identity.NewRoles(nil)

		assert.False(t, roles.HasAny())
		assert.Equal(t, 0, roles.Size())
		assert.Empty(t, roles.Slice())
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		roles := identity.NewRoles([]identity.Role{
			identity.RoleAdmin,
			identity.RoleAdmin,
			identity.RoleUser,
		})

		assert.Equal(t, 2, roles.Size())
		assert.True(t, roles.Has(identity.RoleAdmin))
		assert.True(t, roles.Has(identity.RoleUser))
		assert.False(t, roles.Has(identity.RoleAnonymous))
	})

	t.Run("slice is stable", func(t *testing.T) {
		roles := identity.NewRoles([]identity.Role{identity.RoleUser, identity.RoleAdmin})

		assert.Equal(t, []identity.Role{identity.RoleAdmin, identity.RoleUser}, roles.Slice())
	})
}
