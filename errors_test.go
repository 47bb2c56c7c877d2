package identity_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/codecake/ecom-identity"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorPredicates(t *testing.T) {
	t.Run("missing field", func(t *testing.T) {
		err := identity.NewMissingField("email")
		assert.True(t, identity.IsMissingField(err))
		assert.True(t, identity.IsValidationError(err))
		assert.Equal(t, "email", err.Metadata["field"])
	})

	t.Run("length and range failures are validation errors", func(t *testing.T) {
		assert.True(t, identity.IsValidationError(identity.NewTooShort("name", 3)))
		assert.True(t, identity.IsValidationError(identity.NewTooLong("username", 100)))
		assert.True(t, identity.IsValidationError(identity.NewOutOfRange("price", 0.1)))
	})

	t.Run("unknown authentication", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, identity.ErrUnknownAuthentication.Category)
		assert.True(t, identity.HasTextCode(identity.ErrUnknownAuthentication, identity.TextCodeUnknownAuthentication))
	})

	t.Run("user not found matches the branch predicate", func(t *testing.T) {
		err := identity.NewUserNotFound("email", "nobody@example.com")
		assert.True(t, goerrors.IsNotFound(err))
		assert.True(t, identity.HasTextCode(err, identity.TextCodeUserNotFound))
		assert.Equal(t, "nobody@example.com", err.Metadata["email"])
	})

	t.Run("idp unavailable survives wrapping", func(t *testing.T) {
		cause := errors.New("dial tcp: connection refused")
		err := identity.WrapIdPUnavailable(cause, "profile fetch failed")
		assert.True(t, identity.IsIdPUnavailable(err))
		assert.False(t, identity.IsIdPUnavailable(cause))
	})

	t.Run("plain errors match no predicate", func(t *testing.T) {
		err := errors.New("boom")
		assert.False(t, identity.IsMissingField(err))
		assert.False(t, identity.IsValidationError(err))
		assert.False(t, identity.IsIdPUnavailable(err))
	})
}

func TestIsConflict(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "categorized conflict",
			err:      goerrors.New("email taken", goerrors.CategoryConflict),
			expected: true,
		},
		{
			name:     "sqlite driver text",
			err:      fmt.Errorf("constraint failed: UNIQUE constraint failed: ecommerce_user.email"),
			expected: true,
		},
		{
			name:     "postgres driver text",
			err:      fmt.Errorf(`ERROR: duplicate key value violates unique constraint "ecommerce_user_email_key"`),
			expected: true,
		},
		{
			name:     "unrelated failure",
			err:      errors.New("disk full"),
			expected: false,
		},
		{
			name:     "nil",
			expected: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, identity.IsConflict(tc.err))
		})
	}
}
