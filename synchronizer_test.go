package identity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/codecake/ecom-identity"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func syncToken(lastSignedIn any) *jwt.Token {
	claims := jwt.MapClaims{
		"sub": "kp_abc123",
		"roles": []any{
			map[string]any{"id": "r1", "key": "ROLE_USER", "name": "User"},
		},
	}
	if lastSignedIn != nil {
		claims["last_signed_in"] = lastSignedIn
	}
	return &jwt.Token{Claims: claims}
}

func localUser(modified time.Time) *identity.User {
	lastSeen := modified.Add(-time.Hour)
	return &identity.User{
		ID:               7,
		PublicID:         uuid.New(),
		Email:            "alice@example.com",
		FirstName:        "Alicia",
		LastName:         "Smythe",
		ImageURL:         "https://img.example/old.png",
		LastSeen:         &lastSeen,
		Authorities:      []identity.Authority{{Name: "ROLE_USER"}},
		LastModifiedDate: &modified,
	}
}

func TestSyncWithIdPBootstrapsUnknownIdentity(t *testing.T) {
	store := new(MockUserStore)
	profiles := new(MockProfileService)

	profiles.On("UserProfile", mock.Anything, "kp_abc123").Return(fullProfile(), nil)
	store.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, identity.NewUserNotFound("email", "alice@example.com"))
	store.On("Save", mock.Anything, mock.AnythingOfType("*identity.User")).Return(nil)

	sync := identity.NewSynchronizer(store, profiles)
	result, err := sync.SyncWithIdP(context.Background(), syncToken(float64(1700000000)), false)
	require.NoError(t, err)

	assert.Equal(t, identity.OutcomeCreated, result.Outcome)
	assert.Equal(t, "alice@example.com", result.User.Email)
	assert.NotEqual(t, uuid.Nil, result.User.PublicID)
	store.AssertNumberOfCalls(t, "Save", 1)
}

func TestSyncWithIdPFreshnessGate(t *testing.T) {
	localModified := time.Unix(1700000000, 0).UTC()

	tests := []struct {
		name         string
		lastSignedIn any
		force        bool
		expected     identity.SyncOutcome
	}{
		{
			name:         "newer IdP activity triggers the update",
			lastSignedIn: float64(1700000001),
			expected:     identity.OutcomeUpdated,
		},
		{
			name:         "older IdP activity is a no-op",
			lastSignedIn: float64(1699999999),
			expected:     identity.OutcomeSkipped,
		},
		{
			name:         "equal timestamps are a no-op",
			lastSignedIn: float64(1700000000),
			expected:     identity.OutcomeSkipped,
		},
		{
			name:         "force overrides a current record",
			lastSignedIn: float64(1699999999),
			force:        true,
			expected:     identity.OutcomeUpdated,
		},
		{
			name:     "no freshness claim skips even when forced",
			force:    true,
			expected: identity.OutcomeSkipped,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := new(MockUserStore)
			profiles := new(MockProfileService)

			profiles.On("UserProfile", mock.Anything, "kp_abc123").Return(fullProfile(), nil)
			store.On("GetByEmail", mock.Anything, "alice@example.com").Return(localUser(localModified), nil)
			store.On("Save", mock.Anything, mock.AnythingOfType("*identity.User")).Return(nil)

			sync := identity.NewSynchronizer(store, profiles)
			result, err := sync.SyncWithIdP(context.Background(), syncToken(tc.lastSignedIn), tc.force)
			require.NoError(t, err)

			assert.Equal(t, tc.expected, result.Outcome)
			if tc.expected == identity.OutcomeSkipped {
				store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestSyncWithIdPUpdateFieldIsolation(t *testing.T) {
	store := new(MockUserStore)
	profiles := new(MockProfileService)

	localModified := time.Unix(1690000000, 0).UTC()
	existing := localUser(localModified)
	existing.Address = &identity.Address{Street: "1 Main St", City: "Lyon", ZipCode: "69000", Country: "FR"}
	keepPublicID := existing.PublicID
	keepLastSeen := *existing.LastSeen

	profiles.On("UserProfile", mock.Anything, "kp_abc123").Return(fullProfile(), nil)
	store.On("GetByEmail", mock.Anything, "alice@example.com").Return(existing, nil)
	store.On("Save", mock.Anything, existing).Return(nil)

	sync := identity.NewSynchronizer(store, profiles)
	result, err := sync.SyncWithIdP(context.Background(), syncToken(float64(1700000000)), false)
	require.NoError(t, err)
	require.Equal(t, identity.OutcomeUpdated, result.Outcome)

	assert.Equal(t, "Alice", existing.FirstName)
	assert.Equal(t, "Smith", existing.LastName)
	assert.Equal(t, "https://img.example/alice.png", existing.ImageURL)

	assert.Equal(t, int64(7), existing.ID)
	assert.Equal(t, keepPublicID, existing.PublicID)
	require.NotNil(t, existing.LastSeen)
	assert.Equal(t, keepLastSeen, *existing.LastSeen)
	require.NotNil(t, existing.Address)
	assert.Equal(t, "Lyon", existing.Address.City)
}

func TestSyncWithIdPMergeKeyIsEmailNotSubject(t *testing.T) {
	store := new(MockUserStore)
	profiles := new(MockProfileService)

	modified := time.Unix(1700000050, 0).UTC()
	existing := localUser(modified)

	// Same email under a brand-new subject id still resolves to the
	// existing record instead of creating a second one.
	profiles.On("UserProfile", mock.Anything, "kp_rotated").Return(fullProfile(), nil)
	store.On("GetByEmail", mock.Anything, "alice@example.com").Return(existing, nil)

	token := syncToken(float64(1700000000))
	token.Claims.(jwt.MapClaims)["sub"] = "kp_rotated"

	sync := identity.NewSynchronizer(store, profiles)
	result, err := sync.SyncWithIdP(context.Background(), token, false)
	require.NoError(t, err)

	assert.Same(t, existing, result.User)
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSyncWithIdPRepeatedCallIsIdempotent(t *testing.T) {
	store := new(MockUserStore)
	profiles := new(MockProfileService)

	modified := time.Unix(1700000050, 0).UTC()
	profiles.On("UserProfile", mock.Anything, "kp_abc123").Return(fullProfile(), nil)
	store.On("GetByEmail", mock.Anything, "alice@example.com").Return(localUser(modified), nil)

	sync := identity.NewSynchronizer(store, profiles)
	for i := 0; i < 3; i++ {
		result, err := sync.SyncWithIdP(context.Background(), syncToken(float64(1700000000)), false)
		require.NoError(t, err)
		assert.Equal(t, identity.OutcomeSkipped, result.Outcome)
	}
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSyncWithIdPMalformedRolesFailBeforeAnyCall(t *testing.T) {
	store := new(MockUserStore)
	profiles := new(MockProfileService)

	token := &jwt.Token{Claims: jwt.MapClaims{
		"sub":   "kp_abc123",
		"roles": "ROLE_ADMIN",
	}}

	sync := identity.NewSynchronizer(store, profiles)
	_, err := sync.SyncWithIdP(context.Background(), token, false)
	require.Error(t, err)
	assert.True(t, identity.IsMalformedRoleClaim(err))

	profiles.AssertNotCalled(t, "UserProfile", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

func TestSyncWithIdPMissingSubject(t *testing.T) {
	store := new(MockUserStore)
	profiles := new(MockProfileService)

	token := &jwt.Token{Claims: jwt.MapClaims{}}

	sync := identity.NewSynchronizer(store, profiles)
	_, err := sync.SyncWithIdP(context.Background(), token, false)
	require.Error(t, err)
	assert.True(t, identity.IsMissingField(err))
	profiles.AssertNotCalled(t, "UserProfile", mock.Anything, mock.Anything)
}

func TestSyncWithIdPUnreachableIdP(t *testing.T) {
	store := new(MockUserStore)
	profiles := new(MockProfileService)

	profiles.On("UserProfile", mock.Anything, "kp_abc123").Return(nil, errors.New("connection refused"))

	sync := identity.NewSynchronizer(store, profiles)
	_, err := sync.SyncWithIdP(context.Background(), syncToken(float64(1700000000)), false)
	require.Error(t, err)
	assert.True(t, identity.IsIdPUnavailable(err))

	store.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSyncWithIdPCreateRaceConvergesAsUpdate(t *testing.T) {
	store := new(MockUserStore)
	profiles := new(MockProfileService)

	modified := time.Unix(1690000000, 0).UTC()
	winner := localUser(modified)
	conflict := goerrors.New("duplicate email", goerrors.CategoryConflict)

	profiles.On("UserProfile", mock.Anything, "kp_abc123").Return(fullProfile(), nil)
	store.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, identity.NewUserNotFound("email", "alice@example.com")).Once()
	store.On("Save", mock.Anything, mock.AnythingOfType("*identity.User")).Return(conflict).Once()
	store.On("GetByEmail", mock.Anything, "alice@example.com").Return(winner, nil).Once()
	store.On("Save", mock.Anything, winner).Return(nil).Once()

	sync := identity.NewSynchronizer(store, profiles)
	result, err := sync.SyncWithIdP(context.Background(), syncToken(float64(1700000000)), false)
	require.NoError(t, err)

	assert.Equal(t, identity.OutcomeUpdated, result.Outcome)
	assert.Same(t, winner, result.User)
	assert.Equal(t, "Alice", winner.FirstName)
	store.AssertExpectations(t)
}

func TestSyncWithIdPAgainstBackingStore(t *testing.T) {
	store := setupUserStore(t)
	profiles := new(MockProfileService)
	profiles.On("UserProfile", mock.Anything, "kp_abc123").Return(fullProfile(), nil)

	sync := identity.NewSynchronizer(store, profiles)

	// First sight of the subject: the store miss must route into the
	// create branch, not surface as an error.
	result, err := sync.SyncWithIdP(context.Background(), syncToken(float64(1700000000)), false)
	require.NoError(t, err)
	require.Equal(t, identity.OutcomeCreated, result.Outcome)
	assert.NotEqual(t, uuid.Nil, result.User.PublicID)

	persisted, err := store.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, result.User.PublicID, persisted.PublicID)

	// The record is now newer than the freshness claim, so a repeat sync
	// settles on the same record without writing.
	again, err := sync.SyncWithIdP(context.Background(), syncToken(float64(1700000000)), false)
	require.NoError(t, err)
	assert.Equal(t, identity.OutcomeSkipped, again.Outcome)
	assert.Equal(t, persisted.PublicID, again.User.PublicID)
}

func TestUpdateAddress(t *testing.T) {
	t.Run("valid payload reaches the store", func(t *testing.T) {
		store := new(MockUserStore)
		publicID := uuid.New()

		store.On("UpdateAddress", mock.Anything, publicID, identity.Address{
			Street:  "1 Main St",
			City:    "Lyon",
			ZipCode: "69000",
			Country: "FR",
		}).Return(nil)

		sync := identity.NewSynchronizer(store, new(MockProfileService))
		err := sync.UpdateAddress(context.Background(), identity.UpdateAddressRequest{
			PublicID: publicID,
			Street:   "1 Main St",
			City:     "Lyon",
			ZipCode:  "69000",
			Country:  "FR",
		})
		require.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("incomplete payload never reaches the store", func(t *testing.T) {
		store := new(MockUserStore)

		sync := identity.NewSynchronizer(store, new(MockProfileService))
		err := sync.UpdateAddress(context.Background(), identity.UpdateAddressRequest{
			PublicID: uuid.New(),
			Street:   "1 Main St",
		})
		require.Error(t, err)
		assert.True(t, identity.IsValidationError(err))
		store.AssertNotCalled(t, "UpdateAddress", mock.Anything, mock.Anything, mock.Anything)
	})
}
