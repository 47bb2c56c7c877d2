package identity_test

import (
	"context"

	"github.com/codecake/ecom-identity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserStore implements identity.UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Save(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserStore) GetByPublicID(ctx context.Context, publicID uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, publicID)
	if user := args.Get(0); user != nil {
		return user.(*identity.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if user := args.Get(0); user != nil {
		return user.(*identity.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserStore) UpdateAddress(ctx context.Context, publicID uuid.UUID, address identity.Address) error {
	args := m.Called(ctx, publicID, address)
	return args.Error(0)
}

// MockProfileService implements identity.ProfileService
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) UserProfile(ctx context.Context, subjectID string) (identity.Claims, error) {
	args := m.Called(ctx, subjectID)
	if claims := args.Get(0); claims != nil {
		return claims.(identity.Claims), args.Error(1)
	}
	return nil, args.Error(1)
}
