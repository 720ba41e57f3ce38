package services

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/dayledger/backend/internal/identity"
	"github.com/dayledger/backend/internal/models"
)

type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) CreateUser(ctx context.Context, email, password string, role models.UserRole, tenant models.Tenant) (*identity.User, error) {
	args := m.Called(ctx, email, password, role, tenant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockIdentityProvider) SignInWithPassword(ctx context.Context, email, password string) (*identity.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockIdentityProvider) GetUserByID(ctx context.Context, id string) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockIdentityProvider) ListUsers(ctx context.Context) ([]identity.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.User), args.Error(1)
}

type MockFileStore struct {
	mock.Mock
}

func (m *MockFileStore) Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	args := m.Called(ctx, filename, contentType, r)
	return args.String(0), args.Error(1)
}

type MockSalaryPayments struct {
	mock.Mock
}

func (m *MockSalaryPayments) MarkPaid(ctx context.Context, salaryID int64, receiptURL *string) error {
	args := m.Called(ctx, salaryID, receiptURL)
	return args.Error(0)
}
