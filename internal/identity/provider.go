package identity

import (
	"context"
	"errors"
	"time"

	"github.com/dayledger/backend/internal/models"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
)

// User is the record held by the external identity platform. Role and tenant
// live in the platform's per-user metadata; the application never stores a
// copy beyond what is embedded in an issued token.
type User struct {
	ID        string
	Email     string
	Role      models.UserRole
	Tenant    models.Tenant
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Provider is the identity platform contract consumed by the auth service and
// the authorization middleware.
type Provider interface {
	CreateUser(ctx context.Context, email, password string, role models.UserRole, tenant models.Tenant) (*User, error)
	SignInWithPassword(ctx context.Context, email, password string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

func (u *User) Identity() *models.Identity {
	return &models.Identity{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		Tenant:    u.Tenant,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
