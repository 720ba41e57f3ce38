package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-redis/redismock/v8"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/dayledger/backend/internal/identity"
	"github.com/dayledger/backend/internal/models"
	"github.com/dayledger/backend/internal/token"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) CreateUser(ctx context.Context, email, password string, role models.UserRole, tenant models.Tenant) (*identity.User, error) {
	args := m.Called(ctx, email, password, role, tenant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *mockProvider) SignInWithPassword(ctx context.Context, email, password string) (*identity.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *mockProvider) GetUserByID(ctx context.Context, id string) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *mockProvider) ListUsers(ctx context.Context) ([]identity.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.User), args.Error(1)
}

func okHandler(seen **models.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate(t *testing.T) {
	viper.Set("jwt.secret_key", "test-secret")
	viper.Set("jwt.expiry_hours", 24)

	t.Run("missing header", func(t *testing.T) {
		InitAuthMiddleware(&mockProvider{}, nil)

		var seen *models.Identity
		r := httptest.NewRequest("GET", "/protected", nil)
		w := httptest.NewRecorder()

		Authenticate(okHandler(&seen)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Nil(t, seen)
	})

	t.Run("malformed header", func(t *testing.T) {
		InitAuthMiddleware(&mockProvider{}, nil)

		var seen *models.Identity
		r := httptest.NewRequest("GET", "/protected", nil)
		r.Header.Set("Authorization", "Token abc")
		w := httptest.NewRecorder()

		Authenticate(okHandler(&seen)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		InitAuthMiddleware(&mockProvider{}, nil)

		var seen *models.Identity
		r := httptest.NewRequest("GET", "/protected", nil)
		r.Header.Set("Authorization", "Bearer not-a-token")
		w := httptest.NewRecorder()

		Authenticate(okHandler(&seen)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token resolves a live identity", func(t *testing.T) {
		provider := &mockProvider{}
		provider.On("GetUserByID", mock.Anything, "user-1").Return(&identity.User{
			ID:     "user-1",
			Email:  "user@example.com",
			Role:   models.RoleAccountant,
			Tenant: models.TenantDearcare,
		}, nil)
		InitAuthMiddleware(provider, nil)

		signed, err := token.Sign("user-1", "user@example.com", models.RoleAccountant, models.TenantDearcare)
		assert.NoError(t, err)

		var seen *models.Identity
		r := httptest.NewRequest("GET", "/protected", nil)
		r.Header.Set("Authorization", "Bearer "+signed)
		w := httptest.NewRecorder()

		Authenticate(okHandler(&seen)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotNil(t, seen)
		assert.Equal(t, "user-1", seen.ID)
		assert.Equal(t, models.TenantDearcare, seen.Tenant)
		provider.AssertExpectations(t)
	})

	t.Run("role changes take effect without re-issuing the token", func(t *testing.T) {
		// Token says accountant; the platform has since demoted the user.
		provider := &mockProvider{}
		provider.On("GetUserByID", mock.Anything, "user-1").Return(&identity.User{
			ID:     "user-1",
			Email:  "user@example.com",
			Role:   models.RoleStaff,
			Tenant: models.TenantDearcare,
		}, nil)
		InitAuthMiddleware(provider, nil)

		signed, err := token.Sign("user-1", "user@example.com", models.RoleAccountant, models.TenantDearcare)
		assert.NoError(t, err)

		var seen *models.Identity
		r := httptest.NewRequest("GET", "/protected", nil)
		r.Header.Set("Authorization", "Bearer "+signed)
		w := httptest.NewRecorder()

		Authenticate(okHandler(&seen)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, models.RoleStaff, seen.Role)
	})

	t.Run("blacklisted token is rejected", func(t *testing.T) {
		provider := &mockProvider{}
		rdb, redisMock := redismock.NewClientMock()
		InitAuthMiddleware(provider, rdb)

		signed, err := token.Sign("user-1", "user@example.com", models.RoleStaff, models.TenantDearcare)
		assert.NoError(t, err)

		redisMock.ExpectExists("blacklist:" + signed).SetVal(1)

		var seen *models.Identity
		r := httptest.NewRequest("GET", "/protected", nil)
		r.Header.Set("Authorization", "Bearer "+signed)
		w := httptest.NewRecorder()

		Authenticate(okHandler(&seen)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Nil(t, seen)
		assert.NoError(t, redisMock.ExpectationsWereMet())
		provider.AssertNotCalled(t, "GetUserByID", mock.Anything, mock.Anything)
	})
}

func TestRequireRole(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	serve := func(id *models.Identity, gate func(http.Handler) http.Handler) *httptest.ResponseRecorder {
		r := httptest.NewRequest("GET", "/admin", nil)
		if id != nil {
			r = r.WithContext(WithIdentity(r.Context(), id))
		}
		w := httptest.NewRecorder()
		gate(handler).ServeHTTP(w, r)
		return w
	}

	t.Run("no identity", func(t *testing.T) {
		w := serve(nil, RequireRole([]models.UserRole{models.RoleAdmin}))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("role allowed", func(t *testing.T) {
		w := serve(&models.Identity{Role: models.RoleAdmin}, RequireRole([]models.UserRole{models.RoleAdmin}))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("role denied", func(t *testing.T) {
		w := serve(&models.Identity{Role: models.RoleStaff, Tenant: models.TenantDearcare},
			RequireRole([]models.UserRole{models.RoleAdmin}))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("tenant mismatch denied", func(t *testing.T) {
		w := serve(&models.Identity{Role: models.RoleStaff, Tenant: models.TenantDearcare},
			RequireRole([]models.UserRole{models.RoleStaff}, models.TenantTataNursing))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin bypasses tenant restriction", func(t *testing.T) {
		w := serve(&models.Identity{Role: models.RoleAdmin},
			RequireRole([]models.UserRole{models.RoleAdmin, models.RoleStaff}, models.TenantTataNursing))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestTenantScope(t *testing.T) {
	t.Run("admin is unscoped", func(t *testing.T) {
		_, scoped := TenantScope(&models.Identity{Role: models.RoleAdmin})
		assert.False(t, scoped)
	})

	t.Run("staff scoped to own tenant", func(t *testing.T) {
		tenant, scoped := TenantScope(&models.Identity{Role: models.RoleStaff, Tenant: models.TenantDearcareAcademy})
		assert.True(t, scoped)
		assert.Equal(t, models.TenantDearcareAcademy, tenant)
	})

	t.Run("nil identity is unscoped", func(t *testing.T) {
		_, scoped := TenantScope(nil)
		assert.False(t, scoped)
	})
}
