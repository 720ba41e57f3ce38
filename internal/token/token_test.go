package token

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"github.com/dayledger/backend/internal/models"
)

func TestSignAndVerify(t *testing.T) {
	viper.Set("jwt.secret_key", "test-secret")
	viper.Set("jwt.expiry_hours", 24)

	t.Run("round trip preserves claims", func(t *testing.T) {
		signed, err := Sign("user-1", "user@example.com", models.RoleAccountant, models.TenantDearcare)
		assert.NoError(t, err)
		assert.NotEmpty(t, signed)

		claims, err := Verify(signed)
		assert.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
		assert.Equal(t, "user@example.com", claims.Email)
		assert.Equal(t, models.RoleAccountant, claims.Role)
		assert.Equal(t, models.TenantDearcare, claims.Tenant)
	})

	t.Run("tampered token is rejected", func(t *testing.T) {
		signed, err := Sign("user-1", "user@example.com", models.RoleStaff, models.TenantPersonal)
		assert.NoError(t, err)

		_, err = Verify(signed + "x")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("token signed with a different secret is rejected", func(t *testing.T) {
		viper.Set("jwt.secret_key", "other-secret")
		signed, err := Sign("user-1", "user@example.com", models.RoleStaff, models.TenantPersonal)
		assert.NoError(t, err)

		viper.Set("jwt.secret_key", "test-secret")
		_, err = Verify(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage input is rejected", func(t *testing.T) {
		_, err := Verify("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestExpiry(t *testing.T) {
	viper.Set("jwt.expiry_hours", 12)
	assert.Equal(t, 12*time.Hour, Expiry())
}
