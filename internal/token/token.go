package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"

	"github.com/dayledger/backend/internal/models"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the payload carried by every issued token.
type Claims struct {
	UserID string          `json:"user_id"`
	Email  string          `json:"email"`
	Role   models.UserRole `json:"role,omitempty"`
	Tenant models.Tenant   `json:"tenant,omitempty"`
	jwt.RegisteredClaims
}

// Sign issues an HS256 token for the given claims with the configured expiry.
func Sign(userID, email string, role models.UserRole, tenant models.Tenant) (string, error) {
	expiry := time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour
	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		Tenant: tenant,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(viper.GetString("jwt.secret_key")))
}

// Verify parses and validates a token, rejecting unexpected signing methods.
func Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(viper.GetString("jwt.secret_key")), nil
	})
	if err != nil || !t.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Expiry reports the configured token lifetime, used when blacklisting.
func Expiry() time.Duration {
	return time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour
}
