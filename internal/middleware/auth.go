package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-redis/redis/v8"

	"github.com/dayledger/backend/internal/identity"
	"github.com/dayledger/backend/internal/models"
	"github.com/dayledger/backend/internal/token"
)

type contextKey string

const identityKey contextKey = "identity"

var (
	provider    identity.Provider
	redisClient *redis.Client
)

// InitAuthMiddleware wires the identity platform client and the optional
// Redis client used for the logout blacklist.
func InitAuthMiddleware(p identity.Provider, rdb *redis.Client) {
	provider = p
	redisClient = rdb
}

// Authenticate resolves the bearer token into a live identity. Role and
// tenant come from the identity platform, not the token payload, so role
// changes take effect without re-issuing tokens.
func Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := BearerToken(r)
		if err != nil {
			errorJSON(w, err.Error(), http.StatusUnauthorized)
			return
		}

		claims, err := token.Verify(raw)
		if err != nil {
			errorJSON(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		if redisClient != nil {
			key := fmt.Sprintf("blacklist:%s", raw)
			if exists, err := redisClient.Exists(r.Context(), key).Result(); err == nil && exists > 0 {
				errorJSON(w, "Invalid token", http.StatusUnauthorized)
				return
			}
		}

		user, err := provider.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			log.Printf("[AUTH] Identity resolution failed for %s: %v", claims.UserID, err)
			errorJSON(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, user.Identity())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole gates a route to the given roles, and optionally to a single
// tenant. It must run after Authenticate.
func RequireRole(roles []models.UserRole, tenants ...models.Tenant) func(http.Handler) http.Handler {
	allowed := make(map[models.UserRole]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := IdentityFrom(r.Context())
			if id == nil {
				errorJSON(w, "Access token required", http.StatusUnauthorized)
				return
			}

			if !allowed[id.Role] {
				errorJSON(w, fmt.Sprintf("Access denied. Required roles: %s. Your role: %s",
					joinRoles(roles), id.Role), http.StatusForbidden)
				return
			}

			if len(tenants) > 0 && !id.IsAdmin() {
				match := false
				for _, t := range tenants {
					if id.Tenant == t {
						match = true
						break
					}
				}
				if !match {
					errorJSON(w, "Access denied for your tenant", http.StatusForbidden)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// TenantScope is the single tenant-visibility policy applied by every list
// and aggregate query: admins see across tenants, everyone else sees only
// their own.
func TenantScope(id *models.Identity) (models.Tenant, bool) {
	if id == nil || id.IsAdmin() {
		return "", false
	}
	return id.Tenant, true
}

// IdentityFrom returns the identity attached by Authenticate, or nil.
func IdentityFrom(ctx context.Context) *models.Identity {
	id, _ := ctx.Value(identityKey).(*models.Identity)
	return id
}

// WithIdentity attaches an identity to the context; used by handler tests.
func WithIdentity(ctx context.Context, id *models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// BearerToken extracts the raw token from the Authorization header.
func BearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("Access token required")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fmt.Errorf("Invalid authorization header format")
	}
	return parts[1], nil
}

func joinRoles(roles []models.UserRole) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

func errorJSON(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
