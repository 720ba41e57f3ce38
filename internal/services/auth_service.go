package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-redis/redis/v8"

	"github.com/dayledger/backend/internal/identity"
	"github.com/dayledger/backend/internal/middleware"
	"github.com/dayledger/backend/internal/models"
	"github.com/dayledger/backend/internal/token"
)

type AuthService struct {
	provider  identity.Provider
	redis     *redis.Client
	validator *ValidationHelper
}

// RegisterRequest represents the admin-initiated registration payload
// @Description Registration request structure
type RegisterRequest struct {
	Email           string          `json:"email" validate:"required,email" example:"user@example.com"`
	Password        string          `json:"password" validate:"required,min=6" example:"password123"`
	ConfirmPassword string          `json:"confirmPassword" validate:"required" example:"password123"`
	Role            models.UserRole `json:"role" validate:"required" example:"accountant"`
	Tenant          models.Tenant   `json:"tenant,omitempty" example:"Dearcare"`
}

// LoginRequest represents the login payload
// @Description Login request structure
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"user@example.com"`
	Password string `json:"password" validate:"required,min=6" example:"password123"`
}

// AuthResponse carries the signed token and the user it identifies
// @Description Authentication response structure
type AuthResponse struct {
	Message string           `json:"message"`
	Token   string           `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	User    *models.Identity `json:"user"`
}

func NewAuthService(provider identity.Provider, redisClient *redis.Client) *AuthService {
	return &AuthService{
		provider:  provider,
		redis:     redisClient,
		validator: NewValidationHelper(),
	}
}

func (s *AuthService) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("request body must only contain a single JSON object")
	}
	return nil
}

// Register creates a user with role and tenant metadata
// @Summary Register a new user
// @Description Create a user at the identity platform with role and tenant (admin only)
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration request"
// @Success 201 {object} AuthResponse "Registration successful"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 403 {object} ErrorResponse "Admin role required"
// @Failure 409 {object} ErrorResponse "Email already registered"
// @Router /auth/register [post]
func (s *AuthService) Register(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Registration attempt from IP: %s", r.RemoteAddr)

	var req RegisterRequest
	if err := s.decode(w, r, &req); err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if req.Password != req.ConfirmPassword {
		SendErrorResponse(w, "Passwords do not match", http.StatusBadRequest, nil)
		return
	}
	if !req.Role.Valid() {
		SendErrorResponse(w, "role must be one of: admin, accountant, staff", http.StatusBadRequest, nil)
		return
	}
	// Tenant is optional only for admins, who see across tenants anyway.
	if req.Role != models.RoleAdmin {
		if req.Tenant == "" {
			SendErrorResponse(w, "tenant is required for non-admin users", http.StatusBadRequest, nil)
			return
		}
		if !req.Tenant.Valid() {
			SendErrorResponse(w, "tenant is not a recognized value", http.StatusBadRequest, nil)
			return
		}
	}

	user, err := s.provider.CreateUser(r.Context(), strings.ToLower(req.Email), req.Password, req.Role, req.Tenant)
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			SendErrorResponse(w, "Email already registered", http.StatusConflict, nil)
			return
		}
		log.Printf("[AUTH] User creation failed for %s: %v", req.Email, err)
		SendErrorResponse(w, "Failed to create user", http.StatusInternalServerError, nil)
		return
	}

	signed, err := token.Sign(user.ID, user.Email, user.Role, user.Tenant)
	if err != nil {
		log.Printf("[AUTH] Token generation failed for user %s: %v", user.ID, err)
		SendErrorResponse(w, "Failed to generate token", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[AUTH] User created successfully - ID: %s, Email: %s, Role: %s", user.ID, user.Email, user.Role)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(AuthResponse{
		Message: "User created successfully",
		Token:   signed,
		User:    user.Identity(),
	})
}

// Login authenticates by password against the identity platform
// @Summary Login user
// @Description Authenticate with email and password, returns a signed token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} AuthResponse "Login successful"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (s *AuthService) Login(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Login attempt from IP: %s", r.RemoteAddr)

	var req LoginRequest
	if err := s.decode(w, r, &req); err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	user, err := s.provider.SignInWithPassword(r.Context(), strings.ToLower(req.Email), req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			log.Printf("[AUTH] Invalid credentials for %s", req.Email)
			SendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
			return
		}
		log.Printf("[AUTH] Sign-in failed for %s: %v", req.Email, err)
		SendErrorResponse(w, "Authentication failed", http.StatusInternalServerError, nil)
		return
	}

	signed, err := token.Sign(user.ID, user.Email, user.Role, user.Tenant)
	if err != nil {
		log.Printf("[AUTH] Token generation failed for user %s: %v", user.ID, err)
		SendErrorResponse(w, "Failed to generate token", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[AUTH] Login successful for user %s", user.ID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AuthResponse{
		Message: "Login successful",
		Token:   signed,
		User:    user.Identity(),
	})
}

// CreateAdmin bootstraps the first admin account
// @Summary Create the first admin
// @Description One-time bootstrap; fails once any admin exists
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Admin credentials"
// @Success 201 {object} AuthResponse "Admin created"
// @Failure 409 {object} ErrorResponse "An admin already exists"
// @Router /auth/create-admin [post]
func (s *AuthService) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := s.decode(w, r, &req); err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	users, err := s.provider.ListUsers(r.Context())
	if err != nil {
		log.Printf("[AUTH] Admin bootstrap user listing failed: %v", err)
		SendErrorResponse(w, "Failed to create admin", http.StatusInternalServerError, nil)
		return
	}
	for i := range users {
		if users[i].Role == models.RoleAdmin {
			SendErrorResponse(w, "An admin account already exists", http.StatusConflict, nil)
			return
		}
	}

	user, err := s.provider.CreateUser(r.Context(), strings.ToLower(req.Email), req.Password, models.RoleAdmin, "")
	if err != nil {
		log.Printf("[AUTH] Admin creation failed: %v", err)
		SendErrorResponse(w, "Failed to create admin", http.StatusInternalServerError, nil)
		return
	}

	signed, err := token.Sign(user.ID, user.Email, user.Role, user.Tenant)
	if err != nil {
		SendErrorResponse(w, "Failed to generate token", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[AUTH] Bootstrap admin created: %s", user.Email)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(AuthResponse{
		Message: "Admin created successfully",
		Token:   signed,
		User:    user.Identity(),
	})
}

// Me echoes the identity resolved by the auth middleware
// @Summary Resolve caller identity
// @Tags auth
// @Produce json
// @Success 200 {object} models.Identity
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /auth/me [get]
func (s *AuthService) Me(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFrom(r.Context())
	if id == nil {
		SendErrorResponse(w, "Access token required", http.StatusUnauthorized, nil)
		return
	}
	SendData(w, http.StatusOK, "User info from token", id)
}

// Logout blacklists the presented token for its remaining lifetime
// @Summary Logout user
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string "Logout successful"
// @Router /auth/logout [post]
func (s *AuthService) Logout(w http.ResponseWriter, r *http.Request) {
	raw, err := middleware.BearerToken(r)
	if err == nil && s.redis != nil {
		key := fmt.Sprintf("blacklist:%s", raw)
		if err := s.redis.Set(r.Context(), key, "1", token.Expiry()).Err(); err != nil {
			log.Printf("[AUTH] Failed to blacklist token: %v", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Logout successful"})
}

// ListUsers lists platform users with their role and tenant metadata
// @Summary List users
// @Description List all users at the identity platform (admin only)
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]any "Users retrieved"
// @Failure 403 {object} ErrorResponse "Admin role required"
// @Router /auth/users [get]
func (s *AuthService) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.provider.ListUsers(r.Context())
	if err != nil {
		log.Printf("[AUTH] User listing failed: %v", err)
		SendErrorResponse(w, "Failed to fetch users", http.StatusInternalServerError, nil)
		return
	}

	identities := make([]*models.Identity, 0, len(users))
	for i := range users {
		identities = append(identities, users[i].Identity())
	}
	SendData(w, http.StatusOK, "Users retrieved successfully", identities)
}
