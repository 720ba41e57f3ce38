package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/viper"

	"github.com/dayledger/backend/internal/models"
)

// Client talks to the managed platform's GoTrue-style auth API. Admin
// endpoints require the service-role key; the password grant uses the public
// anon key.
type Client struct {
	baseURL    string
	anonKey    string
	serviceKey string
	http       *http.Client
}

func NewClient() *Client {
	viper.SetDefault("identity.timeout_seconds", 10)

	return &Client{
		baseURL:    viper.GetString("identity.url"),
		anonKey:    viper.GetString("identity.anon_key"),
		serviceKey: viper.GetString("identity.service_key"),
		http: &http.Client{
			Timeout: time.Duration(viper.GetInt("identity.timeout_seconds")) * time.Second,
		},
	}
}

type platformUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (p *platformUser) toUser() *User {
	u := &User{
		ID:        p.ID,
		Email:     p.Email,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = p.CreatedAt
	}
	if role, ok := p.UserMetadata["role"].(string); ok {
		u.Role = models.UserRole(role)
	}
	if tenant, ok := p.UserMetadata["tenant"].(string); ok {
		u.Tenant = models.Tenant(tenant)
	}
	return u
}

func (c *Client) CreateUser(ctx context.Context, email, password string, role models.UserRole, tenant models.Tenant) (*User, error) {
	meta := map[string]any{"role": string(role)}
	if tenant != "" {
		meta["tenant"] = string(tenant)
	}
	body := map[string]any{
		"email":         email,
		"password":      password,
		"email_confirm": true,
		"user_metadata": meta,
	}

	var created platformUser
	status, err := c.do(ctx, http.MethodPost, "/admin/users", c.serviceKey, body, &created)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusUnprocessableEntity || status == http.StatusConflict:
		return nil, ErrEmailTaken
	case status >= 400:
		return nil, fmt.Errorf("identity platform rejected user creation: status %d", status)
	}
	return created.toUser(), nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*User, error) {
	body := map[string]any{"email": email, "password": password}

	var resp struct {
		AccessToken string       `json:"access_token"`
		User        platformUser `json:"user"`
	}
	status, err := c.do(ctx, http.MethodPost, "/token?grant_type=password", c.anonKey, body, &resp)
	if err != nil {
		return nil, err
	}
	if status == http.StatusBadRequest || status == http.StatusUnauthorized {
		return nil, ErrInvalidCredentials
	}
	if status >= 400 {
		return nil, fmt.Errorf("identity platform sign-in failed: status %d", status)
	}
	return resp.User.toUser(), nil
}

func (c *Client) GetUserByID(ctx context.Context, id string) (*User, error) {
	var u platformUser
	status, err := c.do(ctx, http.MethodGet, "/admin/users/"+url.PathEscape(id), c.serviceKey, nil, &u)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, ErrUserNotFound
	}
	if status >= 400 {
		return nil, fmt.Errorf("identity platform user lookup failed: status %d", status)
	}
	return u.toUser(), nil
}

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var resp struct {
		Users []platformUser `json:"users"`
	}
	status, err := c.do(ctx, http.MethodGet, "/admin/users", c.serviceKey, nil, &resp)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, fmt.Errorf("identity platform user listing failed: status %d", status)
	}

	users := make([]User, 0, len(resp.Users))
	for i := range resp.Users {
		users = append(users, *resp.Users[i].toUser())
	}
	return users, nil
}

func (c *Client) do(ctx context.Context, method, path, key string, body any, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("apikey", key)
	req.Header.Set("Authorization", "Bearer "+key)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("[IDENTITY] Request %s %s failed: %v", method, path, err)
		return 0, fmt.Errorf("identity platform unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 400 && out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("identity platform response decode failed: %w", err)
		}
	}
	return resp.StatusCode, nil
}
