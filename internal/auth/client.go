package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrInvalidToken means the provider rejected the bearer token.
var ErrInvalidToken = errors.New("invalid or expired token")

// Verifier resolves a bearer token to an identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// Client verifies tokens against the auth provider's current-user
// endpoint over HTTP.
type Client struct {
	http *resty.Client
}

// NewClient creates a verifier for the provider at baseURL. The provider
// is expected to expose GET /auth/v1/user returning the token's user as
// JSON, 401 for a bad token.
func NewClient(baseURL string, timeout time.Duration) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Client{http: client}
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Verify resolves the token to its user. A 401/403 from the provider maps
// to ErrInvalidToken; transport failures surface as-is so callers can tell
// a bad credential from a provider outage.
func (c *Client) Verify(ctx context.Context, token string) (Identity, error) {
	var user userResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&user).
		Get("/auth/v1/user")
	if err != nil {
		return Identity{}, fmt.Errorf("auth provider request: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		return Identity{}, ErrInvalidToken
	case resp.IsError():
		return Identity{}, fmt.Errorf("auth provider returned %d", resp.StatusCode())
	}

	if user.ID == "" {
		return Identity{}, ErrInvalidToken
	}

	return Identity{ID: user.ID, Email: user.Email}, nil
}
