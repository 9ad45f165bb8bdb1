package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Principal is the verified identity extracted from a bearer token.
type Principal struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

var (
	// ErrUnauthorized is returned when the identity provider rejects a token.
	ErrUnauthorized = errors.New("token rejected by identity provider")
	// ErrNotConfigured is returned when no identity base URL was set.
	ErrNotConfigured = errors.New("identity provider not configured")
)

// Client verifies bearer tokens against an external identity provider over
// HTTP. Verification is a single upstream call; no local token parsing.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient constructs an identity client. An empty base URL is allowed and
// surfaces ErrNotConfigured on first use.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// VerifyToken asks the identity provider who the token belongs to.
func (c *Client) VerifyToken(ctx context.Context, token string) (Principal, error) {
	var zero Principal
	if c.baseURL == "" {
		return zero, ErrNotConfigured
	}
	if strings.TrimSpace(token) == "" {
		return zero, ErrUnauthorized
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/verify", nil)
	if err != nil {
		return zero, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return zero, fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return zero, ErrUnauthorized
	default:
		return zero, fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return zero, fmt.Errorf("read verify response: %w", err)
	}
	var principal Principal
	if err := json.Unmarshal(raw, &principal); err != nil {
		return zero, fmt.Errorf("decode verify response: %w", err)
	}
	if principal.UserID == "" {
		return zero, ErrUnauthorized
	}
	return principal, nil
}
