// Package backend is the thin client for the Medicure backend's auth
// endpoints. The backend is an external collaborator; this package only
// encodes the request/response contract the client core depends on and
// never interprets the token beyond requiring its presence.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrMissingToken marks a nominally successful auth response that carried
// no token. The gate must never see such a grant as authenticated, so the
// whole response is rejected.
var ErrMissingToken = errors.New("backend: auth response missing token")

// DefaultTimeout bounds each backend request.
const DefaultTimeout = 10 * time.Second

// Credentials is the minimum an auth endpoint returns on success. Role,
// Name, and Email may be absent; the session then degrades to
// role-unknown and the resolver routes to the landing screen.
type Credentials struct {
	Token  string `json:"token"`
	Role   string `json:"role"`
	UserID string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// SignupRequest is the payload for account creation.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Client calls the backend auth API.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient returns a client for the given base URL. A non-positive
// timeout falls back to DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Login exchanges email/password for credentials.
func (c *Client) Login(ctx context.Context, email, password string) (*Credentials, error) {
	return c.auth(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

// Signup creates an account. Depending on backend policy the response may
// already carry a token or the account may require OTP verification
// first, in which case the returned credentials hold an empty token and
// an error is reported to the caller.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*Credentials, error) {
	return c.auth(ctx, "/auth/signup", req)
}

// VerifyOTP completes an OTP challenge and returns credentials.
func (c *Client) VerifyOTP(ctx context.Context, email, code string) (*Credentials, error) {
	return c.auth(ctx, "/auth/verify-otp", map[string]string{
		"email": email,
		"otp":   code,
	})
}

// Revoke terminates the identity-provider session for the token. Sign-out
// calls it best-effort: a failure is logged by the caller and never
// blocks local credential deletion.
func (c *Client) Revoke(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/revoke", nil)
	if err != nil {
		return fmt.Errorf("building revoke request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("revoking session: %s", c.errorFrom(resp))
	}
	return nil
}

// auth posts a JSON body and decodes credentials, enforcing the
// token-presence rule on 2xx responses.
func (c *Client) auth(ctx context.Context, path string, body any) (*Credentials, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s: %s", path, c.errorFrom(resp))
	}

	var creds Credentials
	if err := json.NewDecoder(resp.Body).Decode(&creds); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", path, err)
	}
	if creds.Token == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrMissingToken)
	}
	return &creds, nil
}

// errorFrom extracts a usable message from a non-2xx response.
func (c *Client) errorFrom(resp *http.Response) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Error != "" {
			return fmt.Sprintf("status %d: %s", resp.StatusCode, body.Error)
		}
		if body.Message != "" {
			return fmt.Sprintf("status %d: %s", resp.StatusCode, body.Message)
		}
	}
	return fmt.Sprintf("status %d", resp.StatusCode)
}
