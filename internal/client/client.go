// Package client is the Go client for the reeltrack API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is where the API listens in local development.
const DefaultBaseURL = "http://localhost:5000"

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// User mirrors the API's user record.
type User struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username,omitempty"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// List mirrors the API's list record.
type List struct {
	ListID    string    `json:"listId"`
	OwnerID   string    `json:"ownerId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProtectedResult is the identity echoed by GET /api/protected.
type ProtectedResult struct {
	Message string `json:"message"`
	UID     string `json:"uid"`
	Email   string `json:"email"`
}

// DatabaseResult is the store probe returned by GET /test-db.
type DatabaseResult struct {
	Success bool `json:"success"`
	Data    struct {
		Items []User `json:"items"`
		Count int    `json:"count"`
	} `json:"data"`
}

// Client calls the reeltrack API, attaching the current token to every
// request.
type Client struct {
	baseURL string
	tokens  TokenSource
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a Client. tokens may be nil for anonymous use.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		tokens:  tokens,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetUser fetches a user by id.
func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateUser uses the legacy direct-create endpoint.
func (c *Client) CreateUser(ctx context.Context, username, email string) (*User, error) {
	body := map[string]string{"username": username, "email": email}
	var out User
	if err := c.do(ctx, http.MethodPost, "/users", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateList creates a list owned by the signed-in user.
func (c *Client) CreateList(ctx context.Context, name string) (*List, error) {
	body := map[string]string{"name": name}
	var out List
	if err := c.do(ctx, http.MethodPost, "/lists", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUserLists returns the lists owned by userID, which must be the
// signed-in user.
func (c *Client) GetUserLists(ctx context.Context, userID string) ([]List, error) {
	var out []List
	if err := c.do(ctx, http.MethodGet, "/lists/user/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TestDatabase probes the store through GET /test-db.
func (c *Client) TestDatabase(ctx context.Context) (*DatabaseResult, error) {
	var out DatabaseResult
	if err := c.do(ctx, http.MethodGet, "/test-db", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TestProtected checks the held token against GET /api/protected.
func (c *Client) TestProtected(ctx context.Context) (*ProtectedResult, error) {
	var out ProtectedResult
	if err := c.do(ctx, http.MethodGet, "/api/protected", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readAPIError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// readAPIError uses the body's error string when there is one.
func readAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("HTTP error! status: %d", resp.StatusCode),
	}

	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, &body) == nil {
		if body.Error != "" {
			apiErr.Message = body.Error
		}
		apiErr.Code = body.Code
	}
	return apiErr
}
