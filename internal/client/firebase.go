package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Firebase Auth REST endpoints.
const (
	DefaultIdentityToolkitURL = "https://identitytoolkit.googleapis.com/v1"
	DefaultSecureTokenURL     = "https://securetoken.googleapis.com/v1"
)

// ErrNotSignedIn is returned when a refresh is attempted without credentials.
var ErrNotSignedIn = errors.New("not signed in")

// Credentials are the tokens issued to a signed-in user.
type Credentials struct {
	UID          string    `yaml:"uid"`
	Email        string    `yaml:"email"`
	IDToken      string    `yaml:"id_token"`
	RefreshToken string    `yaml:"refresh_token"`
	ExpiresAt    time.Time `yaml:"expires_at"`
}

// Expired reports whether the ID token has expired at now.
func (c *Credentials) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// AuthError is a rejection from the Firebase Auth REST API, such as
// INVALID_PASSWORD or TOKEN_EXPIRED.
type AuthError struct {
	StatusCode int
	Reason     string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("firebase auth: %s (status %d)", e.Reason, e.StatusCode)
}

// Authenticator signs users in with email and password and refreshes their
// ID tokens.
type Authenticator struct {
	apiKey         string
	identityURL    string
	secureTokenURL string
	http           *http.Client
	now            func() time.Time
}

// AuthenticatorConfig configures an Authenticator. Empty URLs use the
// public Google endpoints.
type AuthenticatorConfig struct {
	APIKey         string
	IdentityURL    string
	SecureTokenURL string
	HTTPClient     *http.Client
}

// NewAuthenticator creates an Authenticator for the web API key of a project.
func NewAuthenticator(cfg AuthenticatorConfig) *Authenticator {
	if cfg.IdentityURL == "" {
		cfg.IdentityURL = DefaultIdentityToolkitURL
	}
	if cfg.SecureTokenURL == "" {
		cfg.SecureTokenURL = DefaultSecureTokenURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Authenticator{
		apiKey:         cfg.APIKey,
		identityURL:    strings.TrimSuffix(cfg.IdentityURL, "/"),
		secureTokenURL: strings.TrimSuffix(cfg.SecureTokenURL, "/"),
		http:           cfg.HTTPClient,
		now:            time.Now,
	}
}

type signInResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

// SignIn exchanges email and password for credentials.
func (a *Authenticator) SignIn(ctx context.Context, email, password string) (*Credentials, error) {
	payload, err := json.Marshal(map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return nil, fmt.Errorf("encode sign-in request: %w", err)
	}

	endpoint := a.identityURL + "/accounts:signInWithPassword?key=" + url.QueryEscape(a.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build sign-in request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out signInResponse
	if err := a.send(req, &out); err != nil {
		return nil, err
	}

	return &Credentials{
		UID:          out.LocalID,
		Email:        out.Email,
		IDToken:      out.IDToken,
		RefreshToken: out.RefreshToken,
		ExpiresAt:    a.expiry(out.ExpiresIn),
	}, nil
}

type refreshResponse struct {
	UserID       string `json:"user_id"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
}

// Refresh mints a fresh ID token from creds' refresh token. The returned
// credentials keep creds' email.
func (a *Authenticator) Refresh(ctx context.Context, creds *Credentials) (*Credentials, error) {
	if creds == nil || creds.RefreshToken == "" {
		return nil, ErrNotSignedIn
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {creds.RefreshToken},
	}
	endpoint := a.secureTokenURL + "/token?key=" + url.QueryEscape(a.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out refreshResponse
	if err := a.send(req, &out); err != nil {
		return nil, err
	}

	refreshed := &Credentials{
		UID:          out.UserID,
		Email:        creds.Email,
		IDToken:      out.IDToken,
		RefreshToken: out.RefreshToken,
		ExpiresAt:    a.expiry(out.ExpiresIn),
	}
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = creds.RefreshToken
	}
	return refreshed, nil
}

func (a *Authenticator) send(req *http.Request, out any) error {
	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("firebase auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		reason := http.StatusText(resp.StatusCode)
		if json.Unmarshal(data, &body) == nil && body.Error.Message != "" {
			reason = body.Error.Message
		}
		return &AuthError{StatusCode: resp.StatusCode, Reason: reason}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode firebase auth response: %w", err)
	}
	return nil
}

// expiry converts the provider's expires-in seconds string into a deadline.
// Firebase ID tokens live for an hour.
func (a *Authenticator) expiry(expiresIn string) time.Time {
	seconds, err := strconv.Atoi(expiresIn)
	if err != nil || seconds <= 0 {
		seconds = 3600
	}
	return a.now().Add(time.Duration(seconds) * time.Second).UTC()
}
