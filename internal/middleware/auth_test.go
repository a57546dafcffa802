package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/reeltrack/reeltrack/internal/auth"
	"github.com/reeltrack/reeltrack/internal/handler/dto"
	"github.com/reeltrack/reeltrack/internal/identity"
	"github.com/reeltrack/reeltrack/internal/metrics"
	"github.com/reeltrack/reeltrack/internal/model"
)

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

type stubVerifier struct {
	mu     sync.Mutex
	calls  int
	claims map[string]*model.Claims
	errs   map[string]error
}

func (s *stubVerifier) Verify(_ context.Context, raw string) (*model.Claims, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if err, ok := s.errs[raw]; ok {
		return nil, err
	}
	if c, ok := s.claims[raw]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: unknown token", identity.ErrInvalidCredential)
}

type memClaimsCache struct {
	mu      sync.Mutex
	entries map[string]*model.Claims
	getErr  error
	setErr  error
}

func newMemClaimsCache() *memClaimsCache {
	return &memClaimsCache{entries: map[string]*model.Claims{}}
}

func (c *memClaimsCache) GetClaims(_ context.Context, token string) (*model.Claims, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	claims, ok := c.entries[token]
	if !ok {
		return nil, errors.New("miss")
	}
	return claims, nil
}

func (c *memClaimsCache) SetClaims(_ context.Context, token string, claims *model.Claims) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[token] = claims
	return nil
}

func newTestVerifier() *stubVerifier {
	return &stubVerifier{
		claims: map[string]*model.Claims{
			"good-token": {Subject: "uid-123", Email: "ada@example.com", ExpiresAt: testNow.Add(time.Hour)},
		},
		errs: map[string]error{
			"expired-token": fmt.Errorf("%w: token has expired", identity.ErrExpiredCredential),
			"bad-signature": fmt.Errorf("%w: crypto/rsa: verification error", identity.ErrVerificationFailed),
			"certs-down":    errors.New("dial tcp: connection refused"),
		},
	}
}

// echoSubject answers 200 with the uid found in the context.
func echoSubject(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustClaimsFromContext(r.Context())
	_, _ = io.WriteString(w, claims.Subject)
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		setHeader  bool
		wantStatus int
		wantCode   string
		wantError  string
	}{
		{
			name:       "no header",
			wantStatus: http.StatusUnauthorized,
			wantCode:   dto.CodeNoCredential,
			wantError:  "Unauthorized: No token provided",
		},
		{
			name:       "basic scheme",
			header:     "Basic dXNlcjpwYXNz",
			setHeader:  true,
			wantStatus: http.StatusUnauthorized,
			wantCode:   dto.CodeNoCredential,
			wantError:  "Unauthorized: No token provided",
		},
		{
			name:       "lowercase bearer",
			header:     "bearer good-token",
			setHeader:  true,
			wantStatus: http.StatusUnauthorized,
			wantCode:   dto.CodeNoCredential,
			wantError:  "Unauthorized: No token provided",
		},
		{
			name:       "bearer without token",
			header:     "Bearer ",
			setHeader:  true,
			wantStatus: http.StatusUnauthorized,
			wantCode:   dto.CodeMalformedCredential,
			wantError:  "Unauthorized: Invalid token format",
		},
		{
			name:       "bearer with only spaces",
			header:     "Bearer    ",
			setHeader:  true,
			wantStatus: http.StatusUnauthorized,
			wantCode:   dto.CodeMalformedCredential,
			wantError:  "Unauthorized: Invalid token format",
		},
		{
			name:       "invalid token",
			header:     "Bearer garbage",
			setHeader:  true,
			wantStatus: http.StatusUnauthorized,
			wantCode:   dto.CodeInvalidCredential,
			wantError:  "Unauthorized: Invalid token",
		},
		{
			name:       "expired token",
			header:     "Bearer expired-token",
			setHeader:  true,
			wantStatus: http.StatusForbidden,
			wantCode:   dto.CodeCredentialExpired,
			wantError:  "Forbidden: Token expired",
		},
		{
			name:       "bad signature",
			header:     "Bearer bad-signature",
			setHeader:  true,
			wantStatus: http.StatusUnauthorized,
			wantCode:   dto.CodeVerificationFailed,
			wantError:  "Unauthorized: Token verification failed",
		},
		{
			name:       "unclassified verifier error",
			header:     "Bearer certs-down",
			setHeader:  true,
			wantStatus: http.StatusUnauthorized,
			wantCode:   dto.CodeVerificationFailed,
			wantError:  "Unauthorized: Token verification failed",
		},
		{
			name:       "valid token",
			header:     "Bearer good-token",
			setHeader:  true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "valid token with surrounding spaces",
			header:     "Bearer   good-token  ",
			setHeader:  true,
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := metrics.NewInMemory()
			handler := Auth(AuthConfig{
				Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
				Verifier: newTestVerifier(),
				Metrics:  recorder,
				Now:      func() time.Time { return testNow },
			})(http.HandlerFunc(echoSubject))

			req := httptest.NewRequest(http.MethodGet, "/api/protected", nil)
			if tt.setHeader {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}

			snap := recorder.Snapshot()
			if tt.wantStatus == http.StatusOK {
				if rec.Body.String() != "uid-123" {
					t.Errorf("body = %q, want uid-123", rec.Body.String())
				}
				if snap.AuthSuccesses != 1 {
					t.Errorf("AuthSuccesses = %d, want 1", snap.AuthSuccesses)
				}
				return
			}

			var body dto.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
			if body.Error != tt.wantError {
				t.Errorf("error = %q, want %q", body.Error, tt.wantError)
			}
			if snap.AuthFailures[tt.wantCode] != 1 {
				t.Errorf("AuthFailures[%s] = %d, want 1", tt.wantCode, snap.AuthFailures[tt.wantCode])
			}
		})
	}
}

func TestAuth_ProviderErrorNotForwarded(t *testing.T) {
	handler := Auth(AuthConfig{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Verifier: newTestVerifier(),
	})(http.HandlerFunc(echoSubject))

	req := httptest.NewRequest(http.MethodGet, "/api/protected", nil)
	req.Header.Set("Authorization", "Bearer bad-signature")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Body.String(); strings.Contains(got, "crypto/rsa") {
		t.Errorf("provider error leaked to client: %s", got)
	}
}

func TestAuth_ClaimsCache(t *testing.T) {
	verifier := newTestVerifier()
	claimsCache := newMemClaimsCache()
	recorder := metrics.NewInMemory()

	handler := Auth(AuthConfig{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Verifier: verifier,
		Cache:    claimsCache,
		Metrics:  recorder,
		Now:      func() time.Time { return testNow },
	})(http.HandlerFunc(echoSubject))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/protected", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}

	if verifier.calls != 1 {
		t.Errorf("verifier called %d times, want 1", verifier.calls)
	}
	snap := recorder.Snapshot()
	if snap.ClaimsCacheMisses != 1 || snap.ClaimsCacheHits != 2 {
		t.Errorf("cache hits/misses = %d/%d, want 2/1", snap.ClaimsCacheHits, snap.ClaimsCacheMisses)
	}
	if snap.VerifyDurationCount != 1 {
		t.Errorf("VerifyDurationCount = %d, want 1", snap.VerifyDurationCount)
	}
}

func TestAuth_ExpiredCacheEntryIsReverified(t *testing.T) {
	verifier := newTestVerifier()
	claimsCache := newMemClaimsCache()
	claimsCache.entries["expired-token"] = &model.Claims{Subject: "uid-123", ExpiresAt: testNow.Add(-time.Second)}

	handler := Auth(AuthConfig{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Verifier: verifier,
		Cache:    claimsCache,
		Now:      func() time.Time { return testNow },
	})(http.HandlerFunc(echoSubject))

	req := httptest.NewRequest(http.MethodGet, "/api/protected", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if verifier.calls != 1 {
		t.Errorf("verifier called %d times, want 1", verifier.calls)
	}
}

func TestAuth_CacheErrorsFallThrough(t *testing.T) {
	claimsCache := newMemClaimsCache()
	claimsCache.getErr = errors.New("redis: connection refused")
	claimsCache.setErr = errors.New("redis: connection refused")

	handler := Auth(AuthConfig{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Verifier: newTestVerifier(),
		Cache:    claimsCache,
	})(http.HandlerFunc(echoSubject))

	req := httptest.NewRequest(http.MethodGet, "/api/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestAuth_AnnotatesRequestLog(t *testing.T) {
	ctx, info := withRequestInfo(context.Background())

	handler := Auth(AuthConfig{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Verifier: newTestVerifier(),
	})(http.HandlerFunc(echoSubject))

	req := httptest.NewRequest(http.MethodGet, "/api/protected", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer good-token")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if info.subject != "uid-123" {
		t.Errorf("annotated subject = %q, want uid-123", info.subject)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{fmt.Errorf("wrap: %w", identity.ErrExpiredCredential), http.StatusForbidden, dto.CodeCredentialExpired},
		{fmt.Errorf("wrap: %w", identity.ErrInvalidCredential), http.StatusUnauthorized, dto.CodeInvalidCredential},
		{fmt.Errorf("wrap: %w", identity.ErrVerificationFailed), http.StatusUnauthorized, dto.CodeVerificationFailed},
		{context.DeadlineExceeded, http.StatusUnauthorized, dto.CodeVerificationFailed},
	}

	for _, tt := range tests {
		status, code, _ := classify(tt.err)
		if status != tt.wantStatus || code != tt.wantCode {
			t.Errorf("classify(%v) = %d %s, want %d %s", tt.err, status, code, tt.wantStatus, tt.wantCode)
		}
	}
}
