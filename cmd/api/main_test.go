package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/reeltrack/reeltrack/internal/config"
	"github.com/reeltrack/reeltrack/internal/handler/dto"
	"github.com/reeltrack/reeltrack/internal/identity"
	"github.com/reeltrack/reeltrack/internal/metrics"
	"github.com/reeltrack/reeltrack/internal/repository/memory"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return setupRouter(dependencies{
		cfg: &config.Config{
			AppEnv:             "development",
			StorageBackend:     config.StorageMemory,
			AuthMode:           config.AuthModeDev,
			CORSAllowedOrigins: "http://localhost:5173",
			MaxRequestBodySize: 1 << 20,
		},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		store:    memory.NewStore(),
		verifier: identity.NewDevVerifier(),
		metrics:  metrics.NewInMemory(),
	})
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Protected(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{name: "valid credential", token: "dev:uid-123:ada@example.com", wantStatus: http.StatusOK},
		{name: "no credential", wantStatus: http.StatusUnauthorized},
		{name: "expired credential", token: identity.DevExpiredToken, wantStatus: http.StatusForbidden},
		{name: "invalid credential", token: "not-a-dev-token", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, r, http.MethodGet, "/api/protected", tt.token, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var body dto.ProtectedResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.UID != "uid-123" || body.Email != "ada@example.com" {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestRouter_ListsFlow(t *testing.T) {
	r := newTestRouter(t)
	const alice = "dev:alice"

	rec := do(t, r, http.MethodPost, "/lists", alice, `{"name":"Favorites","ownerId":"mallory"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d (%s)", rec.Code, rec.Body.String())
	}
	var created dto.ListResponse
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.OwnerID != "alice" {
		t.Errorf("ownerId = %q, want alice", created.OwnerID)
	}

	rec = do(t, r, http.MethodGet, "/lists/user/alice", alice, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var lists []dto.ListResponse
	if err := json.NewDecoder(rec.Body).Decode(&lists); err != nil {
		t.Fatalf("decode lists: %v", err)
	}
	if len(lists) != 1 || lists[0].ListID != created.ListID {
		t.Errorf("lists = %+v", lists)
	}

	if rec := do(t, r, http.MethodGet, "/lists/user/mallory", alice, ""); rec.Code != http.StatusForbidden {
		t.Errorf("cross-user read: status = %d, want 403", rec.Code)
	}
	if rec := do(t, r, http.MethodPost, "/lists", "", `{"name":"x"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous create: status = %d, want 401", rec.Code)
	}

	// The first authenticated write provisioned the user under the subject id.
	rec = do(t, r, http.MethodGet, "/users/alice", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get provisioned user: status = %d", rec.Code)
	}
}

func TestRouter_LegacyUsers(t *testing.T) {
	r := newTestRouter(t)

	if rec := do(t, r, http.MethodPost, "/users", "", `{"username":"","email":"a@b.c"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("empty username: status = %d, want 400", rec.Code)
	}

	rec := do(t, r, http.MethodPost, "/users", "", `{"username":"ada","email":"ada@example.com"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	var user dto.UserResponse
	if err := json.NewDecoder(rec.Body).Decode(&user); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if rec := do(t, r, http.MethodGet, "/users/"+user.UserID, "", ""); rec.Code != http.StatusOK {
		t.Errorf("get status = %d, want 200", rec.Code)
	}

	rec = do(t, r, http.MethodGet, "/test-db", "", "")
	var scan dto.TestDBResponse
	if err := json.NewDecoder(rec.Body).Decode(&scan); err != nil {
		t.Fatalf("decode test-db: %v", err)
	}
	if !scan.Success || scan.Data.Count != 1 {
		t.Errorf("test-db = %+v", scan)
	}
}

func TestRouter_PublicEndpoints(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{http.MethodGet, "/", http.StatusOK, "Backend running with Firebase Authentication"},
		{http.MethodGet, "/healthz", http.StatusOK, `"status":"ok"`},
		{http.MethodGet, "/readyz", http.StatusOK, `"memory":"ok"`},
		{http.MethodGet, "/metrics", http.StatusOK, "reeltrack_auth_success_total"},
		{http.MethodGet, "/debug-routes", http.StatusOK, `"path":"/lists/user/{userId}"`},
		{http.MethodGet, "/nope", http.StatusNotFound, dto.CodeNotFound},
		{http.MethodDelete, "/users/abc", http.StatusMethodNotAllowed, dto.CodeMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := do(t, r, tt.method, tt.path, "", "")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body %q does not contain %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/lists", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestRedactURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"postgres://reeltrack:s3cret@db:5432/reeltrack", "postgres://reeltrack@db:5432/reeltrack"},
		{"redis://:s3cret@cache:6379/0", "redis://redacted@cache:6379/0"},
		{"redis://cache:6379", "redis://cache:6379"},
	}
	for _, tt := range tests {
		if got := redactURL(tt.in); got != tt.want {
			t.Errorf("redactURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeError(t *testing.T) {
	dsn := "postgres://reeltrack:s3cret@db:5432/reeltrack"
	err := errors.New("failed to connect to " + dsn + " password=s3cret")

	got := sanitizeError(err, dsn)
	if strings.Contains(got, "s3cret") {
		t.Errorf("secret leaked: %s", got)
	}
	if sanitizeError(nil) != "" {
		t.Error("nil error should sanitize to empty string")
	}
}
