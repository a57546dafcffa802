// Package identitytest provides a fake Firebase Auth emulator and token
// minting for tests that exercise Firebase ID token verification.
package identitytest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// EmulatorHostEnv is read by the Admin SDK to switch to the Auth emulator.
const EmulatorHostEnv = "FIREBASE_AUTH_EMULATOR_HOST"

// Keypair is an RSA signing key.
type Keypair struct {
	Kid     string
	Private *rsa.PrivateKey
}

// NewKeypair generates a 2048-bit RSA key.
func NewKeypair(t testing.TB, kid string) Keypair {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate RSA key: %v", err)
	}
	return Keypair{Kid: kid, Private: priv}
}

type emulatedUser struct {
	LocalID       string `json:"localId"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
	Disabled      bool   `json:"disabled"`
	ValidSince    string `json:"validSince"`
}

// Emulator answers the account lookups the Admin SDK makes in emulator mode.
// The emulator does not check token signatures.
type Emulator struct {
	*httptest.Server

	mu      sync.Mutex
	users   map[string]*emulatedUser
	lookups atomic.Int64
}

// NewEmulator starts a fake Auth emulator and points the Admin SDK at it
// for the rest of the test. Tests using it cannot run in parallel.
func NewEmulator(t *testing.T) *Emulator {
	t.Helper()

	e := &Emulator{users: make(map[string]*emulatedUser)}
	e.Server = httptest.NewServer(http.HandlerFunc(e.serveLookup))
	t.Cleanup(e.Close)
	t.Setenv(EmulatorHostEnv, strings.TrimPrefix(e.URL, "http://"))
	return e
}

// AddUser registers an account so tokens for uid pass the lookup.
func (e *Emulator) AddUser(uid, email string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.users[uid] = &emulatedUser{LocalID: uid, Email: email, EmailVerified: true, ValidSince: "0"}
}

// Disable marks the account as disabled.
func (e *Emulator) Disable(uid string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if u, ok := e.users[uid]; ok {
		u.Disabled = true
	}
}

// Revoke invalidates every token issued to uid before now+1h.
func (e *Emulator) Revoke(uid string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if u, ok := e.users[uid]; ok {
		u.ValidSince = strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10)
	}
}

// Lookups returns how many account lookups were served.
func (e *Emulator) Lookups() int64 {
	return e.lookups.Load()
}

func (e *Emulator) serveLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "accounts:lookup") {
		http.NotFound(w, r)
		return
	}
	e.lookups.Add(1)

	var req struct {
		LocalID []string `json:"localId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := struct {
		Users []emulatedUser `json:"users,omitempty"`
	}{}
	e.mu.Lock()
	for _, id := range req.LocalID {
		if u, ok := e.users[id]; ok {
			resp.Users = append(resp.Users, *u)
		}
	}
	e.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// TokenOptions describes the claims of a minted token.
type TokenOptions struct {
	ProjectID     string
	Subject       string
	Email         string
	EmailVerified bool
	IssuedAt      time.Time
	ExpiresIn     time.Duration

	// Issuer and Audience override the values derived from ProjectID.
	Issuer   string
	Audience string
}

// MintToken signs an ID token with kp.
func MintToken(t testing.TB, kp Keypair, opts TokenOptions) string {
	t.Helper()

	iat := opts.IssuedAt
	if iat.IsZero() {
		iat = time.Now()
	}
	exp := opts.ExpiresIn
	if exp == 0 {
		exp = time.Hour
	}
	iss := opts.Issuer
	if iss == "" {
		iss = "https://securetoken.google.com/" + opts.ProjectID
	}
	aud := opts.Audience
	if aud == "" {
		aud = opts.ProjectID
	}

	claims := jwt.MapClaims{
		"iss":            iss,
		"aud":            aud,
		"sub":            opts.Subject,
		"user_id":        opts.Subject,
		"email":          opts.Email,
		"email_verified": opts.EmailVerified,
		"iat":            iat.Unix(),
		"auth_time":      iat.Unix(),
		"exp":            iat.Add(exp).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kp.Kid

	signed, err := token.SignedString(kp.Private)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
