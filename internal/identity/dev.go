package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/reeltrack/reeltrack/internal/model"
)

// DevExpiredToken is the token DevVerifier reports as expired.
const DevExpiredToken = "expired"

// DevVerifier is a local/dev-only verifier.
//
// It accepts tokens of the form "dev:<uid>" or "dev:<uid>:<email>" so the API
// can be exercised without a Firebase project. Do NOT use this in production.
type DevVerifier struct {
	Now func() time.Time
}

// NewDevVerifier creates a DevVerifier.
func NewDevVerifier() *DevVerifier {
	return &DevVerifier{Now: time.Now}
}

// Verify decodes a dev token.
func (v *DevVerifier) Verify(_ context.Context, raw string) (*model.Claims, error) {
	if raw == DevExpiredToken {
		return nil, ErrExpiredCredential
	}

	rest, ok := strings.CutPrefix(raw, "dev:")
	if !ok {
		return nil, fmt.Errorf("%w: dev tokens start with \"dev:\"", ErrInvalidCredential)
	}

	uid, email, _ := strings.Cut(rest, ":")
	if uid == "" {
		return nil, fmt.Errorf("%w: missing uid", ErrInvalidCredential)
	}
	if email == "" {
		email = uid + "@dev.local"
	}

	now := time.Now
	if v.Now != nil {
		now = v.Now
	}

	return &model.Claims{
		Subject:       uid,
		Email:         email,
		EmailVerified: true,
		ExpiresAt:     now().Add(time.Hour).UTC(),
	}, nil
}
