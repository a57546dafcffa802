package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/reeltrack/reeltrack/internal/model"
)

const (
	claimsCachePrefix = "auth:claims:"
	// MaxClaimsTTL caps how long a verified token is trusted without re-verification.
	MaxClaimsTTL = 5 * time.Minute
)

type cachedClaims struct {
	Subject       string    `json:"uid"`
	Email         string    `json:"email,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	ExpiresAt     time.Time `json:"exp"`
}

// GetClaims returns previously verified claims for a raw token.
// Returns ErrCacheMiss if absent, corrupted or already expired.
func (c *Cache) GetClaims(ctx context.Context, token string) (*model.Claims, error) {
	data, err := c.client.Get(ctx, claimsKey(token)).Bytes()
	if err != nil {
		return nil, ErrCacheMiss
	}

	var cached cachedClaims
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, ErrCacheMiss
	}

	claims := &model.Claims{
		Subject:       cached.Subject,
		Email:         cached.Email,
		EmailVerified: cached.EmailVerified,
		ExpiresAt:     cached.ExpiresAt,
	}
	if claims.Subject == "" || claims.Expired(c.now()) {
		return nil, ErrCacheMiss
	}
	return claims, nil
}

// SetClaims caches verified claims until the token expires, capped at MaxClaimsTTL.
// Tokens that are already expired are not cached.
func (c *Cache) SetClaims(ctx context.Context, token string, claims *model.Claims) error {
	ttl := claimsTTL(claims.ExpiresAt, c.now())
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(cachedClaims{
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		ExpiresAt:     claims.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("marshal claims: %w", err)
	}

	return c.client.Set(ctx, claimsKey(token), data, ttl).Err()
}

// claimsKey never stores the raw token.
func claimsKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return claimsCachePrefix + hex.EncodeToString(sum[:])
}

func claimsTTL(expiresAt, now time.Time) time.Duration {
	if expiresAt.IsZero() {
		return MaxClaimsTTL
	}
	ttl := expiresAt.Sub(now)
	if ttl > MaxClaimsTTL {
		return MaxClaimsTTL
	}
	return ttl
}
