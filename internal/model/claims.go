package model

import "time"

// Claims is the identity decoded from a verified bearer credential.
type Claims struct {
	Subject       string    `json:"uid"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
	ExpiresAt     time.Time `json:"exp"`
}

// Expired reports whether the credential backing the claims has expired at now.
// A zero ExpiresAt never expires.
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}
