// Package identity verifies bearer credentials issued by the identity provider.
package identity

import (
	"context"
	"errors"

	"github.com/reeltrack/reeltrack/internal/model"
)

// Verification errors. Every failure returned by a Verifier wraps exactly one of these.
var (
	// ErrInvalidCredential means the credential is malformed.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrExpiredCredential means the provider reports the credential has expired.
	ErrExpiredCredential = errors.New("credential expired")
	// ErrVerificationFailed covers any other rejection: bad signature, unknown
	// key, wrong audience or issuer, or a failure reaching the provider.
	ErrVerificationFailed = errors.New("credential verification failed")
)

// Verifier decodes a raw bearer credential into claims.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*model.Claims, error)
}
