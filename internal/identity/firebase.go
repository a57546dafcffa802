package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/reeltrack/reeltrack/internal/model"
)

// FirebaseConfig configures verification of Firebase ID tokens.
type FirebaseConfig struct {
	ProjectID string
	// CredentialsFile is an optional service account key. ID token
	// verification only needs the project id.
	CredentialsFile string
}

// idTokenVerifier is the part of *auth.Client the verifier uses.
type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseVerifier verifies Firebase ID tokens with the Admin SDK.
// Setting FIREBASE_AUTH_EMULATOR_HOST points it at the Auth emulator.
type FirebaseVerifier struct {
	tokens idTokenVerifier
}

// NewFirebaseVerifier creates a verifier for the given project.
func NewFirebaseVerifier(ctx context.Context, cfg FirebaseConfig) (*FirebaseVerifier, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("firebase project id is required")
	}

	opt := option.WithoutAuthentication()
	if cfg.CredentialsFile != "" {
		opt = option.WithCredentialsFile(cfg.CredentialsFile)
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opt)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	return newFirebaseVerifier(client), nil
}

func newFirebaseVerifier(tokens idTokenVerifier) *FirebaseVerifier {
	return &FirebaseVerifier{tokens: tokens}
}

// Verify delegates the token check to the provider and maps its outcome.
func (v *FirebaseVerifier) Verify(ctx context.Context, raw string) (*model.Claims, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidCredential)
	}
	if strings.Count(raw, ".") != 2 {
		return nil, fmt.Errorf("%w: token is not a JWT", ErrInvalidCredential)
	}

	token, err := v.tokens.VerifyIDToken(ctx, raw)
	if err != nil {
		if auth.IsIDTokenExpired(err) {
			return nil, fmt.Errorf("%w: %v", ErrExpiredCredential, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	out := &model.Claims{Subject: token.UID}
	if out.Subject == "" {
		out.Subject = token.Subject
	}
	if email, ok := token.Claims["email"].(string); ok {
		out.Email = email
	}
	if verified, ok := token.Claims["email_verified"].(bool); ok {
		out.EmailVerified = verified
	}
	if token.Expires != 0 {
		out.ExpiresAt = time.Unix(token.Expires, 0).UTC()
	}
	return out, nil
}
