package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/reeltrack/reeltrack/internal/auth"
	"github.com/reeltrack/reeltrack/internal/handler/dto"
	"github.com/reeltrack/reeltrack/internal/identity"
	"github.com/reeltrack/reeltrack/internal/metrics"
	"github.com/reeltrack/reeltrack/internal/model"
)

const bearerPrefix = "Bearer "

// Gate error messages.
const (
	msgNoCredential        = "Unauthorized: No token provided"
	msgMalformedCredential = "Unauthorized: Invalid token format"
	msgInvalidCredential   = "Unauthorized: Invalid token"
	msgCredentialExpired   = "Forbidden: Token expired"
	msgVerificationFailed  = "Unauthorized: Token verification failed"
)

// ClaimsCache stores verified claims keyed by raw token.
type ClaimsCache interface {
	GetClaims(ctx context.Context, token string) (*model.Claims, error)
	SetClaims(ctx context.Context, token string, claims *model.Claims) error
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Verifier identity.Verifier
	// Cache is optional.
	Cache   ClaimsCache
	Metrics metrics.Recorder
	Now     func() time.Time
}

// Auth returns a middleware that requires a verified bearer ID token.
// On success the claims are attached to the request context; on failure the
// request is answered with 401, or 403 when the token has expired.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, bearerPrefix) {
				reject(cfg, w, r, http.StatusUnauthorized, dto.CodeNoCredential, msgNoCredential, nil)
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
			if token == "" {
				reject(cfg, w, r, http.StatusUnauthorized, dto.CodeMalformedCredential, msgMalformedCredential, nil)
				return
			}

			claims, cacheHit := lookupClaims(ctx, cfg, token)
			if claims == nil {
				start := time.Now()
				verified, err := cfg.Verifier.Verify(ctx, token)
				cfg.Metrics.ObserveVerifyDuration(time.Since(start))

				if err != nil {
					status, code, msg := classify(err)
					reject(cfg, w, r, status, code, msg, err)
					return
				}
				claims = verified

				if cfg.Cache != nil {
					if err := cfg.Cache.SetClaims(ctx, token, claims); err != nil {
						cfg.Logger.Warn("claims cache write failed",
							slog.String("error", err.Error()),
							slog.String("request_id", GetRequestID(ctx)),
						)
					}
				}
			}

			cfg.Metrics.IncAuthSuccess()
			annotateSubject(ctx, claims.Subject)
			cfg.Logger.Debug("authentication successful",
				slog.String("uid", claims.Subject),
				slog.Bool("cache_hit", cacheHit),
				slog.String("request_id", GetRequestID(ctx)),
			)

			next.ServeHTTP(w, r.WithContext(auth.ContextWithClaims(ctx, claims)))
		})
	}
}

// lookupClaims consults the cache. Errors and expired entries count as misses.
func lookupClaims(ctx context.Context, cfg AuthConfig, token string) (*model.Claims, bool) {
	if cfg.Cache == nil {
		return nil, false
	}
	claims, err := cfg.Cache.GetClaims(ctx, token)
	if err != nil || claims == nil || claims.Expired(cfg.Now()) {
		cfg.Metrics.IncClaimsCacheMiss()
		return nil, false
	}
	cfg.Metrics.IncClaimsCacheHit()
	return claims, true
}

// classify maps verifier errors onto gate responses.
func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, identity.ErrExpiredCredential):
		return http.StatusForbidden, dto.CodeCredentialExpired, msgCredentialExpired
	case errors.Is(err, identity.ErrInvalidCredential):
		return http.StatusUnauthorized, dto.CodeInvalidCredential, msgInvalidCredential
	default:
		return http.StatusUnauthorized, dto.CodeVerificationFailed, msgVerificationFailed
	}
}

// reject logs the failure reason and writes the error. The verifier's
// error text goes to the log only.
func reject(cfg AuthConfig, w http.ResponseWriter, r *http.Request, status int, code, msg string, cause error) {
	cfg.Metrics.IncAuthFailure(code)

	attrs := []any{
		slog.String("reason", code),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	}
	if cause != nil {
		attrs = append(attrs, slog.String("error", cause.Error()))
	}
	cfg.Logger.Warn("authentication failed", attrs...)

	writeError(w, status, code, msg)
}
