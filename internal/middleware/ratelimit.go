package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/reeltrack/reeltrack/internal/auth"
	"github.com/reeltrack/reeltrack/internal/cache"
	"github.com/reeltrack/reeltrack/internal/handler/dto"
	"github.com/reeltrack/reeltrack/internal/metrics"
)

// RateLimiter checks token buckets. Implementations fail open: on backend
// errors they return an allowing result together with the error.
type RateLimiter interface {
	CheckIPRateLimit(ctx context.Context, ip string, ratePerSecond, burst int) (*cache.RateLimitResult, error)
	CheckSubjectRateLimit(ctx context.Context, uid string, ratePerMinute, burst int) (*cache.RateLimitResult, error)
}

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Limiter RateLimiter
	Metrics metrics.Recorder
	Enabled bool

	// Per client IP, for unauthenticated routes.
	IPRPS   int
	IPBurst int

	// Per verified subject, for authenticated routes.
	SubjectRPM   int
	SubjectBurst int
}

func (cfg RateLimitConfig) active() bool {
	return cfg.Enabled && cfg.Limiter != nil
}

// RateLimitIP limits requests per client address. chimiddleware.RealIP must
// run first when the server sits behind a proxy.
func RateLimitIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.active() {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)
			result, err := cfg.Limiter.CheckIPRateLimit(r.Context(), ip, cfg.IPRPS, cfg.IPBurst)
			enforce(cfg, w, r, next, "ip", cfg.IPRPS, result, err)
		})
	}
}

// RateLimitSubject limits requests per authenticated uid.
// Must be applied after Auth.
func RateLimitSubject(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid := auth.SubjectFromContext(r.Context())
			if !cfg.active() || uid == "" {
				next.ServeHTTP(w, r)
				return
			}

			result, err := cfg.Limiter.CheckSubjectRateLimit(r.Context(), uid, cfg.SubjectRPM, cfg.SubjectBurst)
			enforce(cfg, w, r, next, "subject", cfg.SubjectRPM, result, err)
		})
	}
}

func enforce(cfg RateLimitConfig, w http.ResponseWriter, r *http.Request, next http.Handler, scope string, limit int, result *cache.RateLimitResult, err error) {
	if err != nil {
		cfg.Logger.Error("rate limit check failed",
			slog.String("error", err.Error()),
			slog.String("scope", scope),
			slog.String("request_id", GetRequestID(r.Context())),
		)
	}
	if result == nil {
		next.ServeHTTP(w, r)
		return
	}

	setRateLimitHeaders(w, limit, result.Remaining, result.ResetAt)

	if !result.Allowed {
		if cfg.Metrics != nil {
			cfg.Metrics.IncRateLimited(scope)
		}
		retry := retryAfterSeconds(result.RetryAfter)
		cfg.Logger.Warn("rate limit exceeded",
			slog.String("scope", scope),
			slog.String("ip", clientIP(r)),
			slog.String("endpoint", r.Method+" "+r.URL.Path),
			slog.Int("retry_after_seconds", retry),
			slog.String("request_id", GetRequestID(r.Context())),
		)

		w.Header().Set("Retry-After", strconv.Itoa(retry))
		writeError(w, http.StatusTooManyRequests, dto.CodeRateLimited,
			fmt.Sprintf("Rate limit exceeded. Retry after %d seconds.", retry))
		return
	}

	next.ServeHTTP(w, r)
}

func setRateLimitHeaders(w http.ResponseWriter, limit int, remaining int64, resetAt time.Time) {
	if limit <= 0 {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
}

func retryAfterSeconds(d time.Duration) int {
	s := int((d + time.Second - 1) / time.Second)
	if s < 1 {
		return 1
	}
	return s
}

// clientIP strips the port from RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
