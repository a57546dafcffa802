package client

import (
	"context"
	"log/slog"
	"time"
)

// DefaultRefreshInterval renews ID tokens ahead of their one-hour expiry.
const DefaultRefreshInterval = 55 * time.Minute

// RefreshFunc mints a new ID token.
type RefreshFunc func(ctx context.Context) (string, error)

// Refresher periodically force-refreshes the token held by a Session.
type Refresher struct {
	session  *Session
	refresh  RefreshFunc
	interval time.Duration
	logger   *slog.Logger
}

// NewRefresher creates a Refresher. A non-positive interval uses
// DefaultRefreshInterval.
func NewRefresher(session *Session, refresh RefreshFunc, interval time.Duration, logger *slog.Logger) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Refresher{
		session:  session,
		refresh:  refresh,
		interval: interval,
		logger:   logger,
	}
}

// Run refreshes every interval until ctx is canceled. A failed refresh
// keeps the current token and is retried on the next tick.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			token, err := r.refresh(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				r.logger.Warn("token refresh failed", slog.String("error", err.Error()))
				continue
			}
			r.session.SetToken(token)
			r.logger.Debug("token refreshed")
		}
	}
}
