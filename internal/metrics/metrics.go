// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// User creation sources.
const (
	SourceLogin  = "login"
	SourceLegacy = "legacy"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Auth gate metrics
	IncAuthSuccess()
	IncAuthFailure(code string)
	IncClaimsCacheHit()
	IncClaimsCacheMiss()
	ObserveVerifyDuration(duration time.Duration)

	// Directory metrics
	IncUserCreated(source string)
	IncListCreated()

	IncRateLimited(scope string) // scope: "ip" or "subject"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
