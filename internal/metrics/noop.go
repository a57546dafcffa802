package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncAuthSuccess()                              {}
func (n *NoopRecorder) IncAuthFailure(code string)                   {}
func (n *NoopRecorder) IncClaimsCacheHit()                           {}
func (n *NoopRecorder) IncClaimsCacheMiss()                          {}
func (n *NoopRecorder) ObserveVerifyDuration(duration time.Duration) {}
func (n *NoopRecorder) IncUserCreated(source string)                 {}
func (n *NoopRecorder) IncListCreated()                              {}
func (n *NoopRecorder) IncRateLimited(scope string)                  {}
