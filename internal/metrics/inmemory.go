package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
// Map fields are copies keyed by label value.
type Snapshot struct {
	AuthSuccesses         uint64
	AuthFailures          map[string]uint64
	ClaimsCacheHits       uint64
	ClaimsCacheMisses     uint64
	VerifyDurationCount   uint64
	VerifyDurationTotalNs int64
	UsersCreated          map[string]uint64
	ListsCreated          uint64
	RateLimited           map[string]uint64
}

// InMemoryRecorder stores metrics in memory.
type InMemoryRecorder struct {
	authSuccesses         uint64
	claimsCacheHits       uint64
	claimsCacheMisses     uint64
	verifyDurationCount   uint64
	verifyDurationTotalNs int64
	listsCreated          uint64

	mu           sync.Mutex
	authFailures map[string]uint64
	usersCreated map[string]uint64
	rateLimited  map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		authFailures: map[string]uint64{},
		usersCreated: map[string]uint64{},
		rateLimited:  map[string]uint64{},
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		AuthSuccesses:         atomic.LoadUint64(&m.authSuccesses),
		AuthFailures:          copyCounts(m.authFailures),
		ClaimsCacheHits:       atomic.LoadUint64(&m.claimsCacheHits),
		ClaimsCacheMisses:     atomic.LoadUint64(&m.claimsCacheMisses),
		VerifyDurationCount:   atomic.LoadUint64(&m.verifyDurationCount),
		VerifyDurationTotalNs: atomic.LoadInt64(&m.verifyDurationTotalNs),
		UsersCreated:          copyCounts(m.usersCreated),
		ListsCreated:          atomic.LoadUint64(&m.listsCreated),
		RateLimited:           copyCounts(m.rateLimited),
	}
}

func (m *InMemoryRecorder) IncAuthSuccess() {
	atomic.AddUint64(&m.authSuccesses, 1)
}

func (m *InMemoryRecorder) IncAuthFailure(code string) {
	m.inc(m.authFailures, code)
}

func (m *InMemoryRecorder) IncClaimsCacheHit() {
	atomic.AddUint64(&m.claimsCacheHits, 1)
}

func (m *InMemoryRecorder) IncClaimsCacheMiss() {
	atomic.AddUint64(&m.claimsCacheMisses, 1)
}

// ObserveVerifyDuration records how long credential verification took.
func (m *InMemoryRecorder) ObserveVerifyDuration(duration time.Duration) {
	atomic.AddUint64(&m.verifyDurationCount, 1)
	atomic.AddInt64(&m.verifyDurationTotalNs, duration.Nanoseconds())
}

func (m *InMemoryRecorder) IncUserCreated(source string) {
	m.inc(m.usersCreated, source)
}

func (m *InMemoryRecorder) IncListCreated() {
	atomic.AddUint64(&m.listsCreated, 1)
}

func (m *InMemoryRecorder) IncRateLimited(scope string) {
	m.inc(m.rateLimited, scope)
}

func (m *InMemoryRecorder) inc(counts map[string]uint64, label string) {
	m.mu.Lock()
	counts[label]++
	m.mu.Unlock()
}

func copyCounts(in map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
