package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestInMemoryRecorder_Snapshot(t *testing.T) {
	m := NewInMemory()

	m.IncAuthSuccess()
	m.IncAuthFailure("CREDENTIAL_EXPIRED")
	m.IncAuthFailure("CREDENTIAL_EXPIRED")
	m.IncAuthFailure("NO_CREDENTIAL")
	m.IncClaimsCacheHit()
	m.IncClaimsCacheMiss()
	m.ObserveVerifyDuration(250 * time.Millisecond)
	m.IncUserCreated(SourceLogin)
	m.IncUserCreated(SourceLegacy)
	m.IncListCreated()
	m.IncRateLimited("ip")

	snap := m.Snapshot()

	if snap.AuthSuccesses != 1 {
		t.Errorf("AuthSuccesses = %d, want 1", snap.AuthSuccesses)
	}
	if snap.AuthFailures["CREDENTIAL_EXPIRED"] != 2 || snap.AuthFailures["NO_CREDENTIAL"] != 1 {
		t.Errorf("unexpected AuthFailures: %v", snap.AuthFailures)
	}
	if snap.ClaimsCacheHits != 1 || snap.ClaimsCacheMisses != 1 {
		t.Errorf("unexpected cache counters: hits=%d misses=%d", snap.ClaimsCacheHits, snap.ClaimsCacheMisses)
	}
	if snap.VerifyDurationCount != 1 || snap.VerifyDurationTotalNs != int64(250*time.Millisecond) {
		t.Errorf("unexpected verify duration: count=%d total=%d", snap.VerifyDurationCount, snap.VerifyDurationTotalNs)
	}
	if snap.UsersCreated[SourceLogin] != 1 || snap.UsersCreated[SourceLegacy] != 1 {
		t.Errorf("unexpected UsersCreated: %v", snap.UsersCreated)
	}
	if snap.ListsCreated != 1 {
		t.Errorf("ListsCreated = %d, want 1", snap.ListsCreated)
	}
	if snap.RateLimited["ip"] != 1 {
		t.Errorf("unexpected RateLimited: %v", snap.RateLimited)
	}
}

func TestInMemoryRecorder_SnapshotIsCopy(t *testing.T) {
	m := NewInMemory()
	m.IncAuthFailure("INVALID_CREDENTIAL")

	snap := m.Snapshot()
	snap.AuthFailures["INVALID_CREDENTIAL"] = 100

	if got := m.Snapshot().AuthFailures["INVALID_CREDENTIAL"]; got != 1 {
		t.Errorf("snapshot mutation leaked into recorder: %d", got)
	}
}

func TestInMemoryRecorder_Concurrent(t *testing.T) {
	m := NewInMemory()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncListCreated()
			m.IncUserCreated(SourceLogin)
		}()
	}
	wg.Wait()

	snap := m.Snapshot()
	if snap.ListsCreated != 50 || snap.UsersCreated[SourceLogin] != 50 {
		t.Errorf("lost updates: lists=%d users=%d", snap.ListsCreated, snap.UsersCreated[SourceLogin])
	}
}
