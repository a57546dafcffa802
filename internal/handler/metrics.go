package handler

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/reeltrack/reeltrack/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "reeltrack_auth_success_total %d\n", snap.AuthSuccesses)
	writeLabeled(w, "reeltrack_auth_failure_total", "code", snap.AuthFailures)
	writeMetric(w, "reeltrack_claims_cache_hits_total %d\n", snap.ClaimsCacheHits)
	writeMetric(w, "reeltrack_claims_cache_misses_total %d\n", snap.ClaimsCacheMisses)
	writeMetric(w, "reeltrack_verify_duration_seconds_count %d\n", snap.VerifyDurationCount)
	writeMetric(w, "reeltrack_verify_duration_seconds_sum %.6f\n", float64(snap.VerifyDurationTotalNs)/1e9)

	writeLabeled(w, "reeltrack_users_created_total", "source", snap.UsersCreated)
	writeMetric(w, "reeltrack_lists_created_total %d\n", snap.ListsCreated)

	writeLabeled(w, "reeltrack_rate_limited_total", "scope", snap.RateLimited)
}

// writeLabeled renders one series per label value in sorted order.
func writeLabeled(w http.ResponseWriter, name, label string, counts map[string]uint64) {
	values := make([]string, 0, len(counts))
	for v := range counts {
		values = append(values, v)
	}
	sort.Strings(values)
	for _, v := range values {
		writeMetric(w, "%s{%s=%q} %d\n", name, label, v, counts[v])
	}
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
