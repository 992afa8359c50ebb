package observe

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

// ResolutionStats collects intent-resolution latency samples and counter
// values for the end-of-session report. It maintains a bounded ring buffer
// of recent latency observations per resolution tier from which percentiles
// are computed on demand.
//
// Thread-safe for concurrent use.
type ResolutionStats struct {
	mu sync.Mutex

	fastPath latencyBuffer
	remote   latencyBuffer
	fallback latencyBuffer

	utterances     int64
	escalations    int64
	actionFailures int64
}

// NewResolutionStats creates a ResolutionStats with the given window size
// (maximum number of latency samples retained per tier).
func NewResolutionStats(windowSize int) *ResolutionStats {
	if windowSize <= 0 {
		windowSize = 100
	}
	return &ResolutionStats{
		fastPath: newLatencyBuffer(windowSize),
		remote:   newLatencyBuffer(windowSize),
		fallback: newLatencyBuffer(windowSize),
	}
}

// RecordResolution records one resolved utterance with its source tier
// ("fast_path", "slm", or "fallback") and end-to-end latency.
func (rs *ResolutionStats) RecordResolution(source string, d time.Duration) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.utterances++
	switch source {
	case "slm":
		rs.remote.add(d)
	case "fallback":
		rs.fallback.add(d)
	default:
		rs.fastPath.add(d)
	}
}

// IncrEscalations increments the remote-disambiguation attempt counter.
func (rs *ResolutionStats) IncrEscalations() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.escalations++
}

// IncrActionFailures increments the per-action failure counter.
func (rs *ResolutionStats) IncrActionFailures() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.actionFailures++
}

// LatencyPercentiles holds p50 and p95 values for a resolution tier.
type LatencyPercentiles struct {
	P50 time.Duration
	P95 time.Duration
}

// StatsSnapshot captures a point-in-time view of all resolution statistics.
type StatsSnapshot struct {
	FastPath       LatencyPercentiles
	Remote         LatencyPercentiles
	Fallback       LatencyPercentiles
	Utterances     int64
	Escalations    int64
	ActionFailures int64
}

// Snapshot returns a point-in-time view of all resolution statistics.
func (rs *ResolutionStats) Snapshot() StatsSnapshot {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	return StatsSnapshot{
		FastPath:       rs.fastPath.percentiles(),
		Remote:         rs.remote.percentiles(),
		Fallback:       rs.fallback.percentiles(),
		Utterances:     rs.utterances,
		Escalations:    rs.escalations,
		ActionFailures: rs.actionFailures,
	}
}

// Report renders a human-readable latency summary, printed at the end of a
// replay session.
func (rs *ResolutionStats) Report() string {
	s := rs.Snapshot()

	var sb strings.Builder
	fmt.Fprintf(&sb, "utterances: %d  escalations: %d  action failures: %d\n",
		s.Utterances, s.Escalations, s.ActionFailures)
	fmt.Fprintf(&sb, "fast path:  p50 %-10s p95 %s\n", s.FastPath.P50, s.FastPath.P95)
	fmt.Fprintf(&sb, "remote:     p50 %-10s p95 %s\n", s.Remote.P50, s.Remote.P95)
	fmt.Fprintf(&sb, "fallback:   p50 %-10s p95 %s", s.Fallback.P50, s.Fallback.P95)
	return sb.String()
}

// latencyBuffer is a bounded ring buffer of duration samples.
type latencyBuffer struct {
	data []time.Duration
	size int
	pos  int
	full bool
}

func newLatencyBuffer(size int) latencyBuffer {
	return latencyBuffer{
		data: make([]time.Duration, size),
		size: size,
	}
}

func (lb *latencyBuffer) add(d time.Duration) {
	lb.data[lb.pos] = d
	lb.pos++
	if lb.pos >= lb.size {
		lb.pos = 0
		lb.full = true
	}
}

func (lb *latencyBuffer) percentiles() LatencyPercentiles {
	n := lb.pos
	if lb.full {
		n = lb.size
	}
	if n == 0 {
		return LatencyPercentiles{}
	}

	// Copy and sort the valid samples.
	sorted := make([]time.Duration, n)
	if lb.full {
		copy(sorted, lb.data)
	} else {
		copy(sorted, lb.data[:n])
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return LatencyPercentiles{
		P50: percentile(sorted, 0.50),
		P95: percentile(sorted, 0.95),
	}
}

// percentile returns the value at the given percentile (0.0-1.0) from a
// sorted slice of durations using nearest-rank.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
