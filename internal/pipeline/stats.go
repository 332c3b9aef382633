package pipeline

import (
	"sync"
	"time"

	"golang.org/x/exp/slices"
)

type outcome uint8

const (
	outcomeDecoded outcome = iota
	outcomeCached
	outcomeFailed
)

type sample struct {
	timestamp  time.Time
	outcome    outcome
	durationMs int64
	chunks     int
}

// StatsSnapshot is a point-in-time aggregate of decode samples. Latency
// figures cover decodes only, not cache hits or failures.
type StatsSnapshot struct {
	Count     int     `json:"count"`
	CacheHits int     `json:"cache_hits"`
	Failures  int     `json:"failures"`
	Chunks    int     `json:"chunks"`
	MinMs     int64   `json:"min_ms"`
	MaxMs     int64   `json:"max_ms"`
	AvgMs     float64 `json:"avg_ms"`
	P50Ms     float64 `json:"p50_ms"`
	P95Ms     float64 `json:"p95_ms"`
	P99Ms     float64 `json:"p99_ms"`
}

// DecodeStats tracks recent decode outcomes within a rolling window.
type DecodeStats struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration
}

func NewDecodeStats(maxAge time.Duration) *DecodeStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &DecodeStats{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
	}
}

// Record adds a completed decode.
func (s *DecodeStats) Record(durationMs int64, chunks int) {
	if durationMs < 0 {
		durationMs = 0
	}
	s.add(sample{outcome: outcomeDecoded, durationMs: durationMs, chunks: chunks})
}

func (s *DecodeStats) RecordCacheHit() {
	s.add(sample{outcome: outcomeCached})
}

func (s *DecodeStats) RecordFailure() {
	s.add(sample{outcome: outcomeFailed})
}

func (s *DecodeStats) add(sm sample) {
	now := time.Now()
	sm.timestamp = now

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	s.samples = append(s.samples, sm)
}

func (s *DecodeStats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)

	var snap StatsSnapshot
	values := make([]int64, 0, len(s.samples))
	var sum int64
	for _, sm := range s.samples {
		switch sm.outcome {
		case outcomeCached:
			snap.CacheHits++
		case outcomeFailed:
			snap.Failures++
		default:
			values = append(values, sm.durationMs)
			sum += sm.durationMs
			snap.Chunks += sm.chunks
		}
	}
	if len(values) == 0 {
		return snap
	}
	slices.Sort(values)

	snap.Count = len(values)
	snap.MinMs = values[0]
	snap.MaxMs = values[len(values)-1]
	snap.AvgMs = float64(sum) / float64(len(values))
	snap.P50Ms = percentile(values, 50)
	snap.P95Ms = percentile(values, 95)
	snap.P99Ms = percentile(values, 99)
	return snap
}

func (s *DecodeStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	writeIdx := 0
	for _, sm := range s.samples {
		if !sm.timestamp.Before(cutoff) {
			s.samples[writeIdx] = sm
			writeIdx++
		}
	}
	s.samples = s.samples[:writeIdx]
}

func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
