package enrich

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	timestamp  time.Time
	durationMs int64
}

// OpSnapshot aggregates per-operation call counters.
type OpSnapshot struct {
	Calls     int64 `json:"calls"`
	Failures  int64 `json:"failures"`
	Fallbacks int64 `json:"fallbacks,omitempty"`
}

// StatsSnapshot is a point-in-time aggregate of LLM call latencies plus
// per-operation counters.
type StatsSnapshot struct {
	Count      int                   `json:"count"`
	MinMs      int64                 `json:"min_ms"`
	MaxMs      int64                 `json:"max_ms"`
	AvgMs      float64               `json:"avg_ms"`
	P50Ms      float64               `json:"p50_ms"`
	P95Ms      float64               `json:"p95_ms"`
	P99Ms      float64               `json:"p99_ms"`
	Operations map[string]OpSnapshot `json:"operations,omitempty"`
}

type opCounter struct {
	calls     int64
	failures  int64
	fallbacks int64
}

// Stats tracks recent LLM call latencies within a rolling window, broken
// down by operation (summary, title, contextualize).
type Stats struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration
	ops     map[string]*opCounter
}

func NewStats(maxAge time.Duration) *Stats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Stats{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
		ops:     make(map[string]*opCounter),
	}
}

func (s *Stats) counter(op string) *opCounter {
	c, ok := s.ops[op]
	if !ok {
		c = &opCounter{}
		s.ops[op] = c
	}
	return c
}

// Record registers one completed call's latency.
func (s *Stats) Record(op string, durationMs int64) {
	if durationMs < 0 {
		durationMs = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	s.samples = append(s.samples, sample{timestamp: now, durationMs: durationMs})
	s.counter(op).calls++
}

// RecordFailure registers a call that errored out after retries.
func (s *Stats) RecordFailure(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter(op).failures++
}

// RecordFallback registers a chunk that fell back to non-LLM enrichment.
func (s *Stats) RecordFallback(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter(op).fallbacks++
}

func (s *Stats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)

	snap := StatsSnapshot{}
	if len(s.ops) > 0 {
		snap.Operations = make(map[string]OpSnapshot, len(s.ops))
		for op, c := range s.ops {
			snap.Operations[op] = OpSnapshot{Calls: c.calls, Failures: c.failures, Fallbacks: c.fallbacks}
		}
	}
	if len(s.samples) == 0 {
		return snap
	}

	values := make([]int64, 0, len(s.samples))
	var sum int64
	for _, sm := range s.samples {
		values = append(values, sm.durationMs)
		sum += sm.durationMs
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	snap.Count = len(values)
	snap.MinMs = values[0]
	snap.MaxMs = values[len(values)-1]
	snap.AvgMs = float64(sum) / float64(len(values))
	snap.P50Ms = percentile(values, 50)
	snap.P95Ms = percentile(values, 95)
	snap.P99Ms = percentile(values, 99)
	return snap
}

func (s *Stats) pruneLocked(now time.Time) {
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
