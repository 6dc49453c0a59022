// Package filter implements the policy layer: leaf predicates over a
// Record, composed into trees via Composite, with a process-wide factory
// registry for (de)serializing a filter tree to and from a config
// document.
package filter

import (
	"sync"
	"time"

	"github.com/hesphoros/lumberhouse/corelog"
)

// Verdict is the result of evaluating a filter against a record.
type Verdict int

const (
	Allow Verdict = iota
	Block
	Transform
)

func (v Verdict) String() string {
	switch v {
	case Allow:
		return "Allow"
	case Block:
		return "Block"
	case Transform:
		return "Transform"
	default:
		return "Unknown"
	}
}

// Filter is the capability set every concrete policy implements. Apply
// returning Transform must populate the returned record; the caller
// substitutes it for the original.
type Filter interface {
	// Apply evaluates record and returns a verdict. When the verdict is
	// Transform, the second return value is the substituted record.
	Apply(record *corelog.Record) (Verdict, *corelog.Record)
	// QuickReject reports whether a record at this level can be
	// rejected without evaluating the full filter, letting callers skip
	// expensive work (e.g. regex matching) before a record even exists.
	QuickReject(level corelog.Level) bool
	// IsExpensive hints that Apply does non-trivial work (e.g. regex),
	// useful for composite short-circuit ordering decisions.
	IsExpensive() bool
	// Clone returns an independent copy with the same configuration and
	// fresh statistics.
	Clone() Filter
	// TypeName identifies the filter for the registry/serialization.
	TypeName() string
}

// StatsSnapshot is a point-in-time copy of a leaf filter's counters.
type StatsSnapshot struct {
	TotalProcessed      uint64
	Allowed             uint64
	Blocked             uint64
	Transformed         uint64
	TotalProcessingTime time.Duration
	AverageProcessingTime time.Duration
	LastResetTime       time.Time
}

// stats is embedded by every leaf filter; it is intentionally not
// exported so leaf filters expose Stats() returning a snapshot, matching
// the spec's "tracks per-call statistics... under its own lock."
type stats struct {
	mu                  sync.Mutex
	totalProcessed      uint64
	allowed             uint64
	blocked             uint64
	transformed         uint64
	totalProcessingTime time.Duration
	lastReset           time.Time
}

func newStats() *stats {
	return &stats{lastReset: time.Now()}
}

func (s *stats) record(v Verdict, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalProcessed++
	s.totalProcessingTime += elapsed
	switch v {
	case Allow:
		s.allowed++
	case Block:
		s.blocked++
	case Transform:
		s.transformed++
	}
}

func (s *stats) snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	avg := time.Duration(0)
	if s.totalProcessed > 0 {
		avg = s.totalProcessingTime / time.Duration(s.totalProcessed)
	}
	return StatsSnapshot{
		TotalProcessed:        s.totalProcessed,
		Allowed:               s.allowed,
		Blocked:               s.blocked,
		Transformed:           s.transformed,
		TotalProcessingTime:   s.totalProcessingTime,
		AverageProcessingTime: avg,
		LastResetTime:         s.lastReset,
	}
}

func (s *stats) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalProcessed = 0
	s.allowed = 0
	s.blocked = 0
	s.transformed = 0
	s.totalProcessingTime = 0
	s.lastReset = time.Now()
}

func timeApply(s *stats, fn func() (Verdict, *corelog.Record)) (Verdict, *corelog.Record) {
	start := time.Now()
	v, r := fn()
	s.record(v, time.Since(start))
	return v, r
}
