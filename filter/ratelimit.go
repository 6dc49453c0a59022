package filter

import (
	"time"

	"github.com/hesphoros/lumberhouse/corelog"
	"golang.org/x/time/rate"
)

// RateLimitFilter caps the rate of Allowed records using a token bucket.
// It wraps golang.org/x/time/rate rather than hand-rolling the allowance
// arithmetic: maxPerSecond maps to the refill rate, maxBurst to bucket
// capacity, exactly as the spec's {maxPerSecond, maxBurst, tokens,
// lastRefill} fields describe, with the refill bookkeeping owned by
// rate.Limiter instead of reimplemented here.
type RateLimitFilter struct {
	MaxPerSecond float64
	MaxBurst     int
	limiter      *rate.Limiter
	s            *stats
}

// NewRateLimitFilter builds a RateLimitFilter allowing maxPerSecond
// records/sec on average with bursts up to maxBurst.
func NewRateLimitFilter(maxPerSecond float64, maxBurst int) *RateLimitFilter {
	return &RateLimitFilter{
		MaxPerSecond: maxPerSecond,
		MaxBurst:     maxBurst,
		limiter:      rate.NewLimiter(rate.Limit(maxPerSecond), maxBurst),
		s:            newStats(),
	}
}

func (f *RateLimitFilter) Apply(record *corelog.Record) (Verdict, *corelog.Record) {
	return timeApply(f.s, func() (Verdict, *corelog.Record) {
		if f.limiter.AllowN(time.Now(), 1) {
			return Allow, nil
		}
		return Block, nil
	})
}

func (f *RateLimitFilter) QuickReject(level corelog.Level) bool { return false }

func (f *RateLimitFilter) IsExpensive() bool { return false }

func (f *RateLimitFilter) Clone() Filter {
	return NewRateLimitFilter(f.MaxPerSecond, f.MaxBurst)
}

func (f *RateLimitFilter) TypeName() string { return "ratelimit" }

func (f *RateLimitFilter) Stats() StatsSnapshot { return f.s.snapshot() }
func (f *RateLimitFilter) ResetStats()          { f.s.reset() }

// AvailableTokens reports the current bucket level, useful for tests and
// diagnostics.
func (f *RateLimitFilter) AvailableTokens() float64 {
	return f.limiter.TokensAt(time.Now())
}
