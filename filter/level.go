package filter

import "github.com/hesphoros/lumberhouse/corelog"

// LevelFilter allows records whose level falls within [Min, Max].
type LevelFilter struct {
	Min, Max corelog.Level
	s        *stats
}

// NewLevelFilter builds a LevelFilter over the closed range [min, max].
func NewLevelFilter(min, max corelog.Level) *LevelFilter {
	return &LevelFilter{Min: min, Max: max, s: newStats()}
}

func (f *LevelFilter) Apply(record *corelog.Record) (Verdict, *corelog.Record) {
	return timeApply(f.s, func() (Verdict, *corelog.Record) {
		if record.Level < f.Min || record.Level > f.Max {
			return Block, nil
		}
		return Allow, nil
	})
}

func (f *LevelFilter) QuickReject(level corelog.Level) bool {
	return level < f.Min || level > f.Max
}

func (f *LevelFilter) IsExpensive() bool { return false }

func (f *LevelFilter) Clone() Filter {
	return &LevelFilter{Min: f.Min, Max: f.Max, s: newStats()}
}

func (f *LevelFilter) TypeName() string { return "level" }

// Stats returns a snapshot of this filter's counters.
func (f *LevelFilter) Stats() StatsSnapshot { return f.s.snapshot() }

// ResetStats zeroes this filter's counters.
func (f *LevelFilter) ResetStats() { f.s.reset() }
