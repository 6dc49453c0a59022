package filter

import "github.com/hesphoros/lumberhouse/corelog"

// ThreadMode selects whether Threads is an allow-list or a deny-list.
type ThreadMode int

const (
	AllowListed ThreadMode = iota
	DenyListed
)

// ThreadFilter restricts records to (or from) a set of goroutine ids,
// substituting for the spec's thread-id filter on a runtime where the
// producing goroutine id is captured via corelog.GoroutineID.
type ThreadFilter struct {
	Threads map[uint64]struct{}
	Mode    ThreadMode
	s       *stats
}

// NewThreadFilter builds a ThreadFilter over the given id set.
func NewThreadFilter(mode ThreadMode, ids ...uint64) *ThreadFilter {
	set := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return &ThreadFilter{Threads: set, Mode: mode, s: newStats()}
}

func (f *ThreadFilter) Apply(record *corelog.Record) (Verdict, *corelog.Record) {
	return timeApply(f.s, func() (Verdict, *corelog.Record) {
		_, present := f.Threads[record.GoroutineID]
		switch f.Mode {
		case AllowListed:
			if present {
				return Allow, nil
			}
			return Block, nil
		default: // DenyListed
			if present {
				return Block, nil
			}
			return Allow, nil
		}
	})
}

func (f *ThreadFilter) QuickReject(level corelog.Level) bool { return false }

func (f *ThreadFilter) IsExpensive() bool { return false }

func (f *ThreadFilter) Clone() Filter {
	ids := make([]uint64, 0, len(f.Threads))
	for id := range f.Threads {
		ids = append(ids, id)
	}
	return NewThreadFilter(f.Mode, ids...)
}

func (f *ThreadFilter) TypeName() string { return "thread" }

func (f *ThreadFilter) Stats() StatsSnapshot { return f.s.snapshot() }
func (f *ThreadFilter) ResetStats()          { f.s.reset() }
