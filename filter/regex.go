package filter

import (
	"regexp"

	"github.com/hesphoros/lumberhouse/corelog"
)

// RegexFilter allows records whose message matches a compiled pattern.
type RegexFilter struct {
	Pattern string
	re      *regexp.Regexp
	s       *stats
}

// NewRegexFilter compiles pattern. Returns an error if the pattern is
// invalid, matching the spec's "known type with invalid config is an
// error."
func NewRegexFilter(pattern string) (*RegexFilter, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &RegexFilter{Pattern: pattern, re: re, s: newStats()}, nil
}

func (f *RegexFilter) Apply(record *corelog.Record) (Verdict, *corelog.Record) {
	return timeApply(f.s, func() (Verdict, *corelog.Record) {
		if f.re.MatchString(record.Message) {
			return Allow, nil
		}
		return Block, nil
	})
}

func (f *RegexFilter) QuickReject(level corelog.Level) bool { return false }

func (f *RegexFilter) IsExpensive() bool { return true }

func (f *RegexFilter) Clone() Filter {
	return &RegexFilter{Pattern: f.Pattern, re: f.re, s: newStats()}
}

func (f *RegexFilter) TypeName() string { return "regex" }

func (f *RegexFilter) Stats() StatsSnapshot { return f.s.snapshot() }
func (f *RegexFilter) ResetStats()          { f.s.reset() }
