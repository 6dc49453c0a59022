package filter

import (
	"strings"

	"github.com/hesphoros/lumberhouse/corelog"
)

// KeywordFilter blocks or allows a record based on substring membership
// of Include/Exclude keyword sets. A non-empty Include set requires at
// least one match to Allow; any Exclude match always Blocks.
type KeywordFilter struct {
	Include       []string
	Exclude       []string
	CaseSensitive bool
	s             *stats
}

// NewKeywordFilter builds a KeywordFilter. Nil slices are treated as empty.
func NewKeywordFilter(include, exclude []string, caseSensitive bool) *KeywordFilter {
	return &KeywordFilter{
		Include:       append([]string(nil), include...),
		Exclude:       append([]string(nil), exclude...),
		CaseSensitive: caseSensitive,
		s:             newStats(),
	}
}

func (f *KeywordFilter) contains(haystack, needle string) bool {
	if !f.CaseSensitive {
		haystack = strings.ToLower(haystack)
		needle = strings.ToLower(needle)
	}
	return strings.Contains(haystack, needle)
}

func (f *KeywordFilter) Apply(record *corelog.Record) (Verdict, *corelog.Record) {
	return timeApply(f.s, func() (Verdict, *corelog.Record) {
		for _, kw := range f.Exclude {
			if f.contains(record.Message, kw) {
				return Block, nil
			}
		}
		if len(f.Include) == 0 {
			return Allow, nil
		}
		for _, kw := range f.Include {
			if f.contains(record.Message, kw) {
				return Allow, nil
			}
		}
		return Block, nil
	})
}

func (f *KeywordFilter) QuickReject(level corelog.Level) bool { return false }

func (f *KeywordFilter) IsExpensive() bool { return true }

func (f *KeywordFilter) Clone() Filter {
	return &KeywordFilter{
		Include:       append([]string(nil), f.Include...),
		Exclude:       append([]string(nil), f.Exclude...),
		CaseSensitive: f.CaseSensitive,
		s:             newStats(),
	}
}

func (f *KeywordFilter) TypeName() string { return "keyword" }

func (f *KeywordFilter) Stats() StatsSnapshot { return f.s.snapshot() }
func (f *KeywordFilter) ResetStats()          { f.s.reset() }
