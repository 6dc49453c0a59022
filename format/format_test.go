package format

import (
	"strings"
	"testing"
	"time"

	"github.com/hesphoros/lumberhouse/corelog"
	"github.com/stretchr/testify/require"
)

func sample() *corelog.Record {
	return &corelog.Record{
		Time:    time.Date(2026, 7, 29, 10, 0, 0, 0, time.UTC),
		Level:   corelog.Warning,
		Message: "disk low",
		Fields:  []corelog.Field{corelog.Int("free_mb", 12)},
	}
}

func TestTextFormatterFormat(t *testing.T) {
	f := NewTextFormatter(Config{})
	b, err := f.Format(sample())
	require.NoError(t, err)
	s := string(b)
	require.Contains(t, s, "[WARNING]")
	require.Contains(t, s, "disk low")
	require.Contains(t, s, "free_mb=12")
	require.True(t, strings.HasSuffix(s, "\n"))
}

func TestJSONFormatterFormat(t *testing.T) {
	f := NewJSONFormatter(Config{})
	b, err := f.Format(sample())
	require.NoError(t, err)
	s := string(b)
	require.Contains(t, s, `"level":"WARNING"`)
	require.Contains(t, s, `"message":"disk low"`)
	require.Contains(t, s, `"free_mb":12`)
}

func TestJSONFormatterEscapesControlChars(t *testing.T) {
	f := NewJSONFormatter(Config{})
	r := sample()
	r.Message = "line1\nline2\t\"quoted\""
	b, err := f.Format(r)
	require.NoError(t, err)
	require.Contains(t, string(b), `line1\nline2\t\"quoted\"`)
}

func TestTextFormatterIncludesCallerWhenEnabled(t *testing.T) {
	f := NewTextFormatter(Config{IncludeCaller: true})
	r := sample()
	r.Caller = corelog.CallerInfo{ShortFile: "x.go", Line: 42, Defined: true}
	b, _ := f.Format(r)
	require.Contains(t, string(b), "[x.go:42]")
}

func TestTextFormatterColorWrapsLevelAndFields(t *testing.T) {
	f := NewTextFormatter(Config{Color: true})
	b, err := f.Format(sample())
	require.NoError(t, err)
	s := string(b)
	require.Contains(t, s, "\x1b[")
	require.Contains(t, s, "[WARNING]")
	require.Contains(t, s, "free_mb=12")
	require.Contains(t, s, "disk low", "the message itself is never colorized, only the bracket and fields")
}

func TestTextFormatterWithoutColorEmitsNoEscapes(t *testing.T) {
	f := NewTextFormatter(Config{})
	b, err := f.Format(sample())
	require.NoError(t, err)
	require.NotContains(t, string(b), "\x1b[")
}
