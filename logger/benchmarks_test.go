package logger

import (
	"testing"

	"github.com/hesphoros/lumberhouse/format"
	"github.com/hesphoros/lumberhouse/output"
)

func newBenchLogger(b *testing.B, fm format.Formatter) *Logger {
	b.Helper()
	l, err := NewBuilder().
		WithLevel(Info).
		WithWriteMode(output.Sequential).
		AddSink(output.NewConsoleSink(output.ConsoleConfig{Formatter: fm})).
		Build()
	if err != nil {
		b.Fatal(err)
	}
	return l
}

// BenchmarkInfoNoFields benchmarks Write() with no call-site fields.
func BenchmarkInfoNoFields(b *testing.B) {
	l := newBenchLogger(b, format.NewTextFormatter(format.Config{}))
	defer l.Close()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		l.Info("bench", "test message")
	}
}

// BenchmarkInfoWith2Fields benchmarks Write() with two string fields.
func BenchmarkInfoWith2Fields(b *testing.B) {
	l := newBenchLogger(b, format.NewTextFormatter(format.Config{}))
	defer l.Close()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		l.Info("bench", "test message", String("key1", "value1"), String("key2", "value2"))
	}
}

// BenchmarkFilteredDebug benchmarks Debug() when the minimum level is
// Info, so every call is rejected before any queue work happens.
func BenchmarkFilteredDebug(b *testing.B) {
	l := newBenchLogger(b, format.NewTextFormatter(format.Config{}))
	defer l.Close()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		l.Debug("bench", "debug message", String("key", "value"))
	}
}

// BenchmarkJSON benchmarks Write() through the JSON formatter.
func BenchmarkJSON(b *testing.B) {
	l := newBenchLogger(b, format.NewJSONFormatter(format.Config{}))
	defer l.Close()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		l.Info("bench", "test message", String("key1", "value1"), String("key2", "value2"))
	}
}
