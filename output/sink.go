// Package output implements the fan-out layer: a Manager dispatches each
// accepted record to every enabled Sink, each gated by its own minimum
// level and optional filter and rendered by its own formatter.
package output

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/hesphoros/lumberhouse/corelog"
	"github.com/hesphoros/lumberhouse/filter"
	"github.com/hesphoros/lumberhouse/format"
)

// Result classifies the outcome of dispatching a record to one sink.
type Result int

const (
	Success Result = iota
	Filtered
	Unavailable
	Failed
)

func (r Result) String() string {
	switch r {
	case Success:
		return "Success"
	case Filtered:
		return "Filtered"
	case Unavailable:
		return "Unavailable"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Sink is a terminal delivery endpoint. Concrete sinks (Console, File)
// embed Stats and implement WriteRaw to perform their own serialized
// I/O; Dispatch implements the shared steps 1-5 from spec §4.4.
type Sink interface {
	Name() string
	TypeName() string
	IsEnabled() bool
	SetEnabled(bool)
	MinLevel() corelog.Level
	SetMinLevel(corelog.Level)
	Formatter() format.Formatter
	Filter() filter.Filter
	SetFilter(filter.Filter)
	// WriteRaw performs the sink's own serialized write of already
	// formatted bytes for record, returning the number of bytes written.
	// record is passed through (rather than captured ahead of time) so a
	// sink that routes by level, such as ConsoleSink splitting
	// stdout/stderr, stays race-free under concurrent dispatch.
	WriteRaw(record *corelog.Record, data []byte) (int, error)
	Stats() SinkStats
	Close() error
}

// SinkStats is the per-sink counters from spec §4.4.
type SinkStats struct {
	TotalLogs         uint64
	Successful        uint64
	Failed            uint64
	FilteredCount     uint64
	BytesWritten      uint64
	AverageWriteTime  time.Duration
	LastWriteTime     time.Time
}

// stats is embedded by concrete sinks.
type stats struct {
	totalLogs    atomic.Uint64
	successful   atomic.Uint64
	failed       atomic.Uint64
	filtered     atomic.Uint64
	bytesWritten atomic.Uint64

	mu            sync.Mutex
	totalWriteDur time.Duration
	lastWrite     time.Time
}

func (s *stats) recordOutcome(r Result, dur time.Duration, n int) {
	s.totalLogs.Add(1)
	switch r {
	case Success:
		s.successful.Add(1)
		s.bytesWritten.Add(uint64(n))
		s.mu.Lock()
		s.totalWriteDur += dur
		s.lastWrite = time.Now()
		s.mu.Unlock()
	case Failed:
		s.failed.Add(1)
	case Filtered, Unavailable:
		s.filtered.Add(1)
	}
}

func (s *stats) snapshot() SinkStats {
	s.mu.Lock()
	lastWrite := s.lastWrite
	totalDur := s.totalWriteDur
	s.mu.Unlock()

	successful := s.successful.Load()
	avg := time.Duration(0)
	if successful > 0 {
		avg = totalDur / time.Duration(successful)
	}
	return SinkStats{
		TotalLogs:        s.totalLogs.Load(),
		Successful:       successful,
		Failed:           s.failed.Load(),
		FilteredCount:    s.filtered.Load(),
		BytesWritten:     s.bytesWritten.Load(),
		AverageWriteTime: avg,
		LastWriteTime:    lastWrite,
	}
}

// Dispatch runs the common per-sink write steps from spec §4.4 and
// updates sink statistics. It is used by Manager and is exported so a
// custom Sink implementation can reuse the exact contract.
func Dispatch(s Sink, record *corelog.Record) Result {
	start := time.Now()

	if !s.IsEnabled() {
		recordResultOn(s, Unavailable, 0, 0)
		return Unavailable
	}
	if record.Level < s.MinLevel() {
		recordResultOn(s, Filtered, 0, 0)
		return Filtered
	}

	effective := record
	if f := s.Filter(); f != nil {
		v, transformed := f.Apply(record)
		switch v {
		case filter.Block:
			recordResultOn(s, Filtered, 0, 0)
			return Filtered
		case filter.Transform:
			if transformed != nil {
				effective = transformed
			}
		}
	}

	var data []byte
	var err error
	if fm := s.Formatter(); fm != nil {
		data, err = fm.Format(effective)
	} else {
		data = []byte(effective.Message + "\n")
	}
	if err != nil {
		recordResultOn(s, Failed, time.Since(start), 0)
		return Failed
	}

	n, werr := s.WriteRaw(effective, data)
	if werr != nil {
		recordResultOn(s, Failed, time.Since(start), n)
		return Failed
	}
	recordResultOn(s, Success, time.Since(start), n)
	return Success
}

// recordResultOn updates stats on sinks that expose the embeddable
// *stats type via the statsHolder interface; sinks that don't (custom,
// external implementations) simply skip bookkeeping here because they
// are expected to track their own Stats().
func recordResultOn(s Sink, r Result, dur time.Duration, n int) {
	if h, ok := s.(statsHolder); ok {
		h.statsRef().recordOutcome(r, dur, n)
	}
}

type statsHolder interface {
	statsRef() *stats
}
