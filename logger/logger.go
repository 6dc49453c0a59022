package logger

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hesphoros/lumberhouse/callback"
	"github.com/hesphoros/lumberhouse/corelog"
	"github.com/hesphoros/lumberhouse/filter"
	"github.com/hesphoros/lumberhouse/output"
	"github.com/hesphoros/lumberhouse/queue"
	"github.com/hesphoros/lumberhouse/rotation"
	"go.uber.org/multierr"
)

// osExit is a package var so Fatal can be exercised in tests without
// terminating the test binary, matching the teacher's logger.osExit.
var osExit = os.Exit

// Logger wires a bounded write queue, a callback registry, an optional
// logger-wide filter, an output fan-out manager and an optional
// rotation engine into the single entry point producers use. Built
// exclusively via Builder.
type Logger struct {
	minLevel atomic.Int32

	fields             []corelog.Field
	includeCaller      bool
	callerSkip         int
	includeGoroutineID bool

	queue     *queue.Queue
	callbacks *callback.Registry
	outputs   *output.Manager
	rotation  *rotation.Engine
	primary   rotation.FileRef

	filterMu sync.RWMutex
	filter   filter.Filter

	diag *slog.Logger

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Write enqueues a record at level under tag, applying the logger's
// default fields, optional caller capture and optional goroutine id
// capture. Records below the logger's current minimum level are
// dropped before any allocation. The logger-wide filter, if any, is
// then evaluated: a Block verdict stops the record right here, before
// it reaches either the callback registry or the write queue, matching
// the required check -> filter -> callbacks -> enqueue order. A
// Transform verdict substitutes the record that callbacks and the
// queue see.
func (l *Logger) Write(level corelog.Level, tag, msg string, fields ...corelog.Field) {
	if level < l.MinLevel() {
		return
	}

	rec := corelog.GetRecord()
	rec.Level = level
	rec.Message = msg
	if len(l.fields) > 0 {
		rec.Fields = append(rec.Fields, l.fields...)
	}
	if len(fields) > 0 {
		rec.Fields = append(rec.Fields, fields...)
	}
	if l.includeCaller {
		rec.Caller = corelog.GetCaller(l.callerSkip)
	}
	if l.includeGoroutineID {
		rec.GoroutineID = corelog.GoroutineID()
	}

	effective := rec
	if f := l.getFilter(); f != nil {
		v, transformed := f.Apply(rec)
		if v == filter.Block {
			corelog.PutRecord(rec)
			return
		}
		if v == filter.Transform && transformed != nil {
			effective = transformed
		}
	}

	l.callbacks.Broadcast(effective)
	l.queue.Push(queue.Item{Record: effective, Tag: tag})
}

func (l *Logger) Trace(tag, msg string, fields ...corelog.Field) {
	l.Write(corelog.Trace, tag, msg, fields...)
}
func (l *Logger) Debug(tag, msg string, fields ...corelog.Field) {
	l.Write(corelog.Debug, tag, msg, fields...)
}
func (l *Logger) Info(tag, msg string, fields ...corelog.Field) {
	l.Write(corelog.Info, tag, msg, fields...)
}
func (l *Logger) Notice(tag, msg string, fields ...corelog.Field) {
	l.Write(corelog.Notice, tag, msg, fields...)
}
func (l *Logger) Warn(tag, msg string, fields ...corelog.Field) {
	l.Write(corelog.Warning, tag, msg, fields...)
}
func (l *Logger) Error(tag, msg string, fields ...corelog.Field) {
	l.Write(corelog.Error, tag, msg, fields...)
}
func (l *Logger) Critical(tag, msg string, fields ...corelog.Field) {
	l.Write(corelog.Critical, tag, msg, fields...)
}
func (l *Logger) Alert(tag, msg string, fields ...corelog.Field) {
	l.Write(corelog.Alert, tag, msg, fields...)
}
func (l *Logger) Emergency(tag, msg string, fields ...corelog.Field) {
	l.Write(corelog.Emergency, tag, msg, fields...)
}

// Fatal writes the record at Fatal level, waits (bounded) for it to
// clear the write queue, and terminates the process via osExit(1).
func (l *Logger) Fatal(tag, msg string, fields ...corelog.Field) {
	l.Write(corelog.Fatal, tag, msg, fields...)
	l.Flush()
	osExit(1)
}

// With returns a child Logger that shares this logger's queue,
// callbacks, output manager and rotation engine, prepending fields to
// every record it writes. The child starts with no logger-wide filter
// of its own; call SetFilter on it explicitly if needed.
func (l *Logger) With(fields ...corelog.Field) *Logger {
	merged := make([]corelog.Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)

	child := &Logger{
		fields:             merged,
		includeCaller:      l.includeCaller,
		callerSkip:         l.callerSkip,
		includeGoroutineID: l.includeGoroutineID,
		queue:              l.queue,
		callbacks:          l.callbacks,
		outputs:            l.outputs,
		rotation:           l.rotation,
		primary:            l.primary,
		diag:               l.diag,
	}
	child.minLevel.Store(l.minLevel.Load())
	return child
}

// MinLevel returns the logger's current minimum level.
func (l *Logger) MinLevel() corelog.Level { return corelog.Level(l.minLevel.Load()) }

// SetMinLevel changes the minimum level future Write calls are gated by.
func (l *Logger) SetMinLevel(level corelog.Level) { l.minLevel.Store(int32(level)) }

// Subscribe registers fn, invoked on the producer's goroutine for every
// record at or above minLevel.
func (l *Logger) Subscribe(minLevel corelog.Level, fn callback.Func) callback.Handle {
	return l.callbacks.Subscribe(minLevel, fn)
}

// Unsubscribe removes a previously registered callback.
func (l *Logger) Unsubscribe(h callback.Handle) bool { return l.callbacks.Unsubscribe(h) }

// ClearCallbacks removes every registered callback.
func (l *Logger) ClearCallbacks() { l.callbacks.Clear() }

// SetFilter installs f as the logger-wide filter, evaluated in Write
// before the callback broadcast and the enqueue, independent of any
// sink-local filter a Sink may also carry.
func (l *Logger) SetFilter(f filter.Filter) {
	l.filterMu.Lock()
	l.filter = f
	l.filterMu.Unlock()
}

// ClearFilter removes the logger-wide filter.
func (l *Logger) ClearFilter() { l.SetFilter(nil) }

func (l *Logger) getFilter() filter.Filter {
	l.filterMu.RLock()
	defer l.filterMu.RUnlock()
	return l.filter
}

// AddSink registers sink on the output manager.
func (l *Logger) AddSink(sink output.Sink) { l.outputs.AddSink(sink) }

// RemoveSink closes and unregisters the named sink.
func (l *Logger) RemoveSink(name string) error { return l.outputs.RemoveSink(name) }

// GetSink returns the named sink, if registered.
func (l *Logger) GetSink(name string) (output.Sink, bool) { return l.outputs.GetSink(name) }

// SetMultiOutputEnabled toggles concurrent fan-out: enabled switches the
// output manager to Parallel dispatch (every sink written concurrently,
// joined before Write returns); disabled reverts to Sequential.
func (l *Logger) SetMultiOutputEnabled(enabled bool) {
	if enabled {
		l.outputs.SetMode(output.Parallel)
	} else {
		l.outputs.SetMode(output.Sequential)
	}
}

// CurrentFileSize returns the primary rotation-managed file's current
// size, or 0 if no such file is configured.
func (l *Logger) CurrentFileSize() int64 {
	if l.primary == nil {
		return 0
	}
	return l.primary.CurrentSize()
}

// ForceRotation rotates the primary file synchronously, regardless of
// what the configured strategy says, returning the attempt's
// RotationResult. A no-op returning the zero RotationResult if
// rotation isn't armed.
func (l *Logger) ForceRotation() (rotation.RotationResult, error) {
	if l.rotation == nil || l.primary == nil {
		return rotation.RotationResult{}, nil
	}
	return l.rotation.ForceRotation(l.primary)
}

// ForceRotationAsync submits a rotation request to the rotation engine's
// async worker pool, returning a channel that receives its
// RotationResult. Returns a buffered channel already holding the zero
// RotationResult if rotation isn't armed.
func (l *Logger) ForceRotationAsync() <-chan rotation.RotationResult {
	if l.rotation == nil || l.primary == nil {
		ch := make(chan rotation.RotationResult, 1)
		ch <- rotation.RotationResult{}
		return ch
	}
	return l.rotation.ForceRotationAsync(l.primary)
}

// PendingRotationTasks reports queued-but-not-started async rotation
// requests.
func (l *Logger) PendingRotationTasks() int {
	if l.rotation == nil {
		return 0
	}
	return l.rotation.PendingRotationTasks()
}

// CancelPendingRotationTasks cancels every queued async rotation
// request, returning how many were cancelled.
func (l *Logger) CancelPendingRotationTasks() int {
	if l.rotation == nil {
		return 0
	}
	return l.rotation.CancelPendingRotationTasks()
}

// Pending returns the number of records not yet picked up by the
// writer goroutine.
func (l *Logger) Pending() int { return l.queue.Pending() }

// Dropped returns the cumulative number of records discarded under a
// DropOldest queue policy.
func (l *Logger) Dropped() uint64 { return l.queue.Dropped() }

// Flush blocks until the write queue has drained and any in-flight
// Async sink dispatch has completed. The wait for the queue to drain
// gives up after 5 seconds; the wait for Async dispatch has no bound.
func (l *Logger) Flush() {
	deadline := time.Now().Add(5 * time.Second)
	for l.queue.Pending() > 0 && time.Now().Before(deadline) {
		runtime.Gosched()
	}
	l.outputs.Flush()
}

// Close flushes, stops the writer goroutine, closes the write queue,
// and closes every registered sink and the rotation engine, aggregating
// their errors with multierr. Safe to call more than once.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		l.Flush()
		l.queue.Close()
		l.wg.Wait()
		if l.rotation != nil {
			err = multierr.Append(err, l.rotation.Close())
		}
		err = multierr.Append(err, l.outputs.Close())
	})
	return err
}

// run is the single writer goroutine: pop a record (already passed
// through the logger-wide filter in Write) and dispatch it to every
// sink, then give the rotation engine a chance to act. Matches the
// ownership spec §5 assigns to the write pipeline: exactly one
// consumer drains the queue.
func (l *Logger) run() {
	defer l.wg.Done()
	for {
		it, ok := l.queue.Pop()
		if !ok {
			return
		}
		effective := it.Record

		if err := l.outputs.Write(context.Background(), effective); err != nil {
			l.diag.Warn("logger: dispatch failed", "tag", it.Tag, "error", err)
		}

		if l.rotation != nil && l.primary != nil {
			if result, attempted, err := l.rotation.CheckAndRotate(l.primary); err != nil {
				l.diag.Warn("logger: rotation check failed", "error", err)
			} else if attempted && result.Success {
				l.diag.Info("logger: rotated primary file", "path", l.primary.Path(), "archive", result.ArchivePath)
			}
		}

		// effective is deliberately not returned to corelog's record pool
		// here: under Async dispatch a sink's goroutine may still be
		// reading it after Write returns, and recycling it now would race
		// that read against the pool handing the same *Record to a new
		// producer.
	}
}
