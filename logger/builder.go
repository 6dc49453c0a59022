package logger

import (
	"log/slog"

	"github.com/hesphoros/lumberhouse/callback"
	"github.com/hesphoros/lumberhouse/corelog"
	"github.com/hesphoros/lumberhouse/filter"
	"github.com/hesphoros/lumberhouse/output"
	"github.com/hesphoros/lumberhouse/queue"
	"github.com/hesphoros/lumberhouse/rotation"
)

// Builder assembles a Logger from its constituent subsystems, mirroring
// the teacher's fluent logger.Builder.
type Builder struct {
	minLevel           corelog.Level
	fields             []corelog.Field
	includeCaller      bool
	callerSkip         int
	includeGoroutineID bool

	queueCfg  queue.Config
	writeMode output.WriteMode
	sinks     []output.Sink

	rotationCfg *rotation.Config
	primary     rotation.FileRef

	filter filter.Filter
	diag   *slog.Logger
}

// NewBuilder returns a Builder with conservative defaults: Info level, a
// 4096-item blocking queue, Sequential dispatch, no rotation engine.
func NewBuilder() *Builder {
	return &Builder{
		minLevel:   corelog.Info,
		callerSkip: 4,
		queueCfg:   queue.Config{Capacity: 4096, Policy: queue.Block},
		writeMode:  output.Sequential,
	}
}

// WithLevel sets the logger's initial minimum level.
func (b *Builder) WithLevel(level corelog.Level) *Builder {
	b.minLevel = level
	return b
}

// WithFields attaches default fields applied to every record the built
// Logger writes.
func (b *Builder) WithFields(fields ...corelog.Field) *Builder {
	b.fields = append(b.fields, fields...)
	return b
}

// WithCaller enables call-site capture (file/line/function).
func (b *Builder) WithCaller(enabled bool) *Builder {
	b.includeCaller = enabled
	return b
}

// WithCallerSkip overrides the runtime.Caller skip count used for
// caller capture; only relevant when WithCaller(true) is also set.
func (b *Builder) WithCallerSkip(skip int) *Builder {
	b.callerSkip = skip
	return b
}

// WithGoroutineID enables capturing the producing goroutine's id,
// substituting for the spec's "producing thread id" on a runtime with
// no stable thread handle.
func (b *Builder) WithGoroutineID(enabled bool) *Builder {
	b.includeGoroutineID = enabled
	return b
}

// WithQueue overrides the write queue's capacity and overflow policy.
func (b *Builder) WithQueue(cfg queue.Config) *Builder {
	b.queueCfg = cfg
	return b
}

// WithWriteMode selects Sequential, Parallel or Async sink dispatch.
func (b *Builder) WithWriteMode(mode output.WriteMode) *Builder {
	b.writeMode = mode
	return b
}

// AddSink registers a sink on the built Logger's output manager.
func (b *Builder) AddSink(sink output.Sink) *Builder {
	b.sinks = append(b.sinks, sink)
	return b
}

// WithRotation arms a rotation engine for primary, the sink whose
// current-size/rotate lifecycle the engine drives from the writer loop.
func (b *Builder) WithRotation(cfg rotation.Config, primary rotation.FileRef) *Builder {
	b.rotationCfg = &cfg
	b.primary = primary
	return b
}

// WithFilter installs the logger-wide filter.
func (b *Builder) WithFilter(f filter.Filter) *Builder {
	b.filter = f
	return b
}

// WithDiagnostics sets the side-channel slog.Logger used for the
// logger's own operational diagnostics; defaults to slog.Default().
func (b *Builder) WithDiagnostics(l *slog.Logger) *Builder {
	b.diag = l
	return b
}

// Build constructs the Logger and starts its writer goroutine.
func (b *Builder) Build() (*Logger, error) {
	diag := b.diag
	if diag == nil {
		diag = slog.Default()
	}

	q := queue.New(b.queueCfg)
	mgr := output.NewManager(b.writeMode)
	for _, s := range b.sinks {
		mgr.AddSink(s)
	}

	var eng *rotation.Engine
	if b.rotationCfg != nil {
		var err error
		eng, err = rotation.NewEngine(*b.rotationCfg)
		if err != nil {
			return nil, err
		}
	}

	l := &Logger{
		fields:             b.fields,
		includeCaller:      b.includeCaller,
		callerSkip:         b.callerSkip,
		includeGoroutineID: b.includeGoroutineID,
		queue:              q,
		callbacks:          callback.NewRegistry(),
		outputs:            mgr,
		rotation:           eng,
		primary:            b.primary,
		filter:             b.filter,
		diag:               diag,
	}
	l.minLevel.Store(int32(b.minLevel))

	if eng != nil && b.primary != nil {
		primary := b.primary
		if err := eng.StartScheduler(func() {
			if _, _, err := eng.CheckAndRotate(primary); err != nil {
				diag.Warn("logger: scheduled rotation failed", "error", err)
			}
		}); err != nil {
			return nil, err
		}
	}

	l.wg.Add(1)
	go l.run()

	return l, nil
}
