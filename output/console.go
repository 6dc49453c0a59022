package output

import (
	"io"
	"os"
	"sync"

	"github.com/hesphoros/lumberhouse/corelog"
	"github.com/hesphoros/lumberhouse/filter"
	"github.com/hesphoros/lumberhouse/format"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// ConsoleConfig configures a ConsoleSink.
type ConsoleConfig struct {
	// Name identifies the sink in Manager.GetSink lookups.
	Name string
	// Formatter renders a Record. Defaults to format.NewTextFormatter.
	Formatter format.Formatter
	// MinLevel is the sink-local floor; records below it are Filtered.
	MinLevel corelog.Level
	// SplitStreams sends Warning-and-above to Stderr, the rest to
	// Stdout, matching most teacher CLIs' console behavior.
	SplitStreams bool
	// Color requests ANSI coloring of the default formatter's level
	// bracket and fields. Auto-downgraded to off when the target stream
	// isn't a terminal, the same guard fatih/color applies to
	// os.Stdout globally; here it's applied per-stream since
	// SplitStreams can send one sink to two different file descriptors.
	Color bool
}

// ConsoleSink writes records to stdout/stderr, optionally split by
// level. Coloring, when enabled, is the formatter's job (format.Config.
// Color): the sink only decides whether the stream it owns is a
// terminal worth coloring for, and wraps it with mattn/go-colorable so
// the formatter's ANSI escapes render on Windows consoles that don't
// natively interpret them. Grounded on the teacher's
// handler.ConsoleHandler, minus its own async queue: async dispatch is
// the Manager's job here.
type ConsoleSink struct {
	stats

	name         string
	formatter    format.Formatter
	filter       filter.Filter
	minLevel     corelog.Level
	splitStreams bool

	writeMu sync.Mutex
	stdout  io.Writer
	stderr  io.Writer

	enabledMu sync.Mutex
	enabled   bool
}

// StdoutIsColorTerminal reports whether os.Stdout (and, when
// splitStreams is set, os.Stderr too) is a terminal worth coloring.
// Callers that build their own Formatter ahead of NewConsoleSink (for
// example a config-driven sink factory) use this to make the same
// color decision NewConsoleSink would make for its own default
// formatter, so an explicitly supplied Formatter doesn't silently lose
// the auto-downgrade-on-non-terminal behavior.
func StdoutIsColorTerminal(splitStreams bool) bool {
	colorOut := isatty.IsTerminal(os.Stdout.Fd())
	if !splitStreams {
		return colorOut
	}
	return colorOut && isatty.IsTerminal(os.Stderr.Fd())
}

// NewConsoleSink builds a ConsoleSink from cfg, defaulting Formatter to
// a plain TextFormatter and MinLevel to Trace (accept everything).
func NewConsoleSink(cfg ConsoleConfig) *ConsoleSink {
	stdout, stderr := os.Stdout, os.Stderr
	wantColor := cfg.Color
	colorOut := wantColor && isatty.IsTerminal(stdout.Fd())
	colorErr := wantColor && isatty.IsTerminal(stderr.Fd())

	var outW, errW io.Writer = stdout, stderr
	if colorOut {
		outW = colorable.NewColorable(stdout)
	}
	if colorErr {
		errW = colorable.NewColorable(stderr)
	}

	fm := cfg.Formatter
	if fm == nil {
		// SplitStreams means one sink, two targets with potentially
		// different terminal-ness; fall back to requiring both to be
		// terminals before the shared formatter colors at all, since a
		// single Formatter can't carry two color policies.
		fm = format.NewTextFormatter(format.Config{Color: colorOut && (!cfg.SplitStreams || colorErr)})
	}
	name := cfg.Name
	if name == "" {
		name = "console"
	}
	return &ConsoleSink{
		name:         name,
		formatter:    fm,
		minLevel:     cfg.MinLevel,
		splitStreams: cfg.SplitStreams,
		enabled:      true,
		stdout:       outW,
		stderr:       errW,
	}
}

func (c *ConsoleSink) statsRef() *stats { return &c.stats }

func (c *ConsoleSink) Name() string     { return c.name }
func (c *ConsoleSink) TypeName() string { return "console" }

func (c *ConsoleSink) IsEnabled() bool {
	c.enabledMu.Lock()
	defer c.enabledMu.Unlock()
	return c.enabled
}

func (c *ConsoleSink) SetEnabled(v bool) {
	c.enabledMu.Lock()
	c.enabled = v
	c.enabledMu.Unlock()
}

func (c *ConsoleSink) MinLevel() corelog.Level     { return c.minLevel }
func (c *ConsoleSink) SetMinLevel(l corelog.Level) { c.minLevel = l }

func (c *ConsoleSink) Formatter() format.Formatter { return c.formatter }
func (c *ConsoleSink) Filter() filter.Filter       { return c.filter }
func (c *ConsoleSink) SetFilter(f filter.Filter)   { c.filter = f }

// streamFor picks stdout or stderr for level when SplitStreams is set.
func (c *ConsoleSink) streamFor(level corelog.Level) io.Writer {
	if c.splitStreams && level >= corelog.Warning {
		return c.stderr
	}
	return c.stdout
}

// WriteRaw implements Sink. It locks only around the actual I/O call,
// matching the teacher's lockedWriter pattern in handler/console.go.
func (c *ConsoleSink) WriteRaw(record *corelog.Record, data []byte) (int, error) {
	w := c.streamFor(record.Level)
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return w.Write(data)
}

// Write dispatches record through the shared fan-out pipeline.
func (c *ConsoleSink) Write(record *corelog.Record) Result { return Dispatch(c, record) }

func (c *ConsoleSink) Stats() SinkStats { return c.stats.snapshot() }

func (c *ConsoleSink) Close() error { return nil }
