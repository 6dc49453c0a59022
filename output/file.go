package output

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/hesphoros/lumberhouse/corelog"
	"github.com/hesphoros/lumberhouse/filter"
	"github.com/hesphoros/lumberhouse/format"
)

// sizeTrackingWriter wraps an *os.File and tracks total bytes written,
// the same shape as the teacher's handler.sizeTrackingWriter.
type sizeTrackingWriter struct {
	f       *os.File
	written int64
}

func (s *sizeTrackingWriter) Write(p []byte) (int, error) {
	n, err := s.f.Write(p)
	s.written += int64(n)
	return n, err
}

// FileConfig configures a FileSink. Rotation is not this sink's job:
// the rotation package drives Rotate() when its own triggers fire, and
// this sink only tracks CurrentSize for the rotation engine to poll.
type FileConfig struct {
	Name      string
	Path      string
	Formatter format.Formatter
	MinLevel  corelog.Level
	// AutoFlush flushes the buffered writer after every record; turning
	// it off trades durability for throughput.
	AutoFlush bool
}

// FileSink writes formatted records to a single file, lazily creating
// the file (and its parent directory) on first write.
type FileSink struct {
	stats

	name      string
	path      string
	formatter format.Formatter
	filter    filter.Filter
	minLevel  corelog.Level
	autoFlush bool

	mu         sync.Mutex
	file       *os.File
	sizeWriter *sizeTrackingWriter
	bufWriter  *bufio.Writer

	enabled atomic.Bool
	size    atomic.Int64
}

// NewFileSink builds a FileSink from cfg. The file is not opened until
// the first Write call, matching the spec's lazy-creation requirement.
func NewFileSink(cfg FileConfig) *FileSink {
	fm := cfg.Formatter
	if fm == nil {
		fm = format.NewTextFormatter(format.Config{})
	}
	name := cfg.Name
	if name == "" {
		name = filepath.Base(cfg.Path)
	}
	fs := &FileSink{
		name:      name,
		path:      cfg.Path,
		formatter: fm,
		minLevel:  cfg.MinLevel,
		autoFlush: cfg.AutoFlush,
	}
	fs.enabled.Store(true)
	return fs
}

func (f *FileSink) statsRef() *stats { return &f.stats }

func (f *FileSink) Name() string     { return f.name }
func (f *FileSink) TypeName() string { return "file" }
func (f *FileSink) Path() string     { return f.path }

func (f *FileSink) IsEnabled() bool    { return f.enabled.Load() }
func (f *FileSink) SetEnabled(v bool)  { f.enabled.Store(v) }
func (f *FileSink) MinLevel() corelog.Level     { return f.minLevel }
func (f *FileSink) SetMinLevel(l corelog.Level) { f.minLevel = l }

func (f *FileSink) Formatter() format.Formatter { return f.formatter }
func (f *FileSink) Filter() filter.Filter       { return f.filter }
func (f *FileSink) SetFilter(fl filter.Filter)  { f.filter = fl }

// CurrentSize returns the current file size in bytes, including data
// still sitting in the buffered writer. The rotation engine polls this
// to evaluate its Size strategy.
func (f *FileSink) CurrentSize() int64 { return f.size.Load() }

func (f *FileSink) ensureOpen() error {
	if f.file != nil {
		return nil
	}
	dir := filepath.Dir(f.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("output: create directory %q: %w", dir, err)
		}
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("output: open %q: %w", f.path, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return err
	}
	f.file = file
	f.sizeWriter = &sizeTrackingWriter{f: file}
	f.bufWriter = bufio.NewWriterSize(f.sizeWriter, 4096)
	f.size.Store(info.Size())
	return nil
}

func (f *FileSink) WriteRaw(_ *corelog.Record, data []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.ensureOpen(); err != nil {
		return 0, err
	}
	n, err := f.bufWriter.Write(data)
	if err != nil {
		return n, err
	}
	f.size.Add(int64(n))
	if f.autoFlush {
		if ferr := f.bufWriter.Flush(); ferr != nil {
			return n, ferr
		}
	}
	return n, nil
}

// Write dispatches record through the shared fan-out pipeline.
func (f *FileSink) Write(record *corelog.Record) Result { return Dispatch(f, record) }

func (f *FileSink) Stats() SinkStats { return f.stats.snapshot() }

// Flush forces any buffered bytes to the underlying file.
func (f *FileSink) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bufWriter == nil {
		return nil
	}
	return f.bufWriter.Flush()
}

// Rotate closes the current file handle so a rotation transaction can
// move/compress it, then reopens (creating a fresh, empty file) at the
// same path and resets the tracked size to zero. Callers (the rotation
// engine) are responsible for having already moved the old file aside
// before calling Rotate, matching the teacher's handler.rotate split of
// "close old, rename, open new".
func (f *FileSink) Rotate() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file != nil {
		if err := f.bufWriter.Flush(); err != nil {
			return err
		}
		if err := f.file.Sync(); err != nil {
			return err
		}
		if err := f.file.Close(); err != nil {
			return err
		}
		f.file = nil
	}
	if err := f.ensureOpen(); err != nil {
		return err
	}
	f.size.Store(0)
	return nil
}

func (f *FileSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	if err := f.bufWriter.Flush(); err != nil {
		f.file.Close()
		return err
	}
	if err := f.file.Sync(); err != nil {
		f.file.Close()
		return err
	}
	return f.file.Close()
}
