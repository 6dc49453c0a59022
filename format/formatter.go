// Package format renders Records into bytes for a sink. Grounded on the
// teacher's formatter package: the Formatter/WriterFormatter/
// BufferFormatter capability split is kept verbatim because it is what
// lets sinks avoid an allocation on the hot path when a formatter
// supports it.
package format

import (
	"bytes"
	"io"
	"sync"

	"github.com/hesphoros/lumberhouse/corelog"
)

// Formatter turns a Record into its wire bytes.
type Formatter interface {
	Format(record *corelog.Record) ([]byte, error)
}

// WriterFormatter lets a formatter write directly to an io.Writer,
// skipping an intermediate byte slice.
type WriterFormatter interface {
	FormatTo(record *corelog.Record, w io.Writer) error
}

// BufferFormatter lets a formatter write into a caller-owned buffer,
// skipping the package-level buffer pool entirely.
type BufferFormatter interface {
	FormatEntry(record *corelog.Record, buf *bytes.Buffer)
}

// Config holds settings common to every formatter implementation.
type Config struct {
	IncludeCaller   bool
	TimestampFormat string
	// Color enables fatih/color-driven per-level styling in
	// TextFormatter. Ignored by JSONFormatter, whose consumers are
	// programs, not terminals.
	Color bool
}

var bufferPool = sync.Pool{
	New: func() interface{} {
		b := new(bytes.Buffer)
		b.Grow(256)
		return b
	},
}

func getBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func putBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 64*1024 {
		return
	}
	bufferPool.Put(buf)
}
