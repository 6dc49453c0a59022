package format

import (
	"bytes"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/hesphoros/lumberhouse/corelog"
)

// TextFormatter renders a Record as human-readable text. When Color is
// set, the level bracket and field list are colorized per-level with
// fatih/color rather than the teacher's approach of wrapping the whole
// line in a hand-picked ANSI escape from the sink: coloring at the
// formatter level means a colorized record looks the same whether it
// lands on a console, a colorable-wrapped file, or a test buffer, and
// lets each region (level, fields) carry its own style instead of one
// blanket color for the entire line.
type TextFormatter struct {
	Config

	levelColors [corelog.Fatal + 1]*color.Color
	fieldColor  *color.Color
}

// NewTextFormatter creates a TextFormatter, defaulting TimestampFormat
// to RFC3339 when unset. Color output is forced on or off per instance
// regardless of fatih/color's global NoColor auto-detection, since that
// detection inspects os.Stdout directly and this formatter may be
// writing into a pooled buffer destined for any sink.
func NewTextFormatter(cfg Config) *TextFormatter {
	if cfg.TimestampFormat == "" {
		cfg.TimestampFormat = time.RFC3339
	}
	f := &TextFormatter{Config: cfg}
	if cfg.Color {
		f.levelColors = levelColorTable()
		f.fieldColor = color.New(color.Faint)
		f.fieldColor.EnableColor()
	}
	return f
}

func levelColorTable() [corelog.Fatal + 1]*color.Color {
	var t [corelog.Fatal + 1]*color.Color
	t[corelog.Trace] = color.New(color.FgHiBlack)
	t[corelog.Debug] = color.New(color.FgCyan)
	t[corelog.Info] = color.New(color.FgGreen)
	t[corelog.Notice] = color.New(color.FgBlue)
	t[corelog.Warning] = color.New(color.FgYellow)
	t[corelog.Error] = color.New(color.FgRed)
	t[corelog.Critical] = color.New(color.FgMagenta, color.Bold)
	t[corelog.Alert] = color.New(color.FgHiMagenta, color.Bold)
	t[corelog.Emergency] = color.New(color.BgRed, color.FgHiWhite, color.Bold)
	t[corelog.Fatal] = color.New(color.BgRed, color.FgHiWhite, color.Bold, color.Underline)
	for _, c := range t {
		if c != nil {
			c.EnableColor()
		}
	}
	return t
}

func (f *TextFormatter) Format(record *corelog.Record) ([]byte, error) {
	buf := getBuffer()
	defer putBuffer(buf)
	f.formatToBuffer(record, buf)
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func (f *TextFormatter) FormatTo(record *corelog.Record, w io.Writer) error {
	buf := getBuffer()
	f.formatToBuffer(record, buf)
	_, err := w.Write(buf.Bytes())
	putBuffer(buf)
	return err
}

func (f *TextFormatter) FormatEntry(record *corelog.Record, buf *bytes.Buffer) {
	f.formatToBuffer(record, buf)
}

var levelBrackets = [...]string{
	corelog.Trace:     "[TRACE]",
	corelog.Debug:     "[DEBUG]",
	corelog.Info:      "[INFO]",
	corelog.Notice:    "[NOTICE]",
	corelog.Warning:   "[WARNING]",
	corelog.Error:     "[ERROR]",
	corelog.Critical:  "[CRITICAL]",
	corelog.Alert:     "[ALERT]",
	corelog.Emergency: "[EMERGENCY]",
	corelog.Fatal:     "[FATAL]",
}

func (f *TextFormatter) bracketFor(level corelog.Level) string {
	if int(level) < 0 || int(level) >= len(levelBrackets) {
		return "[UNKNOWN]"
	}
	return levelBrackets[level]
}

func (f *TextFormatter) formatToBuffer(record *corelog.Record, buf *bytes.Buffer) {
	buf.Write(record.Time.AppendFormat(buf.AvailableBuffer(), f.TimestampFormat))
	buf.WriteByte(' ')

	bracket := f.bracketFor(record.Level)
	if f.Color && int(record.Level) >= 0 && int(record.Level) < len(f.levelColors) && f.levelColors[record.Level] != nil {
		buf.WriteString(f.levelColors[record.Level].Sprint(bracket))
	} else {
		buf.WriteString(bracket)
	}
	buf.WriteByte(' ')

	if f.IncludeCaller && record.Caller.Defined {
		buf.WriteByte('[')
		buf.WriteString(record.Caller.ShortFile)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(record.Caller.Line))
		buf.WriteString("] ")
	}

	buf.WriteString(record.Message)

	for _, field := range record.Fields {
		buf.WriteByte(' ')
		if f.Color && f.fieldColor != nil {
			buf.WriteString(f.fieldColor.Sprintf("%s=%s", field.Key, field.StringValue()))
		} else {
			buf.WriteString(field.Key)
			buf.WriteByte('=')
			buf.WriteString(field.StringValue())
		}
	}

	buf.WriteByte('\n')
}
