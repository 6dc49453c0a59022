package format

import (
	"bytes"
	"io"
	"strconv"
	"time"

	"github.com/hesphoros/lumberhouse/corelog"
)

// JSONFormatter renders a Record as a single-line JSON object. Built by
// hand rather than via encoding/json to stay on the allocation-free
// buffer path the teacher's formatter package is built around.
type JSONFormatter struct {
	Config
}

func NewJSONFormatter(cfg Config) *JSONFormatter {
	if cfg.TimestampFormat == "" {
		cfg.TimestampFormat = time.RFC3339Nano
	}
	return &JSONFormatter{Config: cfg}
}

func (f *JSONFormatter) Format(record *corelog.Record) ([]byte, error) {
	buf := getBuffer()
	defer putBuffer(buf)
	f.formatJSONToBuffer(record, buf)
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func (f *JSONFormatter) FormatTo(record *corelog.Record, w io.Writer) error {
	buf := getBuffer()
	f.formatJSONToBuffer(record, buf)
	_, err := w.Write(buf.Bytes())
	putBuffer(buf)
	return err
}

func (f *JSONFormatter) FormatEntry(record *corelog.Record, buf *bytes.Buffer) {
	f.formatJSONToBuffer(record, buf)
}

func (f *JSONFormatter) formatJSONToBuffer(record *corelog.Record, buf *bytes.Buffer) {
	buf.WriteByte('{')

	buf.WriteString(`"time":"`)
	buf.Write(record.Time.AppendFormat(buf.AvailableBuffer(), f.TimestampFormat))
	buf.WriteByte('"')

	buf.WriteString(`,"level":"`)
	buf.WriteString(record.Level.String())
	buf.WriteByte('"')

	buf.WriteString(`,"message":"`)
	appendJSONString(buf, record.Message)
	buf.WriteByte('"')

	if f.IncludeCaller && record.Caller.Defined {
		buf.WriteString(`,"caller":{"file":"`)
		appendJSONString(buf, record.Caller.ShortFile)
		buf.WriteString(`","line":`)
		buf.WriteString(strconv.Itoa(record.Caller.Line))
		if record.Caller.Function != "" {
			buf.WriteString(`,"function":"`)
			appendJSONString(buf, record.Caller.Function)
			buf.WriteByte('"')
		}
		buf.WriteByte('}')
	}

	for _, field := range record.Fields {
		buf.WriteString(`,"`)
		appendJSONString(buf, field.Key)
		buf.WriteString(`":`)
		appendJSONFieldValue(buf, field)
	}

	buf.WriteString("}\n")
}

func appendJSONString(buf *bytes.Buffer, s string) {
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x20 && c != '"' && c != '\\' {
			continue
		}
		if start < i {
			buf.WriteString(s[start:i])
		}
		switch c {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			buf.WriteString(`\u00`)
			buf.WriteByte(hexChars[c>>4])
			buf.WriteByte(hexChars[c&0x0f])
		}
		start = i + 1
	}
	if start < len(s) {
		buf.WriteString(s[start:])
	}
}

var hexChars = [16]byte{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9', 'a', 'b', 'c', 'd', 'e', 'f'}

func appendJSONFieldValue(buf *bytes.Buffer, field corelog.Field) {
	switch field.Type {
	case corelog.StringType, corelog.ErrorType:
		buf.WriteByte('"')
		appendJSONString(buf, field.Str)
		buf.WriteByte('"')
	case corelog.IntType, corelog.Int64Type:
		buf.Write(strconv.AppendInt(buf.AvailableBuffer(), field.Int64, 10))
	case corelog.Float64Type:
		buf.Write(strconv.AppendFloat(buf.AvailableBuffer(), field.Float64, 'f', -1, 64))
	case corelog.BoolType:
		buf.Write(strconv.AppendBool(buf.AvailableBuffer(), field.Int64 == 1))
	case corelog.TimeType:
		buf.WriteByte('"')
		buf.Write(time.Unix(0, field.Int64).AppendFormat(buf.AvailableBuffer(), time.RFC3339Nano))
		buf.WriteByte('"')
	case corelog.DurationType:
		buf.Write(strconv.AppendInt(buf.AvailableBuffer(), field.Int64, 10))
	default:
		buf.WriteByte('"')
		appendJSONString(buf, field.StringValue())
		buf.WriteByte('"')
	}
}
