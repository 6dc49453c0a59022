package corelog

import (
	"fmt"
	"strconv"
	"time"
)

// FieldType tags which union member of Field is populated.
type FieldType uint8

const (
	StringType FieldType = iota
	IntType
	Int64Type
	Float64Type
	BoolType
	TimeType
	DurationType
	ErrorType
	AnyType
)

// Field is a key-value pair attached to a Record for structured logging.
type Field struct {
	Key     string
	Type    FieldType
	Int64   int64
	Float64 float64
	Str     string
	Any     interface{}
}

// StringValue renders the field's value as text, used by formatters that
// don't special-case the field's type.
func (f Field) StringValue() string {
	switch f.Type {
	case StringType:
		return f.Str
	case IntType, Int64Type:
		return strconv.FormatInt(f.Int64, 10)
	case Float64Type:
		return strconv.FormatFloat(f.Float64, 'f', -1, 64)
	case BoolType:
		return strconv.FormatBool(f.Int64 == 1)
	case TimeType:
		return time.Unix(0, f.Int64).Format(time.RFC3339)
	case DurationType:
		return time.Duration(f.Int64).String()
	case ErrorType:
		return f.Str
	case AnyType:
		return fmt.Sprintf("%v", f.Any)
	default:
		return ""
	}
}

func String(key, val string) Field {
	return Field{Key: key, Type: StringType, Str: val}
}

func Int(key string, val int) Field {
	return Field{Key: key, Type: IntType, Int64: int64(val)}
}

func Int64(key string, val int64) Field {
	return Field{Key: key, Type: Int64Type, Int64: val}
}

func Float64(key string, val float64) Field {
	return Field{Key: key, Type: Float64Type, Float64: val}
}

func Bool(key string, val bool) Field {
	v := int64(0)
	if val {
		v = 1
	}
	return Field{Key: key, Type: BoolType, Int64: v}
}

func Time(key string, val time.Time) Field {
	return Field{Key: key, Type: TimeType, Int64: val.UnixNano()}
}

func Duration(key string, val time.Duration) Field {
	return Field{Key: key, Type: DurationType, Int64: int64(val)}
}

func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Type: ErrorType}
	}
	return Field{Key: "error", Type: ErrorType, Str: err.Error()}
}

func Any(key string, val interface{}) Field {
	return Field{Key: key, Type: AnyType, Any: val}
}
