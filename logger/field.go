package logger

import (
	"time"

	"github.com/hesphoros/lumberhouse/corelog"
)

// Field re-exports corelog.Field.
type Field = corelog.Field

// Field constructors, re-exported for callers that only import logger.

func String(key, val string) Field          { return corelog.String(key, val) }
func Int(key string, val int) Field         { return corelog.Int(key, val) }
func Int64(key string, val int64) Field     { return corelog.Int64(key, val) }
func Float64(key string, val float64) Field { return corelog.Float64(key, val) }
func Bool(key string, val bool) Field       { return corelog.Bool(key, val) }
func Time(key string, val time.Time) Field  { return corelog.Time(key, val) }
func Duration(key string, val time.Duration) Field {
	return corelog.Duration(key, val)
}
func Err(err error) Field                   { return corelog.Err(err) }
func Any(key string, val interface{}) Field { return corelog.Any(key, val) }
