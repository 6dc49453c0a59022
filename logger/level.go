package logger

import "github.com/hesphoros/lumberhouse/corelog"

// Level re-exports corelog.Level so everyday callers only need to
// import this package.
type Level = corelog.Level

const (
	Trace     = corelog.Trace
	Debug     = corelog.Debug
	Info      = corelog.Info
	Notice    = corelog.Notice
	Warning   = corelog.Warning
	Error     = corelog.Error
	Critical  = corelog.Critical
	Alert     = corelog.Alert
	Emergency = corelog.Emergency
	Fatal     = corelog.Fatal
)

// ParseLevel re-exports corelog.ParseLevel.
func ParseLevel(s string) Level { return corelog.ParseLevel(s) }
