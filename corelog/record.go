package corelog

import (
	"bytes"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"
)

// CallerInfo describes the call site that produced a Record, when caller
// capture is enabled on the logger.
type CallerInfo struct {
	File      string
	ShortFile string
	Line      int
	Function  string
	Defined   bool
}

// Record is a single immutable log event. It is created by a producer
// and handed by pointer through the pipeline. PutRecord returns a Record
// to the package pool; nothing may retain a *Record across that call.
type Record struct {
	Time           time.Time
	Level          Level
	Message        string
	Fields         []Field
	FormattedLevel string
	Caller         CallerInfo
	GoroutineID    uint64
}

var recordPool = sync.Pool{
	New: func() interface{} {
		return &Record{Fields: make([]Field, 0, 8)}
	},
}

// GetRecord retrieves a zeroed Record from the pool, stamped with the
// current time.
func GetRecord() *Record {
	r := recordPool.Get().(*Record)
	r.Time = time.Now()
	r.Fields = r.Fields[:0]
	r.Caller = CallerInfo{}
	r.FormattedLevel = ""
	r.GoroutineID = 0
	return r
}

// PutRecord returns a Record to the pool. Callers must not use r after
// this call.
func PutRecord(r *Record) {
	if r == nil {
		return
	}
	r.Fields = r.Fields[:0]
	r.Message = ""
	r.Caller = CallerInfo{}
	recordPool.Put(r)
}

// GetCaller walks the call stack skip frames up and captures file/line/
// function. Mirrors the teacher's core.GetCaller.
func GetCaller(skip int) CallerInfo {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return CallerInfo{}
	}
	var funcName string
	if fn := runtime.FuncForPC(pc); fn != nil {
		funcName = fn.Name()
	}
	return CallerInfo{
		File:      file,
		ShortFile: filepath.Base(file),
		Line:      line,
		Function:  funcName,
		Defined:   true,
	}
}

// GoroutineID parses the current goroutine's id out of a runtime stack
// dump. This is the conventional (if officially unsupported) stand-in
// for the spec's "producing thread id" on a runtime with no stable
// thread handle; a logger built without Builder.WithGoroutineID never
// calls it, so that cost is skipped entirely.
func GoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	const prefix = "goroutine "
	if idx := bytes.Index(b, []byte(prefix)); idx >= 0 {
		b = b[idx+len(prefix):]
	}
	end := bytes.IndexByte(b, ' ')
	if end < 0 {
		return 0
	}
	id, err := strconv.ParseUint(string(b[:end]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
