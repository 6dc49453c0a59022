// Package logger is the public façade of the logging core: it wires the
// bounded write queue, the callback registry, the filter slot, the
// output fan-out manager and the rotation engine into the single entry
// point producers use.
//
// A Logger is assembled through Builder, never constructed directly:
//
//	log, err := logger.NewBuilder().
//	    WithLevel(logger.Info).
//	    AddSink(output.NewConsoleSink(output.ConsoleConfig{Color: true})).
//	    Build()
//
// Producers call the per-level convenience methods (Info, Warn, Error,
// ...) or Write directly. Write evaluates the logger-wide filter (if
// any), broadcasts the record to subscribed callbacks and enqueues it
// for the single writer goroutine, which fans the record out to every
// registered sink and gives the rotation engine (if configured) a
// chance to act.
//
// The package-level functions (Info, Error, With, ...) delegate to a
// default console-only Logger initialized in init(); call SetDefault to
// replace it.
package logger
