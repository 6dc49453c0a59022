// Command logdemo exercises the logging core end to end: a console
// sink, a size-rotated file sink, a logger-wide level filter and a
// callback subscriber, all wired from a hard-coded
// configuration. It is a demonstration binary, not a general-purpose
// CLI wrapper around the library.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hesphoros/lumberhouse/compress"
	"github.com/hesphoros/lumberhouse/corelog"
	"github.com/hesphoros/lumberhouse/filter"
	"github.com/hesphoros/lumberhouse/logger"
	"github.com/hesphoros/lumberhouse/output"
	"github.com/hesphoros/lumberhouse/rotation"
)

func main() {
	dir := flag.String("dir", "./logdemo-out", "directory to write the demo log file into")
	count := flag.Int("count", 200, "number of log records to emit")
	maxSizeBytes := flag.Int64("max-size", 8192, "rotate the demo file once it reaches this size")
	flag.Parse()

	if err := run(*dir, *count, *maxSizeBytes); err != nil {
		fmt.Fprintln(os.Stderr, "logdemo:", err)
		os.Exit(1)
	}
}

func run(dir string, count int, maxSizeBytes int64) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	logPath := filepath.Join(dir, "demo.log")

	pool := compress.NewPool(2, compress.DefaultMaxFileSize)
	defer pool.Close()

	fileSink := output.NewFileSink(output.FileConfig{
		Name:      "demo-file",
		Path:      logPath,
		Formatter: nil, // defaults to a text formatter
		AutoFlush: true,
	})

	var rotations int
	rotationCfg := rotation.Config{
		Strategy:     rotation.NewSizeStrategy(maxSizeBytes),
		ArchiveDir:   dir,
		PreChecker:   rotation.NewPreChecker(),
		OnTransition: func(t rotation.Transition) {
			if t.To == rotation.Completed {
				rotations++
			}
		},
		Compress: func(path string) error {
			done := make(chan compress.Result, 1)
			if err := pool.Submit(&compress.Task{
				Source:     path,
				Target:     path + ".zip",
				Priority:   compress.Normal,
				OnComplete: func(r compress.Result) { done <- r },
			}); err != nil {
				return err
			}
			r := <-done
			if r.Err != nil {
				return r.Err
			}
			return os.Remove(path)
		},
	}

	diag := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	log, err := logger.NewBuilder().
		WithLevel(logger.Trace).
		WithCaller(true).
		WithDiagnostics(diag).
		WithFields(logger.String("demo", "logdemo")).
		AddSink(output.NewConsoleSink(output.ConsoleConfig{Name: "console", SplitStreams: true, Color: true})).
		AddSink(fileSink).
		WithRotation(rotationCfg, fileSink).
		WithFilter(filter.NewLevelFilter(corelog.Trace, corelog.Fatal)).
		Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	unsub := log.Subscribe(logger.Warning, func(r *corelog.Record) {
		diag.Warn("logdemo: high-severity record observed", "level", r.Level.String(), "message", r.Message)
	})
	defer log.Unsubscribe(unsub)

	for i := 0; i < count; i++ {
		level := corelog.Info
		switch i % 23 {
		case 0:
			level = corelog.Warning
		case 7:
			level = corelog.Error
		}
		log.Write(level, "demo", "synthetic record", logger.Int("sequence", i), logger.Time("emitted_at", time.Now()))
	}

	log.Flush()
	if err := log.Close(); err != nil {
		return fmt.Errorf("close logger: %w", err)
	}

	fmt.Printf("logdemo: wrote %d records, %d rotations, output in %s\n", count, rotations, dir)
	return nil
}
