package rotation

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// FileRef is the minimal surface the Engine needs from whatever holds
// the live file handle (output.FileSink in this module), kept as an
// interface so rotation doesn't import output and create a cycle.
type FileRef interface {
	Path() string
	CurrentSize() int64
	Rotate() error
	Flush() error
}

// Config configures an Engine.
type Config struct {
	Strategy     Strategy
	NamePattern  NamePattern
	ArchiveDir   string
	AsyncWorkers int
	PreChecker   *PreChecker
	// Compress, if non-nil, is called with the rotated-aside file's path
	// after a successful rename, so the compress package can archive it
	// without rotation importing compress back.
	Compress     func(path string) error
	OnTransition func(Transition)
}

// Engine ties Strategy, StateMachine, PreChecker, Transaction and
// AsyncManager together into the single entry point the logger façade
// drives: CheckAndRotate (synchronous, called from the writer loop) and
// ForceRotationAsync (submitted to the async pool).
type Engine struct {
	cfg   Config
	sm    *StateMachine
	pc    *PreChecker
	async *AsyncManager

	mu           sync.Mutex
	lastRotation time.Time

	statsMu sync.Mutex
	stats   Stats

	scheduler gocron.Scheduler
}

// NewEngine builds an Engine. It starts the async worker pool but no
// scheduler; StartScheduler arms the recurring gocron job for Time and
// SizeAndTime strategies (github.com/go-co-op/gocron/v2, grounded on
// gastrolog's dependency on it, in place of a hand-rolled ticker).
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.PreChecker == nil {
		cfg.PreChecker = NewPreChecker()
	}
	if cfg.AsyncWorkers <= 0 {
		cfg.AsyncWorkers = clampWorkers(runtime.GOMAXPROCS(0))
	}
	if cfg.NamePattern.Template == "" {
		cfg.NamePattern = DefaultNamePattern()
	}

	e := &Engine{
		cfg:   cfg,
		sm:    NewStateMachine(cfg.OnTransition),
		pc:    cfg.PreChecker,
		async: NewAsyncManager(cfg.AsyncWorkers),
	}
	return e, nil
}

func clampWorkers(n int) int {
	if n < 2 {
		return 2
	}
	return n
}

// StartScheduler arms a gocron job for Time/SizeAndTime strategies that
// calls trigger at a fixed interval counted from when the scheduler
// starts: one hour, one day, seven days or 30 days by TimeUnit (Daily
// and unknown units use one day). It does not align to calendar
// boundaries; the trigger's own check decides whether one was crossed.
// No-op for Size/Manual strategies.
func (e *Engine) StartScheduler(trigger func()) error {
	if e.cfg.Strategy.Kind != Time && e.cfg.Strategy.Kind != SizeAndTime {
		return nil
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("rotation: start scheduler: %w", err)
	}
	var def gocron.JobDefinition
	switch e.cfg.Strategy.Unit {
	case Hourly:
		def = gocron.DurationJob(time.Hour)
	case Weekly:
		def = gocron.DurationJob(7 * 24 * time.Hour)
	case Monthly:
		def = gocron.DurationJob(30 * 24 * time.Hour)
	default:
		def = gocron.DurationJob(24 * time.Hour)
	}
	_, err = s.NewJob(def, gocron.NewTask(trigger))
	if err != nil {
		return fmt.Errorf("rotation: schedule job: %w", err)
	}
	e.scheduler = s
	s.Start()
	return nil
}

// StopScheduler shuts the gocron scheduler down, if one was started.
func (e *Engine) StopScheduler() error {
	if e.scheduler == nil {
		return nil
	}
	return e.scheduler.Shutdown()
}

// State returns the engine's current rotation state.
func (e *Engine) State() State { return e.sm.Current() }

// Journal returns the bounded transition history.
func (e *Engine) Journal() []Transition { return e.sm.Journal() }

// Stats returns a snapshot of the engine's lifetime rotation activity.
func (e *Engine) Stats() Stats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	return e.stats
}

// CheckAndRotate evaluates the strategy against f's current size/age
// and, if due, runs a full synchronous rotation, returning the
// RotationResult of that attempt. attempted is false (and result the
// zero value) when the strategy decided no rotation was due.
func (e *Engine) CheckAndRotate(f FileRef) (result RotationResult, attempted bool, err error) {
	e.mu.Lock()
	last := e.lastRotation
	e.mu.Unlock()

	decision := e.cfg.Strategy.Evaluate(Context{CurrentSize: f.CurrentSize(), LastRotation: last, Now: time.Now()})
	if !decision.ShouldRotate {
		return RotationResult{}, false, nil
	}
	result, err = e.rotate(f, decision.Reason)
	return result, true, err
}

// ForceRotation runs a rotation immediately on the caller's goroutine,
// regardless of what the strategy says, and returns its RotationResult.
func (e *Engine) ForceRotation(f FileRef) (RotationResult, error) {
	return e.rotate(f, "forced")
}

// ForceRotationAsync submits a rotation request to the async worker
// pool and returns a channel receiving its RotationResult.
func (e *Engine) ForceRotationAsync(f FileRef) <-chan RotationResult {
	resultCh := make(chan RotationResult, 1)
	var result RotationResult
	done := e.async.Submit(context.Background(), f.Path(), 10, func(ctx context.Context) error {
		r, err := e.rotate(f, "forced-async")
		result = r
		return err
	})
	go func() {
		<-done
		resultCh <- result
	}()
	return resultCh
}

// PendingRotationTasks returns the number of queued-but-not-started
// async rotation requests.
func (e *Engine) PendingRotationTasks() int { return e.async.Pending() }

// CancelPendingRotationTasks cancels every request still sitting in the
// async queue, returning how many were cancelled.
func (e *Engine) CancelPendingRotationTasks() int { return e.async.CancelAll() }

// Close stops the scheduler (if any) and the async worker pool.
func (e *Engine) Close() error {
	e.StopScheduler()
	e.async.Close()
	return nil
}

func (e *Engine) recordStats(reason string, result RotationResult) {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()

	e.stats.TotalRotations++
	switch classifyTrigger(reason) {
	case triggerManual:
		e.stats.ManualRotations++
	case triggerSize:
		e.stats.SizeTriggeredRotations++
	case triggerTime:
		e.stats.TimeTriggeredRotations++
	case triggerSizeAndTime:
		e.stats.SizeTriggeredRotations++
		e.stats.TimeTriggeredRotations++
	}

	if result.Success {
		e.stats.SuccessfulRotations++
		e.stats.LastRotationTime = result.RotationTime
		e.stats.TotalArchivedFiles++
		if info, err := os.Stat(result.ArchivePath); err == nil {
			e.stats.TotalArchivedBytes += info.Size()
		}
	} else {
		e.stats.FailedRotations++
	}

	e.stats.TotalDuration += result.Duration
	if e.stats.TotalRotations > 0 {
		e.stats.AverageDuration = e.stats.TotalDuration / time.Duration(e.stats.TotalRotations)
	}
}

// rotate drives one rotation attempt through the full state sequence:
// Idle -> Checking -> Preparing -> PreCheck -> Rotating -> [Compressing]
// -> Cleaning -> Completing -> Completed -> Idle, with Failed/
// Recovering/Rollback as the error path. It always returns a
// RotationResult, successful or not, alongside the error (if any).
func (e *Engine) rotate(f FileRef, reason string) (RotationResult, error) {
	start := time.Now()
	result := RotationResult{OldPath: f.Path()}

	fail := func(err error) (RotationResult, error) {
		e.sm.Transition(Failed, err.Error())
		e.sm.Transition(Idle, "recovered")
		result.Success = false
		result.ErrorMessage = err.Error()
		result.Duration = time.Since(start)
		e.recordStats(reason, result)
		return result, err
	}

	if err := e.sm.Transition(Checking, reason); err != nil {
		return fail(err)
	}
	if err := e.sm.Transition(Preparing, reason); err != nil {
		return fail(err)
	}
	if err := f.Flush(); err != nil {
		return fail(err)
	}

	dir := e.cfg.ArchiveDir
	if dir == "" {
		dir = filepath.Dir(f.Path())
	}
	backupDir, err := os.MkdirTemp(dir, "rotation_backup_*")
	if err != nil {
		return fail(err)
	}

	ext := filepath.Ext(f.Path())
	base := filepath.Base(f.Path())
	base = base[:len(base)-len(ext)]
	archiveName := e.cfg.NamePattern.Expand(Params{
		Basename:  base,
		Extension: ext[min(1, len(ext)):],
		Size:      f.CurrentSize(),
		Timestamp: time.Now(),
	})
	archivePath := filepath.Join(dir, archiveName)
	backupPath := filepath.Join(backupDir, filepath.Base(f.Path()))
	result.ArchivePath = archivePath
	result.NewPath = f.Path()

	compressing := e.cfg.Compress != nil
	result.CompressionScheduled = compressing

	if err := e.sm.Transition(PreCheck, reason); err != nil {
		os.RemoveAll(backupDir)
		return fail(err)
	}
	checks := e.pc.Run(PreCheckInput{
		Path:        f.Path(),
		TargetPath:  archivePath,
		FileSize:    f.CurrentSize(),
		BackupSize:  0,
		Compressing: compressing,
	})
	if !CanRotate(checks) {
		os.RemoveAll(backupDir)
		return fail(fmt.Errorf("rotation: pre-check failed for %s", f.Path()))
	}

	txn := NewTransaction(backupDir, 30*time.Second)
	txn.AddOperation(&Operation{
		Kind:   FileRename,
		Source: f.Path(),
		Target: archivePath,
		Backup: backupPath,
		Forward: func() error {
			if err := copyFile(f.Path(), backupPath); err != nil {
				return err
			}
			return os.Rename(f.Path(), archivePath)
		},
		Rollback: func() error {
			return os.Rename(archivePath, f.Path())
		},
	})
	if compressing {
		txn.AddOperation(&Operation{
			Kind:   Compress,
			Source: archivePath,
			Forward: func() error {
				e.sm.Transition(Compressing, "compressing archive")
				return e.cfg.Compress(archivePath)
			},
			Rollback: func() error { return nil },
		})
	}

	if err := e.sm.Transition(Rotating, reason); err != nil {
		os.RemoveAll(backupDir)
		return fail(err)
	}

	if err := txn.Execute(); err != nil {
		e.sm.Transition(Failed, err.Error())
		e.sm.Transition(Rollback, err.Error())
		e.sm.Transition(Idle, "rolled back")
		os.RemoveAll(backupDir)
		result.Success = false
		result.ErrorMessage = err.Error()
		result.Duration = time.Since(start)
		e.recordStats(reason, result)
		return result, err
	}

	// Reopening the live file handle can fail transiently (the file
	// briefly busy, a slow filesystem) in ways classified RecoveryRetry
	// by errors.go; drive those through Recovering and back into
	// Rotating rather than failing the whole rotation on the first try.
	rotateErr := RetryWithBackoff(context.Background(), 3, 50*time.Millisecond, 500*time.Millisecond, func() error {
		if err := f.Rotate(); err != nil {
			e.sm.Transition(Failed, err.Error())
			if RecoveryFor(ClassifyError(err)) == RecoveryRetry {
				e.sm.Transition(Recovering, "retrying rotate")
				e.sm.Transition(Rotating, "retry")
			}
			return err
		}
		return nil
	})
	if rotateErr != nil {
		txn.Rollback()
		e.sm.Transition(Failed, rotateErr.Error())
		e.sm.Transition(Rollback, rotateErr.Error())
		e.sm.Transition(Idle, "rolled back")
		result.Success = false
		result.ErrorMessage = rotateErr.Error()
		result.Duration = time.Since(start)
		e.recordStats(reason, result)
		return result, rotateErr
	}

	if err := e.sm.Transition(Cleaning, reason); err != nil {
		return fail(err)
	}
	if err := txn.Commit(); err != nil {
		return fail(err)
	}

	if err := e.sm.Transition(Completing, reason); err != nil {
		return fail(err)
	}
	result.Success = true
	result.RotationTime = time.Now()
	result.Duration = time.Since(start)
	if err := e.sm.Transition(Completed, reason); err != nil {
		return fail(err)
	}

	e.mu.Lock()
	e.lastRotation = time.Now()
	e.mu.Unlock()

	e.recordStats(reason, result)

	if err := e.sm.Transition(Idle, "rotation complete"); err != nil {
		return result, err
	}
	return result, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
