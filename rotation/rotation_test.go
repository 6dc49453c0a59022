package rotation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSizeStrategyFiresAtThreshold(t *testing.T) {
	s := NewSizeStrategy(100)
	d := s.Evaluate(Context{CurrentSize: 50, Now: time.Now()})
	require.False(t, d.ShouldRotate)

	d = s.Evaluate(Context{CurrentSize: 100, Now: time.Now()})
	require.True(t, d.ShouldRotate)
	require.Equal(t, "size threshold reached", d.Reason)
}

func TestTimeStrategyFiresOnBoundaryCross(t *testing.T) {
	s := NewTimeStrategy(Daily)
	last := time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC)
	now := time.Date(2026, 1, 2, 1, 0, 0, 0, time.UTC)

	d := s.Evaluate(Context{LastRotation: last, Now: now})
	require.True(t, d.ShouldRotate)

	d = s.Evaluate(Context{LastRotation: last, Now: last.Add(time.Minute)})
	require.False(t, d.ShouldRotate)
}

func TestStateMachineRejectsIllegalTransition(t *testing.T) {
	sm := NewStateMachine(nil)
	// Rotating is unreachable directly from Idle; the happy path runs
	// Idle -> Checking -> Preparing -> PreCheck -> Rotating.
	err := sm.Transition(Rotating, "invalid")
	require.Error(t, err)
	require.Equal(t, Idle, sm.Current())
}

func TestStateMachineAllowsWildcardFailAndReset(t *testing.T) {
	sm := NewStateMachine(nil)
	require.NoError(t, sm.Transition(Checking, "tick"))
	require.NoError(t, sm.Transition(Failed, "boom"))
	require.NoError(t, sm.Transition(Idle, "reset"))
	require.Equal(t, Idle, sm.Current())
}

func TestStateMachineJournalBounded(t *testing.T) {
	sm := NewStateMachine(nil)
	// Drive a valid cycle repeatedly to exceed the 1000-entry ring.
	for i := 0; i < 1100; i++ {
		sm.Transition(Checking, "tick")
		sm.Transition(Idle, "reset")
	}
	journal := sm.Journal()
	require.Len(t, journal, 1000)
}

func TestTransactionRollsBackOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

	txn := NewTransaction(dir, time.Second)
	var step1Done bool
	txn.AddOperation(&Operation{
		Kind: FileRename,
		Forward: func() error {
			step1Done = true
			return os.Rename(path, path+".bak")
		},
		Rollback: func() error {
			return os.Rename(path+".bak", path)
		},
	})
	txn.AddOperation(&Operation{
		Kind: Custom,
		Forward: func() error {
			return errors.New("boom")
		},
		Rollback: func() error { return nil },
	})

	err := txn.Execute()
	require.Error(t, err)
	require.True(t, step1Done)

	_, statErr := os.Stat(path)
	require.NoError(t, statErr, "rollback should have restored the original file")
}

func TestPreCheckerCatchesMissingFile(t *testing.T) {
	dir := t.TempDir()
	pc := NewPreChecker()
	results := pc.Run(PreCheckInput{Path: filepath.Join(dir, "missing.log")})
	require.False(t, CanRotate(results))
}

func TestPreCheckerPassesForExistingWritableFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	pc := NewPreChecker()
	results := pc.Run(PreCheckInput{Path: path, FileSize: 1})
	require.True(t, CanRotate(results))
}

func TestPreCheckerWarningOnExistingTargetDoesNotBlock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	target := filepath.Join(dir, "app_archived.log")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0o644))

	pc := NewPreChecker()
	results := pc.Run(PreCheckInput{Path: path, TargetPath: target, FileSize: 1})

	var sawWarning bool
	for _, r := range results {
		if r.Name == CheckFileExists {
			require.Equal(t, Warning, r.Severity)
			require.True(t, r.Passed, "a pre-existing target is advisory, not a failure")
			sawWarning = true
		}
	}
	require.True(t, sawWarning)
	require.True(t, CanRotate(results), "a Warning-only result must not block rotation")
}

func TestPreCheckerDiskSpaceAccountsForSizeAndCompression(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	pc := NewPreChecker()
	huge := pc.Run(PreCheckInput{Path: path, FileSize: 1 << 62, Compressing: true})
	var diskCheck CheckResult
	for _, r := range huge {
		if r.Name == CheckDiskSpace {
			diskCheck = r
		}
	}
	require.False(t, diskCheck.Passed, "an implausibly large required size must fail the disk-space check")
	require.Equal(t, Critical, diskCheck.Severity)
}

func TestNamePatternExpand(t *testing.T) {
	p := DefaultNamePattern()
	ts := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	name := p.Expand(Params{Basename: "app", Extension: "log", Timestamp: ts})
	require.Equal(t, "app_20260304_050607.log", name)
}

func TestClassifyErrorAndRecovery(t *testing.T) {
	_, err := os.Open("/nonexistent/path/x")
	require.Equal(t, FileNotFound, ClassifyError(err))
	require.Equal(t, RecoverySkip, RecoveryFor(FileNotFound))
}

func TestRetryWithBackoffStopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), 5, time.Millisecond, 10*time.Millisecond, func() error {
		calls++
		_, statErr := os.Open("/definitely/not/here")
		return statErr
	})
	require.Error(t, err)
	require.Equal(t, 1, calls, "FileNotFound is not retryable, should stop after first attempt")
}

func TestRetryWithBackoffRetriesThenSucceeds(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), 5, time.Millisecond, 10*time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

type fakeFile struct {
	path string
	size int64
}

func (f *fakeFile) Path() string       { return f.path }
func (f *fakeFile) CurrentSize() int64 { return f.size }
func (f *fakeFile) Rotate() error {
	return os.WriteFile(f.path, nil, 0o644)
}
func (f *fakeFile) Flush() error { return nil }

func TestEngineCheckAndRotateSizeScenario(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

	e, err := NewEngine(Config{Strategy: NewSizeStrategy(10), ArchiveDir: dir})
	require.NoError(t, err)
	defer e.Close()

	f := &fakeFile{path: path, size: 10}
	result, attempted, err := e.CheckAndRotate(f)
	require.NoError(t, err)
	require.True(t, attempted)
	require.True(t, result.Success)
	require.Equal(t, Idle, e.State())

	stats := e.Stats()
	require.EqualValues(t, 1, stats.TotalRotations)
	require.EqualValues(t, 1, stats.SuccessfulRotations)
	require.EqualValues(t, 1, stats.SizeTriggeredRotations)

	_, statErr := os.Stat(path)
	require.NoError(t, statErr, "rotation should have left a fresh file at the original path")

	matches, _ := filepath.Glob(filepath.Join(dir, "app_*.log"))
	require.Len(t, matches, 1)
	require.Equal(t, matches[0], result.ArchivePath)
}

func TestEngineCheckAndRotateNotDueIsNoop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	e, err := NewEngine(Config{Strategy: NewSizeStrategy(1 << 30), ArchiveDir: dir})
	require.NoError(t, err)
	defer e.Close()

	f := &fakeFile{path: path, size: 1}
	result, attempted, err := e.CheckAndRotate(f)
	require.NoError(t, err)
	require.False(t, attempted)
	require.False(t, result.Success)
}

func TestEngineAsyncRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

	e, err := NewEngine(Config{Strategy: NewManualStrategy(), ArchiveDir: dir, AsyncWorkers: 2})
	require.NoError(t, err)
	defer e.Close()

	f := &fakeFile{path: path, size: 4}
	done := e.ForceRotationAsync(f)
	select {
	case result := <-done:
		require.True(t, result.Success)
	case <-time.After(2 * time.Second):
		t.Fatal("async rotation did not complete in time")
	}
}

func TestWaitForAllTimesOutWhileWorkerBusy(t *testing.T) {
	m := NewAsyncManager(1)
	defer m.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	done := m.Submit(context.Background(), "slow", 5, func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started

	require.False(t, WaitForAll(m, 50*time.Millisecond), "a still-running request must not report drained")
	close(release)
	<-done
	require.True(t, WaitForAll(m, time.Second))
}
