package rotation

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// CheckName identifies one of the seven pre-rotation checks from spec §4.2.
type CheckName string

const (
	CheckDiskSpace       CheckName = "disk_space"
	CheckFilePermissions CheckName = "file_permissions"
	CheckDirectoryAccess CheckName = "directory_access"
	CheckFileExists      CheckName = "file_exists"
	CheckFileLocked      CheckName = "file_locked"
	CheckSystemResources CheckName = "system_resources"
	CheckProcessPerms    CheckName = "process_permissions"
)

// CheckSeverity classifies how much weight a CheckResult carries
// toward the canRotate aggregate: only Error and Critical results can
// block a rotation; Info and Warning are advisory.
type CheckSeverity int

const (
	Info CheckSeverity = iota
	Warning
	Error
	Critical
)

func (s CheckSeverity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Critical:
		return "critical"
	default:
		return "unknown"
	}
}

// CheckResult is the outcome of one named pre-rotation check.
type CheckResult struct {
	Name       CheckName
	Severity   CheckSeverity
	Passed     bool
	Message    string
	Suggestion string
	Duration   time.Duration
}

// PreCheckInput carries everything the seven checks need: the active
// file's path and size, the archive target path a rotation would move
// it to, an estimate of any backup already occupying space, and
// whether the rotation will additionally compress the result.
type PreCheckInput struct {
	Path        string
	TargetPath  string
	FileSize    int64
	BackupSize  int64
	Compressing bool
}

// PreChecker runs the seven checks from spec §4.2 before a rotation
// transaction is allowed to begin.
type PreChecker struct {
	// MinFreeBytes is an additional fixed safety margin required beyond
	// file_size + compression overhead + backup_size. Zero applies no
	// extra margin.
	MinFreeBytes int64
	// MaxGoroutines caps runtime.NumGoroutine() as a crude proxy for
	// "system resources available to take on more rotation work" in the
	// absence of a portable Go stdlib load-average API.
	MaxGoroutines int
}

// NewPreChecker builds a PreChecker with the spec's defaults: no extra
// safety margin and a generous goroutine ceiling.
func NewPreChecker() *PreChecker {
	return &PreChecker{MaxGoroutines: 100000}
}

// Run executes all seven checks against in and returns every result.
// Use CanRotate, not a raw all-passed scan, to interpret them: a
// Warning-severity failure (e.g. the archive target already exists)
// must not block rotation on its own.
func (p *PreChecker) Run(in PreCheckInput) []CheckResult {
	return []CheckResult{
		p.checkFileExists(in),
		p.checkFilePermissions(in),
		p.checkDirectoryAccess(in),
		p.checkFileLocked(in),
		p.checkDiskSpace(in),
		p.checkSystemResources(),
		p.checkProcessPermissions(in),
	}
}

// CanRotate applies spec §4.2's aggregate rule: no Error-or-Critical
// result, and at least one check actually ran and passed.
func CanRotate(results []CheckResult) bool {
	passed := 0
	for _, r := range results {
		if r.Severity >= Error && !r.Passed {
			return false
		}
		if r.Passed {
			passed++
		}
	}
	return passed > 0
}

func timed(fn func() CheckResult) CheckResult {
	start := time.Now()
	r := fn()
	r.Duration = time.Since(start)
	return r
}

func (p *PreChecker) checkFileExists(in PreCheckInput) CheckResult {
	return timed(func() CheckResult {
		if in.TargetPath == "" {
			return CheckResult{Name: CheckFileExists, Severity: Info, Passed: true, Message: "no archive target configured"}
		}
		if _, err := os.Stat(in.TargetPath); err == nil {
			return CheckResult{
				Name:       CheckFileExists,
				Severity:   Warning,
				Passed:     true,
				Message:    fmt.Sprintf("archive target %q already exists and will be overwritten", in.TargetPath),
				Suggestion: "use a naming pattern that includes a timestamp or sequence number",
			}
		}
		return CheckResult{Name: CheckFileExists, Severity: Info, Passed: true, Message: "archive target does not pre-exist"}
	})
}

func (p *PreChecker) checkFilePermissions(in PreCheckInput) CheckResult {
	return timed(func() CheckResult {
		f, err := os.OpenFile(in.Path, os.O_WRONLY, 0)
		if err != nil {
			return CheckResult{
				Name:       CheckFilePermissions,
				Severity:   Error,
				Passed:     false,
				Message:    err.Error(),
				Suggestion: "verify the process has write access to " + in.Path,
			}
		}
		f.Close()
		return CheckResult{Name: CheckFilePermissions, Severity: Info, Passed: true, Message: "file is writable"}
	})
}

func (p *PreChecker) checkDirectoryAccess(in PreCheckInput) CheckResult {
	return timed(func() CheckResult {
		dir := filepath.Dir(in.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return CheckResult{
				Name:       CheckDirectoryAccess,
				Severity:   Error,
				Passed:     false,
				Message:    err.Error(),
				Suggestion: "verify the process can create " + dir,
			}
		}
		probe := filepath.Join(dir, ".rotation_probe")
		f, err := os.Create(probe)
		if err != nil {
			return CheckResult{
				Name:       CheckDirectoryAccess,
				Severity:   Error,
				Passed:     false,
				Message:    err.Error(),
				Suggestion: "verify the process has write access to " + dir,
			}
		}
		f.Close()
		os.Remove(probe)
		return CheckResult{Name: CheckDirectoryAccess, Severity: Info, Passed: true, Message: "directory is writable"}
	})
}

func (p *PreChecker) checkFileLocked(in PreCheckInput) CheckResult {
	return timed(func() CheckResult {
		// Advisory-only on platforms without flock semantics in the standard
		// library: a file opened O_RDWR without O_EXCL never legitimately
		// fails here on Unix, so this check's real teeth are reserved for the
		// transaction itself rejecting a target it cannot rename.
		f, err := os.OpenFile(in.Path, os.O_RDWR, 0)
		if err != nil {
			return CheckResult{
				Name:       CheckFileLocked,
				Severity:   Error,
				Passed:     false,
				Message:    err.Error(),
				Suggestion: "close any other process holding " + in.Path + " open",
			}
		}
		f.Close()
		return CheckResult{Name: CheckFileLocked, Severity: Info, Passed: true, Message: "file is not exclusively locked"}
	})
}

func (p *PreChecker) checkDiskSpace(in PreCheckInput) CheckResult {
	return timed(func() CheckResult {
		free, err := freeDiskSpace(filepath.Dir(in.Path))
		if err != nil {
			return CheckResult{Name: CheckDiskSpace, Severity: Warning, Passed: true, Message: "could not determine free disk space: " + err.Error()}
		}

		// required = file_size + (file_size/2 if compressing) + backup_size + margin.
		required := in.FileSize
		if in.Compressing {
			required += in.FileSize / 2
		}
		required += in.BackupSize
		required += p.MinFreeBytes

		if free < required {
			return CheckResult{
				Name:       CheckDiskSpace,
				Severity:   Critical,
				Passed:     false,
				Message:    fmt.Sprintf("only %d bytes free, need %d", free, required),
				Suggestion: "free disk space or lower the rotation size threshold",
			}
		}
		return CheckResult{Name: CheckDiskSpace, Severity: Info, Passed: true, Message: fmt.Sprintf("%d bytes free, need %d", free, required)}
	})
}

func (p *PreChecker) checkSystemResources() CheckResult {
	return timed(func() CheckResult {
		if p.MaxGoroutines <= 0 {
			return CheckResult{Name: CheckSystemResources, Severity: Info, Passed: true, Message: "goroutine ceiling disabled"}
		}
		if n := runtime.NumGoroutine(); n > p.MaxGoroutines {
			return CheckResult{
				Name:       CheckSystemResources,
				Severity:   Warning,
				Passed:     false,
				Message:    fmt.Sprintf("%d goroutines exceeds ceiling %d", n, p.MaxGoroutines),
				Suggestion: "investigate goroutine growth before the next rotation",
			}
		}
		return CheckResult{Name: CheckSystemResources, Severity: Info, Passed: true, Message: "goroutine count within ceiling"}
	})
}

// checkProcessPermissions is informational only: it reports the
// effective user the rotation is running as, for diagnostics, and
// never fails the aggregate.
func (p *PreChecker) checkProcessPermissions(in PreCheckInput) CheckResult {
	return timed(func() CheckResult {
		uid := os.Getuid()
		return CheckResult{
			Name:     CheckProcessPerms,
			Severity: Info,
			Passed:   true,
			Message:  fmt.Sprintf("running as uid %d", uid),
		}
	})
}
