package rotation

import "time"

// RotationResult is returned from every rotation attempt (synchronous
// or async), regardless of outcome.
type RotationResult struct {
	Success              bool
	OldPath              string
	NewPath              string
	ArchivePath          string
	RotationTime         time.Time
	Duration             time.Duration
	ErrorMessage         string
	CompressionScheduled bool
}

// Stats is a point-in-time snapshot of an Engine's lifetime rotation
// activity.
type Stats struct {
	TotalRotations         int64
	SuccessfulRotations    int64
	FailedRotations        int64
	ManualRotations        int64
	SizeTriggeredRotations int64
	TimeTriggeredRotations int64

	LastRotationTime time.Time
	TotalDuration     time.Duration
	AverageDuration   time.Duration

	TotalArchivedFiles int64
	TotalArchivedBytes int64
}

// TotalArchivedMB is TotalArchivedBytes expressed in megabytes, for
// dashboards that want a human-scaled number without doing the
// division themselves.
func (s Stats) TotalArchivedMB() float64 {
	return float64(s.TotalArchivedBytes) / (1024 * 1024)
}

// triggerKind classifies what caused a rotation, for Stats' per-cause
// counters.
type triggerKind int

const (
	triggerManual triggerKind = iota
	triggerSize
	triggerTime
	triggerSizeAndTime
)

func classifyTrigger(reason string) triggerKind {
	switch reason {
	case "size threshold reached":
		return triggerSize
	case "time boundary crossed":
		return triggerTime
	case "size and time thresholds both reached":
		return triggerSizeAndTime
	default:
		return triggerManual
	}
}
