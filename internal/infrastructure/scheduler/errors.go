package scheduler

import "errors"

// Sentinel errors surfaced to callers submitting or awaiting sync jobs.
var (
	ErrSchedulerNotRunning = errors.New("scheduler is not running")
	ErrJobQueueFull        = errors.New("job queue is full")
	ErrInvalidConfig       = errors.New("invalid scheduler configuration")
	ErrSyncFailed          = errors.New("order sync failed")
	ErrSyncTimeout         = errors.New("order sync timed out")
	ErrInvalidTimeRange    = errors.New("invalid sync time range")
)
