package scheduler

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks registration-time validation failures:
	// malformed cron expressions, non-positive periods, times <= 1 on
	// repeat forms, or an unrecognized unit-of-work type.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned by RemoveJob for names that are not
	// registered (including names whose entry already retired).
	ErrNotFound = errors.New("job not found")

	// ErrScheduling marks registry/loop-internal failures to admit an
	// entry, as opposed to argument validation.
	ErrScheduling = errors.New("scheduling failed")
)

func errStoppedf() error { return fmt.Errorf("%w: engine stopped", ErrScheduling) }

// ExecutionError wraps a failure raised by a unit of work during a fire.
// It is terminal at the dispatch boundary: logged and published on the event
// bus, never returned to the caller that registered the job.
type ExecutionError struct {
	Job   string // entry name, or "" for anonymous entries
	Cause error
}

func (e *ExecutionError) Error() string {
	if e.Job == "" {
		return fmt.Sprintf("job execution failed: %v", e.Cause)
	}
	return fmt.Sprintf("job %q execution failed: %v", e.Job, e.Cause)
}

func (e *ExecutionError) Unwrap() error { return e.Cause }
