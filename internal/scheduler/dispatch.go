package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"metronome/internal/eventbus"
	"metronome/pkg/logx"
)

// execute runs one fire of an entry on its own goroutine. Failures and
// panics are converted to ExecutionError here and never travel further:
// not into the loop, not to the caller that registered the job.
func (e *Engine) execute(ctx context.Context, ent *entry, fired time.Time) {
	defer e.dispatchWG.Done()
	if !ent.concurrent {
		defer ent.guard.release()
	}

	start := time.Now()
	e.publish(eventbus.TypeJobFired, ent, fired, 0, "")

	err := runIsolated(ctx, ent)
	dur := time.Since(start)

	if err != nil {
		execErr := &ExecutionError{Job: ent.name, Cause: err}
		e.publish(eventbus.TypeJobFailed, ent, fired, dur, execErr.Error())
		if e.throttle.Allow(failureKey(ent)) {
			e.log.Error("job failed", logx.String("job", ent.name), logx.Uint64("id", ent.id), logx.Duration("dur", dur), logx.Err(execErr))
		}
		return
	}

	e.publish(eventbus.TypeJobCompleted, ent, fired, dur, "")
	// Avoid noisy logs for very frequent jobs: only elevate to INFO when the
	// run took noticeable time.
	if dur >= 750*time.Millisecond {
		e.log.Info("job completed", logx.String("job", ent.name), logx.Uint64("id", ent.id), logx.Duration("dur", dur))
	} else {
		e.log.Debug("job completed", logx.String("job", ent.name), logx.Uint64("id", ent.id), logx.Duration("dur", dur))
	}
}

// runIsolated invokes the unit of work, turning a panic into an error.
func runIsolated(ctx context.Context, ent *entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return ent.run(ctx, ent.cfg)
}

func failureKey(ent *entry) string {
	if ent.name != "" {
		return ent.name
	}
	return fmt.Sprintf("anon:%d", ent.id)
}
