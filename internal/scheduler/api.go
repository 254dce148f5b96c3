package scheduler

import (
	"fmt"
	"time"

	"metronome/pkg/logx"
)

// AddJob registers (or replaces) a cron-triggered job. The expression uses
// six fields with leading seconds, five fields, or a descriptor; it is
// validated here, never at fire time. An empty name registers an anonymous
// entry that cannot be removed later.
func (e *Engine) AddJob(name string, job any, cfg JobConfig, expression string, concurrent bool) error {
	run, err := resolveRunner(job)
	if err != nil {
		return err
	}
	trig, err := newCronTrigger(expressionFromConfig(expression, cfg))
	if err != nil {
		return err
	}
	return e.admit(nameFromConfig(name, cfg), run, cfg, trig, concurrentFromConfig(concurrent, cfg))
}

// AddPeriodicJob registers (or replaces) a job firing every period, with the
// first fire one period after registration.
func (e *Engine) AddPeriodicJob(name string, job any, cfg JobConfig, period time.Duration, concurrent bool) error {
	run, err := resolveRunner(job)
	if err != nil {
		return err
	}
	trig, err := newPeriodicTrigger(periodFromConfig(period, cfg))
	if err != nil {
		return err
	}
	return e.admit(nameFromConfig(name, cfg), run, cfg, trig, concurrentFromConfig(concurrent, cfg))
}

// FireJob runs a job once, immediately and anonymously.
func (e *Engine) FireJob(job any, cfg JobConfig) error {
	run, err := resolveRunner(job)
	if err != nil {
		return err
	}
	return e.admit("", run, cfg, onceTrigger{}, true)
}

// FireJobRepeated fires a job `times` times starting now, spaced period
// apart. It reports success as a boolean instead of an error so
// fire-and-forget call sites can probe without error handling.
func (e *Engine) FireJobRepeated(job any, cfg JobConfig, times int, period time.Duration) bool {
	run, err := resolveRunner(job)
	if err == nil {
		var trig repeatTrigger
		trig, err = newRepeatTrigger(time.Time{}, times, periodFromConfig(period, cfg))
		if err == nil {
			err = e.admit("", run, cfg, trig, true)
		}
	}
	if err != nil {
		e.log.Warn("repeated fire rejected", logx.Int("times", times), logx.Duration("period", period), logx.Err(err))
		return false
	}
	return true
}

// FireJobAt runs a job once at the given date. A date already in the past
// fires immediately (one fire, then the entry retires; never a silent drop).
func (e *Engine) FireJobAt(name string, job any, cfg JobConfig, at time.Time) error {
	run, err := resolveRunner(job)
	if err != nil {
		return err
	}
	if at.IsZero() {
		return fmt.Errorf("%w: date required", ErrInvalidArgument)
	}
	return e.admit(nameFromConfig(name, cfg), run, cfg, onceTrigger{at: at}, concurrentFromConfig(false, cfg))
}

// FireJobAtRepeated schedules `times` fires starting at the given date,
// spaced period apart. Boolean result, same contract as FireJobRepeated.
func (e *Engine) FireJobAtRepeated(name string, job any, cfg JobConfig, at time.Time, times int, period time.Duration) bool {
	run, err := resolveRunner(job)
	if err == nil {
		if at.IsZero() {
			err = fmt.Errorf("%w: date required", ErrInvalidArgument)
		}
	}
	if err == nil {
		var trig repeatTrigger
		trig, err = newRepeatTrigger(at, times, periodFromConfig(period, cfg))
		if err == nil {
			err = e.admit(nameFromConfig(name, cfg), run, cfg, trig, concurrentFromConfig(false, cfg))
		}
	}
	if err != nil {
		e.log.Warn("repeated fire rejected", logx.String("job", name), logx.Int("times", times), logx.Duration("period", period), logx.Err(err))
		return false
	}
	return true
}

// RemoveJob cancels all future fires of the named job and removes its entry.
// A run already dispatched is not interrupted. Unknown names (including
// entries that already retired) fail with ErrNotFound.
func (e *Engine) RemoveJob(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	ent, ok := e.byName[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	e.cancelLocked(ent)
	e.nudge()
	e.log.Debug("entry removed", logx.String("job", name), logx.Uint64("id", ent.id))
	return nil
}
