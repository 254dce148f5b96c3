package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// unbounded marks triggers with no fire-count budget.
const unbounded = -1

// cronParser accepts 5-field specs, 6-field specs with leading seconds, and
// descriptors ("@hourly", "@every 5m").
var cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// trigger is the immutable temporal rule of an entry. Runtime state (next
// fire time, remaining budget) lives on the entry; triggers only do
// arithmetic.
type trigger interface {
	// describe returns a short human-readable form for logs and snapshots.
	describe() string

	// first returns the initial fire time for a trigger armed at now, and
	// the fire budget (unbounded for cron/periodic triggers).
	first(now time.Time) (time.Time, int)

	// next returns the fire time following a fire that was scheduled at
	// prev and dispatched at now. ok=false means the trigger has no
	// further fires. Results are always after now: a late fire already
	// dispatched once, and missed grid points are never replayed.
	next(prev, now time.Time) (next time.Time, ok bool)
}

// ---- cron ----

type cronTrigger struct {
	expr  string
	sched cron.Schedule
}

func newCronTrigger(expr string) (cronTrigger, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return cronTrigger{}, fmt.Errorf("%w: empty cron expression", ErrInvalidArgument)
	}
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return cronTrigger{}, fmt.Errorf("%w: cron expression %q: %v", ErrInvalidArgument, expr, err)
	}
	return cronTrigger{expr: expr, sched: sched}, nil
}

func (t cronTrigger) describe() string { return "cron " + t.expr }

func (t cronTrigger) first(now time.Time) (time.Time, int) {
	return t.sched.Next(now), unbounded
}

func (t cronTrigger) next(_, now time.Time) (time.Time, bool) {
	// Schedule.Next scans forward from now, so stalls realign for free.
	n := t.sched.Next(now)
	return n, !n.IsZero()
}

// ---- periodic ----

type periodicTrigger struct {
	period time.Duration
}

func newPeriodicTrigger(period time.Duration) (periodicTrigger, error) {
	if period <= 0 {
		return periodicTrigger{}, fmt.Errorf("%w: period must be > 0, got %v", ErrInvalidArgument, period)
	}
	return periodicTrigger{period: period}, nil
}

func (t periodicTrigger) describe() string { return "every " + t.period.String() }

// first fires one period after registration, not immediately.
func (t periodicTrigger) first(now time.Time) (time.Time, int) {
	return now.Add(t.period), unbounded
}

func (t periodicTrigger) next(prev, now time.Time) (time.Time, bool) {
	return alignForward(prev, now, t.period), true
}

// ---- one-shot ----

// onceTrigger fires exactly once. A zero `at` means immediately; a past `at`
// is due immediately rather than silently dropped.
type onceTrigger struct {
	at time.Time
}

func (t onceTrigger) describe() string {
	if t.at.IsZero() {
		return "once now"
	}
	return "once at " + t.at.Format(time.RFC3339)
}

func (t onceTrigger) first(now time.Time) (time.Time, int) {
	if t.at.After(now) {
		return t.at, 1
	}
	return now, 1
}

func (t onceTrigger) next(_, _ time.Time) (time.Time, bool) {
	return time.Time{}, false
}

// ---- bounded repeat ----

// repeatTrigger fires at `at` (or immediately when zero), then times-1
// additional fires spaced period apart.
type repeatTrigger struct {
	at     time.Time
	times  int
	period time.Duration
}

func newRepeatTrigger(at time.Time, times int, period time.Duration) (repeatTrigger, error) {
	if times <= 1 {
		return repeatTrigger{}, fmt.Errorf("%w: times must be > 1, got %d", ErrInvalidArgument, times)
	}
	if period <= 0 {
		return repeatTrigger{}, fmt.Errorf("%w: period must be > 0, got %v", ErrInvalidArgument, period)
	}
	return repeatTrigger{at: at, times: times, period: period}, nil
}

func (t repeatTrigger) describe() string {
	return fmt.Sprintf("repeat %dx every %s", t.times, t.period)
}

func (t repeatTrigger) first(now time.Time) (time.Time, int) {
	if t.at.After(now) {
		return t.at, t.times
	}
	return now, t.times
}

func (t repeatTrigger) next(prev, now time.Time) (time.Time, bool) {
	return alignForward(prev, now, t.period), true
}

// alignForward returns prev+period, or, when that instant already elapsed,
// the first multiple of period after now. The late fire itself was already
// dispatched; skipped grid points are not replayed (no executor flood after
// a stall).
func alignForward(prev, now time.Time, period time.Duration) time.Time {
	next := prev.Add(period)
	if next.After(now) {
		return next
	}
	missed := now.Sub(next) / period
	next = next.Add((missed + 1) * period)
	if !next.After(now) {
		next = next.Add(period)
	}
	return next
}

// evaluate advances an entry after a consumed fire slot: it decrements the
// remaining budget and computes the next fire time. A false return means the
// trigger is exhausted and the entry retires.
func evaluate(ent *entry, now time.Time) bool {
	if ent.remaining > 0 {
		ent.remaining--
		if ent.remaining == 0 {
			return false
		}
	}
	next, ok := ent.trig.next(ent.next, now)
	if !ok {
		return false
	}
	ent.next = next
	return true
}
