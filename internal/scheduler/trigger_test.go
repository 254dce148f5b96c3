package scheduler

import (
	"errors"
	"testing"
	"time"
)

func TestCronTriggerParse(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		expr string
		ok   bool
	}{
		{name: "six fields", expr: "0 0 12 * * ?", ok: true},
		{name: "five fields", expr: "*/5 * * * *", ok: true},
		{name: "descriptor", expr: "@hourly", ok: true},
		{name: "every descriptor", expr: "@every 55m", ok: true},
		{name: "empty", expr: "", ok: false},
		{name: "garbage", expr: "not-a-cron", ok: false},
		{name: "out of range", expr: "61 * * * * *", ok: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := newCronTrigger(tt.expr)
			if tt.ok && err != nil {
				t.Fatalf("newCronTrigger(%q) error: %v", tt.expr, err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatalf("newCronTrigger(%q) expected error", tt.expr)
				}
				if !errors.Is(err, ErrInvalidArgument) {
					t.Fatalf("error = %v, want ErrInvalidArgument", err)
				}
			}
		})
	}
}

func TestCronTriggerMonotonic(t *testing.T) {
	t.Parallel()
	trig, err := newCronTrigger("0 */5 * * * *")
	if err != nil {
		t.Fatalf("newCronTrigger error: %v", err)
	}

	ref := time.Date(2025, 3, 1, 10, 0, 1, 0, time.UTC)
	prev, _ := trig.first(ref)
	for i := 0; i < 50; i++ {
		ref = ref.Add(37 * time.Second)
		next, ok := trig.next(prev, ref)
		if !ok {
			t.Fatalf("cron trigger exhausted at iteration %d", i)
		}
		if next.Before(prev) {
			t.Fatalf("next fire moved backward: %v < %v", next, prev)
		}
		if !next.After(ref) {
			t.Fatalf("next fire %v not after reference %v", next, ref)
		}
		prev = next
	}
}

func TestPeriodicTriggerFirstFire(t *testing.T) {
	t.Parallel()
	trig, err := newPeriodicTrigger(5 * time.Second)
	if err != nil {
		t.Fatalf("newPeriodicTrigger error: %v", err)
	}
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	first, budget := trig.first(now)
	if got, want := first, now.Add(5*time.Second); !got.Equal(want) {
		t.Fatalf("first fire = %v, want %v (one period after registration)", got, want)
	}
	if budget != unbounded {
		t.Fatalf("budget = %d, want unbounded", budget)
	}
}

func TestPeriodicTriggerValidation(t *testing.T) {
	t.Parallel()
	for _, period := range []time.Duration{0, -time.Second} {
		if _, err := newPeriodicTrigger(period); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("period %v: error = %v, want ErrInvalidArgument", period, err)
		}
	}
}

func TestOnceTriggerPastDateDueImmediately(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	trig := onceTrigger{at: now.Add(-time.Hour)}
	first, budget := trig.first(now)
	if !first.Equal(now) {
		t.Fatalf("first = %v, want %v (past date fires immediately)", first, now)
	}
	if budget != 1 {
		t.Fatalf("budget = %d, want 1", budget)
	}
	if _, ok := trig.next(first, now); ok {
		t.Fatal("one-shot trigger must not produce a second fire")
	}
}

func TestRepeatTriggerValidation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		times  int
		period time.Duration
	}{
		{name: "times zero", times: 0, period: time.Second},
		{name: "times one", times: 1, period: time.Second},
		{name: "negative period", times: 3, period: -time.Second},
		{name: "zero period", times: 3, period: 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := newRepeatTrigger(time.Time{}, tt.times, tt.period)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestAlignForwardNoCatchUp(t *testing.T) {
	t.Parallel()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	period := 10 * time.Second

	// On-time fire: plain prev+period.
	if got, want := alignForward(base, base.Add(time.Second), period), base.Add(period); !got.Equal(want) {
		t.Fatalf("on-time: next = %v, want %v", got, want)
	}

	// Stalled for 7 periods: realign to the first grid point in the future,
	// skipping the missed ticks instead of replaying them.
	late := base.Add(73 * time.Second)
	got := alignForward(base, late, period)
	want := base.Add(80 * time.Second)
	if !got.Equal(want) {
		t.Fatalf("stalled: next = %v, want %v", got, want)
	}
	if !got.After(late) {
		t.Fatalf("realigned fire %v not after now %v", got, late)
	}
}

func TestEvaluateCountdownAndExhaustion(t *testing.T) {
	t.Parallel()
	trig, err := newRepeatTrigger(time.Time{}, 3, time.Second)
	if err != nil {
		t.Fatalf("newRepeatTrigger error: %v", err)
	}
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	ent := &entry{trig: trig}
	ent.next, ent.remaining = trig.first(now)

	// fire 1 and 2 re-arm, fire 3 exhausts
	if !evaluate(ent, ent.next) {
		t.Fatal("evaluate after fire 1: want re-armed")
	}
	if ent.remaining != 2 {
		t.Fatalf("remaining = %d, want 2", ent.remaining)
	}
	if !evaluate(ent, ent.next) {
		t.Fatal("evaluate after fire 2: want re-armed")
	}
	if evaluate(ent, ent.next) {
		t.Fatal("evaluate after fire 3: want exhausted")
	}
}
