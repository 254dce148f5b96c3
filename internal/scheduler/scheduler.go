package scheduler

import (
	"container/heap"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"metronome/internal/eventbus"
	"metronome/pkg/logx"
)

type Config struct {
	Timezone string // IANA TZ, e.g. "Asia/Jakarta"; empty = local

	// FailureLogEvery/FailureLogBurst bound how often a repeatedly failing
	// job may write error lines (per job name).
	FailureLogEvery time.Duration
	FailureLogBurst int
}

// Engine is the scheduling engine: a registry of named/anonymous entries, a
// single loop that owns the fire ordering, and per-fire dispatch goroutines.
type Engine struct {
	mu sync.Mutex

	cfg Config
	log logx.Logger
	bus eventbus.Bus
	loc *time.Location

	byName map[string]*entry
	fires  fireHeap
	seq    uint64

	wake    chan struct{}
	stopCh  chan struct{}
	running bool
	stopped bool
	jobCtx  context.Context

	loopWG     sync.WaitGroup
	dispatchWG sync.WaitGroup

	throttle *logx.Throttle
}

func New(cfg Config, log logx.Logger, bus eventbus.Bus) *Engine {
	every := cfg.FailureLogEvery
	if every <= 0 {
		every = time.Minute
	}
	burst := cfg.FailureLogBurst
	if burst <= 0 {
		burst = 3
	}
	return &Engine{
		cfg:      cfg,
		log:      log,
		bus:      bus,
		loc:      loadLocation(cfg.Timezone, log),
		byName:   map[string]*entry{},
		wake:     make(chan struct{}, 1),
		throttle: logx.NewThrottle(every, burst),
	}
}

func loadLocation(tz string, log logx.Logger) *time.Location {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Warn("invalid timezone; falling back to Local", logx.String("tz", tz), logx.Err(err))
		return time.Local
	}
	return loc
}

func (e *Engine) now() time.Time { return time.Now().In(e.loc) }

// Start launches the scheduling loop. Entries registered before Start are
// already armed and fire as soon as they are due. ctx is handed to every
// dispatched unit of work; cancelling it cancels running jobs, Stop does not.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running || e.stopped {
		return
	}
	e.running = true
	e.jobCtx = ctx
	e.stopCh = make(chan struct{})

	e.loopWG.Add(1)
	go e.loop()
	e.log.Info("scheduler started", logx.String("tz", e.loc.String()), logx.Int("entries", len(e.fires)))
}

// Stop cancels every entry and shuts the loop down. In-flight dispatches are
// allowed to finish; Stop waits for them until ctx expires and then leaves
// them running in the background.
func (e *Engine) Stop(ctx context.Context) {
	start := time.Now()
	e.mu.Lock()
	if !e.running {
		e.stopped = true
		e.mu.Unlock()
		return
	}
	e.running = false
	e.stopped = true
	close(e.stopCh)

	for len(e.fires) > 0 {
		ent := heap.Pop(&e.fires).(*entry)
		ent.state = stateCancelled
	}
	e.byName = map[string]*entry{}
	e.mu.Unlock()

	e.loopWG.Wait()

	done := make(chan struct{})
	go func() {
		e.dispatchWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		e.log.Info("scheduler stopped", logx.Duration("took", time.Since(start)))
	case <-ctx.Done():
		// in-flight jobs keep finishing in the background
		e.log.Warn("scheduler stopped with dispatches still in flight", logx.Duration("took", time.Since(start)))
	}
}

func (e *Engine) loop() {
	defer e.loopWG.Done()
	for {
		e.mu.Lock()
		var timer *time.Timer
		var timerC <-chan time.Time
		if len(e.fires) > 0 {
			d := e.fires[0].next.Sub(e.now())
			if d <= 0 {
				e.dispatchDueLocked(e.now())
				e.mu.Unlock()
				continue
			}
			timer = time.NewTimer(d)
			timerC = timer.C
		}
		e.mu.Unlock()

		// With an empty heap this blocks until an add wakes us.
		select {
		case <-e.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-e.wake:
			// re-evaluate the earliest deadline
			if timer != nil {
				timer.Stop()
			}
		case <-timerC:
		}
	}
}

// dispatchDueLocked pops every entry whose fire time has arrived, dispatches
// (or skips) it, and re-arms or retires it. Call with e.mu held.
func (e *Engine) dispatchDueLocked(now time.Time) {
	for len(e.fires) > 0 && !e.fires[0].next.After(now) {
		ent := heap.Pop(&e.fires).(*entry)
		if ent.state != stateScheduled {
			// cancelled or replaced while queued
			continue
		}
		fired := ent.next

		if ent.concurrent || ent.guard.tryAcquire() {
			e.dispatchWG.Add(1)
			go e.execute(e.jobCtx, ent, fired)
		} else {
			// Previous run still in flight: the slot is consumed, not queued.
			e.log.Debug("fire skipped (previous run still running)", logx.String("job", ent.name), logx.Uint64("id", ent.id))
			e.publish(eventbus.TypeJobSkipped, ent, fired, 0, "overlap")
		}

		if evaluate(ent, now) {
			heap.Push(&e.fires, ent)
		} else {
			e.retireLocked(ent)
		}
	}
}

// retireLocked removes an exhausted entry. Call with e.mu held.
func (e *Engine) retireLocked(ent *entry) {
	ent.state = stateRetired
	if ent.name != "" && e.byName[ent.name] == ent {
		delete(e.byName, ent.name)
		e.throttle.Forget(ent.name)
	}
	e.log.Debug("entry retired", logx.String("job", ent.name), logx.Uint64("id", ent.id), logx.String("trigger", ent.trig.describe()))
	e.publish(eventbus.TypeJobRetired, ent, e.now(), 0, "")
}

// cancelLocked suppresses all future fires of an entry and removes it from
// the registry. Call with e.mu held.
func (e *Engine) cancelLocked(ent *entry) {
	ent.state = stateCancelled
	if ent.index >= 0 {
		heap.Remove(&e.fires, ent.index)
	}
	if ent.name != "" && e.byName[ent.name] == ent {
		delete(e.byName, ent.name)
		e.throttle.Forget(ent.name)
	}
}

// admit inserts a fully validated entry, replacing any live entry under the
// same name in the same critical section (readers never observe a window
// where both or neither are armed).
func (e *Engine) admit(name string, run runner, cfg JobConfig, trig trigger, concurrent bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return errStoppedf()
	}

	now := e.now()
	e.seq++
	// The entry owns its config: copy so later caller-side mutation cannot
	// race with fires.
	var owned JobConfig
	if len(cfg) > 0 {
		owned = make(JobConfig, len(cfg))
		for k, v := range cfg {
			owned[k] = v
		}
	}
	ent := &entry{
		id:         e.seq,
		name:       name,
		trig:       trig,
		run:        run,
		cfg:        owned,
		concurrent: concurrent,
		index:      -1,
	}
	ent.next, ent.remaining = trig.first(now)
	// A cron spec with no matching instant (e.g. Feb 30) yields a zero next.
	if ent.next.IsZero() {
		return fmt.Errorf("%w: trigger %q never fires", ErrScheduling, trig.describe())
	}

	if name != "" {
		if old, ok := e.byName[name]; ok {
			e.cancelLocked(old)
			e.log.Debug("entry replaced", logx.String("job", name), logx.Uint64("old_id", old.id), logx.Uint64("id", ent.id))
			e.publish(eventbus.TypeJobReplaced, old, now, 0, "")
		}
		e.byName[name] = ent
	}

	heap.Push(&e.fires, ent)
	e.log.Debug("entry registered",
		logx.String("job", name),
		logx.Uint64("id", ent.id),
		logx.String("trigger", trig.describe()),
		logx.Time("next", ent.next),
		logx.Bool("concurrent", concurrent),
	)
	e.nudge()
	return nil
}

// nudge wakes a sleeping loop so it re-evaluates the earliest deadline.
func (e *Engine) nudge() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *Engine) publish(typ string, ent *entry, fired time.Time, dur time.Duration, errMsg string) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(eventbus.Event{
		Type: typ,
		Data: eventbus.JobEvent{
			ID:       ent.id,
			Name:     ent.name,
			Trigger:  ent.trig.describe(),
			Fired:    fired,
			Duration: dur,
			Error:    errMsg,
		},
	})
}
