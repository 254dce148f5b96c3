package history

import (
	"context"
	"sync"
	"time"

	"metronome/internal/eventbus"
	"metronome/pkg/logx"
)

// Recorder turns job lifecycle events into history rows.
type Recorder struct {
	store Store
	log   logx.Logger

	stopOnce sync.Once
	unsub    func()
	done     chan struct{}
}

// NewRecorder subscribes to bus and starts appending. Call Stop to detach.
func NewRecorder(store Store, bus eventbus.Bus, log logx.Logger) *Recorder {
	r := &Recorder{store: store, log: log, done: make(chan struct{})}
	events, unsub := bus.Subscribe(128)
	r.unsub = unsub
	go r.drain(events)
	return r
}

func (r *Recorder) Stop() {
	r.stopOnce.Do(func() {
		r.unsub()
		<-r.done
	})
}

func (r *Recorder) drain(events <-chan eventbus.Event) {
	defer close(r.done)
	for ev := range events {
		run, ok := runFromEvent(ev)
		if !ok {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		if err := r.store.AppendRun(ctx, run); err != nil {
			r.log.Warn("history append failed", logx.String("job", run.Name), logx.Err(err))
		}
		cancel()
	}
}

func runFromEvent(ev eventbus.Event) (Run, bool) {
	je, ok := ev.Data.(eventbus.JobEvent)
	if !ok {
		return Run{}, false
	}
	run := Run{
		At:      ev.Time,
		EntryID: je.ID,
		Name:    je.Name,
		Trigger: je.Trigger,
		Error:   je.Error,
		TookMS:  je.Duration.Milliseconds(),
	}
	switch ev.Type {
	case eventbus.TypeJobCompleted:
		run.Status = StatusOK
	case eventbus.TypeJobFailed:
		run.Status = StatusError
	case eventbus.TypeJobSkipped:
		run.Status = StatusSkipped
	default:
		// fired/retired/replaced events are loop bookkeeping, not outcomes
		return Run{}, false
	}
	return run, true
}
