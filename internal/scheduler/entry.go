package scheduler

import (
	"sync"
	"time"
)

type entryState int

const (
	stateScheduled entryState = iota
	stateRetired
	stateCancelled
)

// entry binds a trigger, a resolved unit of work, and the runtime fire
// state. The fields next/remaining/state/index are owned by the loop and
// only touched under Engine.mu; guard has its own lock because dispatch
// goroutines release it after the loop moved on.
type entry struct {
	id         uint64 // insertion sequence; breaks fire-time ties
	name       string // "" = anonymous (uncancelable, never collides)
	trig       trigger
	run        runner
	cfg        JobConfig
	concurrent bool

	next      time.Time
	remaining int // fires left; unbounded (-1) for cron/periodic
	state     entryState
	index     int // heap position, -1 when not queued

	guard guard
}

// guard is the per-entry concurrency gate. With concurrent entries it is
// never consulted; otherwise a fire that finds it held is skipped outright
// (the slot is consumed, nothing is queued or retried).
type guard struct {
	mu      sync.Mutex
	running bool
}

func (g *guard) tryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return false
	}
	g.running = true
	return true
}

func (g *guard) release() {
	g.mu.Lock()
	g.running = false
	g.mu.Unlock()
}

func (g *guard) held() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

// fireHeap orders entries by (next fire time, insertion sequence) so that
// simultaneous deadlines pop in registration order and the loop stays
// deterministic.
type fireHeap []*entry

func (h fireHeap) Len() int { return len(h) }

func (h fireHeap) Less(i, j int) bool {
	if h[i].next.Equal(h[j].next) {
		return h[i].id < h[j].id
	}
	return h[i].next.Before(h[j].next)
}

func (h fireHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *fireHeap) Push(x any) {
	ent := x.(*entry)
	ent.index = len(*h)
	*h = append(*h, ent)
}

func (h *fireHeap) Pop() any {
	old := *h
	n := len(old)
	ent := old[n-1]
	old[n-1] = nil
	ent.index = -1
	*h = old[:n-1]
	return ent
}
