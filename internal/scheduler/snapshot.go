package scheduler

import (
	"sort"
	"time"
)

// EntryInfo describes one live entry for introspection.
type EntryInfo struct {
	ID         uint64
	Name       string
	Trigger    string
	Next       time.Time
	Remaining  int // -1 for unbounded triggers
	Concurrent bool
	State      string // "scheduled" or "blocked"
}

type Snapshot struct {
	Running  bool
	Timezone string
	Entries  []EntryInfo
}

// Snapshot reports every armed entry in fire order. "blocked" means a
// non-concurrent entry whose previous run is still executing.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	running := e.running
	tz := e.loc.String()
	// next/remaining belong to the loop and are only stable under e.mu, so
	// the EntryInfo rows are built before the lock is released. Taking
	// guard.mu under e.mu matches the dispatch path's lock order.
	items := make([]EntryInfo, 0, len(e.fires))
	for _, ent := range e.fires {
		state := "scheduled"
		if !ent.concurrent && ent.guard.held() {
			state = "blocked"
		}
		items = append(items, EntryInfo{
			ID:         ent.id,
			Name:       ent.name,
			Trigger:    ent.trig.describe(),
			Next:       ent.next,
			Remaining:  ent.remaining,
			Concurrent: ent.concurrent,
			State:      state,
		})
	}
	e.mu.Unlock()
	// Heap order is only partially sorted; present deterministically.
	sort.Slice(items, func(i, j int) bool {
		if items[i].Next.Equal(items[j].Next) {
			return items[i].ID < items[j].ID
		}
		return items[i].Next.Before(items[j].Next)
	})
	return Snapshot{Running: running, Timezone: tz, Entries: items}
}
