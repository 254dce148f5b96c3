package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"metronome/internal/eventbus"
	"metronome/pkg/logx"
)

func TestMemoryStoreRingAndFilter(t *testing.T) {
	t.Parallel()
	st := newMemoryStore(Config{Keep: 5})

	for i := 0; i < 8; i++ {
		name := "a"
		if i%2 == 1 {
			name = "b"
		}
		err := st.AppendRun(context.Background(), Run{
			At:     time.Now(),
			Name:   name,
			Status: StatusOK,
			Error:  fmt.Sprintf("row-%d", i),
		})
		if err != nil {
			t.Fatalf("AppendRun error: %v", err)
		}
	}

	all, err := st.RecentRuns(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("RecentRuns error: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("kept %d rows, want 5 (ring cap)", len(all))
	}
	// newest first
	if all[0].Error != "row-7" {
		t.Fatalf("first row = %q, want row-7", all[0].Error)
	}

	bOnly, err := st.RecentRuns(context.Background(), "b", 10)
	if err != nil {
		t.Fatalf("RecentRuns(b) error: %v", err)
	}
	for _, r := range bOnly {
		if r.Name != "b" {
			t.Fatalf("filter leaked row for %q", r.Name)
		}
	}
}

func TestOpenDrivers(t *testing.T) {
	t.Parallel()

	if st, err := Open(Config{Driver: "none"}, logx.Nop()); err != nil || st != nil {
		t.Fatalf("Open(none) = (%v, %v), want (nil, nil)", st, err)
	}
	st, err := Open(Config{}, logx.Nop())
	if err != nil || st == nil {
		t.Fatalf("Open(default) = (%v, %v), want memory store", st, err)
	}
	if _, err := Open(Config{Driver: "bogus"}, logx.Nop()); err == nil {
		t.Fatal("Open(bogus) expected error")
	}
	if _, err := Open(Config{Driver: "sqlite"}, logx.Nop()); err == nil {
		t.Fatal("Open(sqlite) without path expected error")
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	t.Parallel()
	path := t.TempDir() + "/history.db"
	st, err := Open(Config{Driver: "sqlite", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open(sqlite) error: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		err := st.AppendRun(ctx, Run{
			At:      time.Now(),
			EntryID: uint64(i + 1),
			Name:    "backup",
			Trigger: "every 5s",
			Status:  StatusOK,
			TookMS:  int64(10 * i),
		})
		if err != nil {
			t.Fatalf("AppendRun error: %v", err)
		}
	}

	runs, err := st.RecentRuns(ctx, "backup", 2)
	if err != nil {
		t.Fatalf("RecentRuns error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].EntryID != 3 {
		t.Fatalf("newest run entry_id = %d, want 3", runs[0].EntryID)
	}
}

func TestRecorderAppendsOutcomes(t *testing.T) {
	t.Parallel()
	bus := eventbus.New()
	st := newMemoryStore(Config{})
	rec := NewRecorder(st, bus, logx.Nop())
	defer rec.Stop()

	bus.Publish(eventbus.Event{Type: eventbus.TypeJobFired, Data: eventbus.JobEvent{Name: "j"}})
	bus.Publish(eventbus.Event{Type: eventbus.TypeJobCompleted, Data: eventbus.JobEvent{Name: "j", Duration: 12 * time.Millisecond}})
	bus.Publish(eventbus.Event{Type: eventbus.TypeJobFailed, Data: eventbus.JobEvent{Name: "j", Error: "boom"}})
	bus.Publish(eventbus.Event{Type: eventbus.TypeJobSkipped, Data: eventbus.JobEvent{Name: "j", Error: "overlap"}})

	deadline := time.Now().Add(time.Second)
	for {
		runs, err := st.RecentRuns(context.Background(), "j", 10)
		if err != nil {
			t.Fatalf("RecentRuns error: %v", err)
		}
		if len(runs) == 3 {
			// fired events are bookkeeping, the three outcomes are rows
			statuses := map[string]bool{}
			for _, r := range runs {
				statuses[r.Status] = true
			}
			for _, want := range []string{StatusOK, StatusError, StatusSkipped} {
				if !statuses[want] {
					t.Fatalf("missing status %q in %v", want, runs)
				}
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("recorder stored %d rows, want 3", len(runs))
		}
		time.Sleep(5 * time.Millisecond)
	}
}
