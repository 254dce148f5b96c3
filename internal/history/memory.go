package history

import (
	"context"
	"sync"
)

// memoryStore keeps a bounded ring of recent runs. Oldest rows fall off once
// the cap is reached, so a long-running process cannot retain memory without
// bound.
type memoryStore struct {
	mu   sync.Mutex
	runs []Run
	keep int
}

func newMemoryStore(cfg Config) *memoryStore {
	keep := cfg.Keep
	if keep <= 0 {
		keep = 200
	}
	return &memoryStore{keep: keep}
}

func (s *memoryStore) AppendRun(_ context.Context, r Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, r)
	if len(s.runs) > s.keep {
		s.runs = s.runs[len(s.runs)-s.keep:]
	}
	return nil
}

func (s *memoryStore) RecentRuns(_ context.Context, name string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Run, 0, limit)
	for i := len(s.runs) - 1; i >= 0 && len(out) < limit; i-- {
		if name == "" || s.runs[i].Name == name {
			out = append(out, s.runs[i])
		}
	}
	return out, nil
}

func (s *memoryStore) Close() error { return nil }
