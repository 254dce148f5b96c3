package history

import (
	"context"
	"errors"
	"strings"

	"metronome/pkg/logx"
)

// Store is the run history API used by the recorder and any introspection
// surface. Implementations must be safe for concurrent use.
type Store interface {
	AppendRun(ctx context.Context, r Run) error
	// RecentRuns returns up to limit runs, newest first. An empty name
	// matches all jobs.
	RecentRuns(ctx context.Context, name string, limit int) ([]Run, error)
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if history is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "", "memory":
		return newMemoryStore(cfg), nil
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown history driver: " + driver)
	}
}
