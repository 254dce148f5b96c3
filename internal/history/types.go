package history

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("history disabled")

// Config configures the run history store.
//
// Driver values:
//   - "memory": bounded in-memory ring (default)
//   - "sqlite": SQLite database file
//
// If Driver is "none", history is disabled.
type Config struct {
	Driver      string
	Path        string        // sqlite only
	BusyTimeout time.Duration // sqlite only; 0 means default
	Keep        int           // memory only; max rows kept, 0 means default
}

// Run records one fire outcome. Keep it compact and schema-stable.
type Run struct {
	At      time.Time
	EntryID uint64
	Name    string
	Trigger string
	Status  string // "ok", "error", "skipped"
	Error   string
	TookMS  int64
}

const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusSkipped = "skipped"
)
