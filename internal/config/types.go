package config

type Config struct {
	Logging LoggingConfig `json:"logging"`

	// Engine controls trigger behavior (timezone, failure log throttling).
	Engine EngineConfig `json:"engine"`

	// History controls the optional run-history store.
	// If omitted, outcomes are kept in a bounded in-memory ring.
	History *HistoryConfig `json:"history,omitempty"`

	Jobs []JobSpec `json:"jobs"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// EngineConfig controls the scheduling engine.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type EngineConfig struct {
	// Timezone for cron evaluation, e.g. "Europe/Berlin". Empty means local time.
	Timezone string `json:"timezone,omitempty"`

	// FailureLogEvery throttles repeated failure logs per job.
	// Use "0s" to keep the default (one minute).
	FailureLogEvery string `json:"failure_log_every,omitempty"`
	FailureLogBurst int    `json:"failure_log_burst,omitempty"`
}

// HistoryConfig controls the run-history store.
//
// Example:
//
//	"history": { "driver": "sqlite", "path": "./metronome.db" }
type HistoryConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
	Keep        int    `json:"keep,omitempty"`         // memory driver ring size
}

// JobSpec describes one job to register at startup (and re-register on reload).
//
// Exactly one of Cron, Every, or At must be set.
type JobSpec struct {
	Name    string   `json:"name"`
	Command []string `json:"command"`

	// Cron is a cron expression with an optional leading seconds field.
	Cron string `json:"cron,omitempty"`
	// Every is a Go duration string for interval firing.
	Every string `json:"every,omitempty"`
	// At is an RFC 3339 timestamp for a one-shot fire.
	At string `json:"at,omitempty"`

	// Times bounds an interval job to a fixed number of fires.
	// Zero means unbounded. Only valid together with Every.
	Times int `json:"times,omitempty"`

	// Concurrent allows overlapping runs. Off by default: a fire that lands
	// while the previous run is still going is skipped, not queued.
	Concurrent bool `json:"concurrent,omitempty"`

	// Timeout kills the command after this duration. "0s" disables it.
	Timeout string `json:"timeout,omitempty"`

	Dir string            `json:"dir,omitempty"`
	Env map[string]string `json:"env,omitempty"`
}
