// Package history records job fire outcomes.
//
// A Recorder subscribes to the engine's event bus and appends one Run row
// per completed, failed, or skipped fire to the configured Store. Stores:
// a bounded in-memory ring (default) or a SQLite file. This is an audit
// trail of executions; schedule state itself is never persisted.
package history
