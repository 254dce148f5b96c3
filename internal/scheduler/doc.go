// Package scheduler provides metronome's in-process job scheduling engine.
//
// # Overview
//
// Jobs are registered under an optional logical name together with a trigger:
// a cron expression, a fixed period, a one-shot date, or a bounded
// repeat-N-times schedule. Named jobs can be removed later and re-registering
// an existing name atomically replaces the old entry (upsert). Anonymous jobs
// are fire-and-forget: they cannot be removed and retire themselves once
// their trigger is exhausted.
//
// # Triggers
//
//   - Cron: six-field expressions (sec min hour dom mon dow) plus the usual
//     descriptors ("@hourly", "@every 5m"). Expressions are validated at
//     registration; evaluation cannot fail later.
//   - Periodic: fires every period, first fire one period after registration.
//   - One-shot: fires once at a date; a past date fires immediately.
//   - Repeat: fires at a date (or immediately), then times-1 more fires
//     spaced period apart.
//
// A fire whose scheduled time has already elapsed (the process was busy or
// suspended) dispatches once immediately and then re-aligns to the first
// grid point in the future. Missed ticks are never replayed.
//
// # Concurrency
//
// One loop owns the fire ordering; each dispatch runs on its own goroutine.
// An entry registered with concurrent=false is gated: a fire that arrives
// while the previous run is still executing is skipped, not queued, and the
// scheduled slot is consumed. Job failures (including panics) are isolated
// at the dispatch boundary and reported through the logger and event bus;
// they never reach the scheduling loop or the registering caller.
package scheduler
