// Package logx configures metronome's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//   - Repeated messages throttleable per key (e.g. a job failing every second)
package logx
