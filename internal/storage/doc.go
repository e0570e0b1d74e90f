// Package storage keeps an optional audit trail of scan runs.
//
// The pipeline only appends; nothing read back here influences a run.
// Backends:
//   - "file": JSON Lines next to the configured path
//   - "sqlite": modernc.org/sqlite database file
package storage
