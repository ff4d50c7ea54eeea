// Package logging assembles structured slog loggers and formatting helpers used
// across mediaflow services.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so workflow code can tag log
// lines with job IDs, media IDs, stages, and correlation IDs. The package
// also provides a no-op logger for tests and wiring code that cannot fail.
//
// The segmentation and markup engines never log; their callers do.
package logging
