// Package services defines shared utilities consumed by the workflow stage
// handlers and the dispatcher.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, media IDs, task indexes, stage names,
//     and correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent job statuses.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
