// Package api defines wire-format types and converters shared by the IPC
// server and the CLI. It translates jobs, media and warnings into
// transport-friendly DTOs so clients never depend on store types.
//
// JobService implements the job operations (submit, list, describe, cancel,
// remove, clear) against any JobStore, which lets the CLI fall back to the
// database directly when the daemon is not running.
//
// DTOs use camelCase JSON tags. Statuses are exposed as lowercase strings and
// timestamps use RFC3339 with milliseconds.
package api
