// Package logs tails the daemon's JSON log file for `mediaflow logs`.
//
// Tail reads the last N matching records or resumes from a byte offset, and
// in follow mode waits for new records. Filters select records by job,
// level or component without loading the whole file.
package logs
