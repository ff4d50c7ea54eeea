// Package inspect determines what a job's media file is before any task
// runs: its MIME type, media kind, and for timed media the frame count,
// frame rate and duration that bound the first detection task's segments.
package inspect
