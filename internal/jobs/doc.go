// Package jobs persists workflow jobs in SQLite and exposes helpers for
// driving their lifecycle.
//
// The Store manages database connections, schema initialization, atomic job
// claiming, heartbeat tracking, stale-job recovery, and the per-task track
// and warning records the workflow manager reads between tasks. Each job
// carries a snapshot of its pipeline so catalog edits never change a job in
// flight.
//
// Schema changes bump the version in schema.go; users clear the database to
// adopt the new schema.
package jobs
