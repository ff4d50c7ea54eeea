// Package daemon coordinates the long-running mediaflow process.
//
// It wires configuration, the job store, the workflow manager and the job
// service into a single lifecycle with flock-based locking to prevent
// multiple instances. On start it returns jobs left in progress by a previous
// run to the queue and runs preflight checks before workers begin.
//
// Keep orchestration logic here: task execution lives in the workflow and
// stage packages while the daemon focuses on startup, shutdown and status.
package daemon
