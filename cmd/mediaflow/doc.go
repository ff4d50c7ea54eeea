// Command mediaflow is the command line client for the mediaflow daemon.
//
// Job commands talk to a running daemon over its Unix socket and fall back
// to the job database when the daemon is down. The segment and markup
// commands run the engine offline over a JSON track file, which is useful
// for checking segment plans and box maps without submitting a job.
package main
