// Package preflight checks the filesystem paths and binaries mediaflow
// depends on before the daemon starts accepting jobs.
//
// The daemon refuses to start when a required check fails. The CLI
// "daemon status" command shows the same results.
package preflight
