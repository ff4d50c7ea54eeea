// Package ipc exposes daemon control over JSON-RPC on a Unix domain socket.
//
// The CLI uses Client to query status and manage jobs while the daemon owns
// the database. Request and response types wrap the api DTOs.
package ipc
