// Package stage holds the handlers the workflow manager runs for each
// pipeline task.
//
// The detection handler segments every medium, dispatches one request per
// segment and persists the returned tracks before it returns, so the next
// task always reads complete output. The markup handler turns the tracks of
// the preceding detection task into a box map per medium and asks a
// renderer to paint it.
package stage
