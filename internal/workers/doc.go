// Package workers provides the detection and markup workers the daemon runs
// in process.
//
// The sidecar detector replays tracks recorded next to the media file, which
// lets externally computed detections flow through the pipeline. The
// manifest renderer writes the box map a renderer would paint, and copies
// media that cannot carry an overlay. Both serve the bus through the
// dispatch package like any out-of-process worker would.
package workers
