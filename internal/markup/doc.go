// Package markup converts persisted detection tracks into the frame-indexed
// overlay map consumed by the markup renderer.
//
// Key types:
//   - BoundingBoxMap: per-frame boxes plus interval-painted spans
//   - Builder: paints the tracks of one medium with distinct colors
//   - ColorSequence: deterministic golden-ratio hue walk, one per medium
//   - Options: label, animation and encoder settings parsed from properties
//
// Everything here is synchronous and free of I/O. Recoverable configuration
// problems are returned as props.Warning values; inconsistent tracks fail
// with track.ErrInconsistent.
package markup
