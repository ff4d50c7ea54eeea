// Package interval implements closed integer intervals and the merge/union
// algebra the segmenters are built on.
//
// Intervals are inclusive on both ends. Union collapses a multiset of
// intervals into an ordered list of disjoint intervals, treating two intervals
// separated by no more than the configured gap as one.
package interval

import (
	"cmp"
	"fmt"
	"slices"
)

// Interval is a closed range [Start, End] with Start <= End.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// New returns the interval spanning both endpoints regardless of argument order.
func New(start, end int) Interval {
	if start > end {
		start, end = end, start
	}
	return Interval{Start: start, End: end}
}

// Len reports the number of integer points covered by the interval.
func (i Interval) Len() int {
	return i.End - i.Start + 1
}

// Contains reports whether v lies inside the interval.
func (i Interval) Contains(v int) bool {
	return v >= i.Start && v <= i.End
}

// Encloses reports whether other lies entirely inside i.
func (i Interval) Encloses(other Interval) bool {
	return other.Start >= i.Start && other.End <= i.End
}

func (i Interval) String() string {
	return fmt.Sprintf("[%d,%d]", i.Start, i.End)
}

// Overlaps reports whether a and b overlap once gaps of up to gap points
// between them are bridged. A gap of 0 requires a shared point.
func Overlaps(a, b Interval, gap int) bool {
	if gap < 0 {
		gap = 0
	}
	lo := max(a.Start, b.Start)
	hi := min(a.End, b.End)
	return lo-hi <= gap
}

// Merge returns the smallest interval covering a and b. Callers that merge
// intervals which do not overlap accept that the result spans the gap.
func Merge(a, b Interval) Interval {
	return Interval{Start: min(a.Start, b.Start), End: max(a.End, b.End)}
}

// Compare orders intervals by start, then end.
func Compare(a, b Interval) int {
	if c := cmp.Compare(a.Start, b.Start); c != 0 {
		return c
	}
	return cmp.Compare(a.End, b.End)
}

// Union merges every pair of intervals that overlap with the given gap
// tolerance and returns the result ordered by start. The input is not modified.
func Union(intervals []Interval, gap int) []Interval {
	if len(intervals) == 0 {
		return nil
	}
	sorted := slices.Clone(intervals)
	slices.SortFunc(sorted, Compare)

	out := make([]Interval, 0, len(sorted))
	current := sorted[0]
	for _, next := range sorted[1:] {
		if Overlaps(current, next, gap) {
			current = Merge(current, next)
			continue
		}
		out = append(out, current)
		current = next
	}
	return append(out, current)
}
