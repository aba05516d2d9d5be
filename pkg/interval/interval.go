// Package interval provides a closed integer range over text offsets,
// carrying an arbitrary payload alongside it.
//
// Intervals are value types. Two intervals overlap unless one ends strictly before the other begins,
// which means that spans touching at a single offset are treated as overlapping.
// Token and character offset matching relies on this, so adjacent spans pair up instead of being reported as gaps.
package interval

import (
	"cmp"
	"fmt"
	"slices"
)

// Interval is a [Begin, End] range of text offsets.
// The Begin <= End invariant is the caller's obligation, it is not validated.
type Interval[P any] struct {
	Begin int
	End   int
	// Payload is an opaque value that travels with the interval, like the annotation the span belongs to.
	Payload P
}

func New[P any](begin, end int, payload P) Interval[P] {
	return Interval[P]{Begin: begin, End: end, Payload: payload}
}

// Span makes a payload-less interval.
func Span(begin, end int) Interval[struct{}] {
	return Interval[struct{}]{Begin: begin, End: end}
}

// Len returns the distance between Begin and End.
func (i Interval[P]) Len() int { return i.End - i.Begin }

// Contains reports whether the offset falls within the closed range.
func (i Interval[P]) Contains(offset int) bool {
	return i.Begin <= offset && offset <= i.End
}

func (i Interval[P]) String() string {
	return fmt.Sprintf("[%d, %d]", i.Begin, i.End)
}

// Overlaps reports whether x and y share at least one offset.
// Touching boundaries (x.End == y.Begin) count as overlap.
func Overlaps[X, Y any](x Interval[X], y Interval[Y]) bool {
	return !(x.End < y.Begin || y.End < x.Begin)
}

// Compare orders intervals by Begin only.
func Compare[P any](a, b Interval[P]) int {
	return cmp.Compare(a.Begin, b.Begin)
}

// IsSorted reports whether the intervals are in ascending Begin order.
func IsSorted[P any](is []Interval[P]) bool {
	return slices.IsSortedFunc(is, Compare[P])
}

// Sort orders the intervals ascending by Begin in place.
// Intervals with the same Begin keep their relative order.
func Sort[P any](is []Interval[P]) {
	slices.SortStableFunc(is, Compare[P])
}
