package overlapjoin

import (
	"iter"

	"go.llib.dev/spanjoin/pkg/interval"
)

// Join is the range-over-func form of FromSeq.
// It yields every overlapping pair, and when the Sweep stopped early because of a precondition violation,
// a final zero Pair with the error.
// Breaking out of the loop releases both sources.
//
// Join returns a single use sequence when the inputs are single use.
func Join[A, B any](as iter.Seq[interval.Interval[A]], bs iter.Seq[interval.Interval[B]], opts ...Option) iter.Seq2[Pair[A, B], error] {
	return func(yield func(Pair[A, B], error) bool) {
		s := FromSeq(as, bs, opts...)
		defer s.Close()
		for s.HasNext() {
			if !yield(s.Next(), nil) {
				return
			}
		}
		if err := s.Err(); err != nil {
			yield(Pair[A, B]{}, err)
		}
	}
}

// Collect joins two sorted slices and returns all overlapping pairs.
func Collect[A, B any](as []interval.Interval[A], bs []interval.Interval[B], opts ...Option) ([]Pair[A, B], error) {
	s := New(as, bs, opts...)
	defer s.Close()
	var pairs []Pair[A, B]
	for s.HasNext() {
		pairs = append(pairs, s.Next())
	}
	return pairs, s.Err()
}
