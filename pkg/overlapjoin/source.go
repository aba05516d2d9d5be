package overlapjoin

import (
	"iter"

	"go.llib.dev/spanjoin/pkg/interval"
)

// cursor is an optional interval, ok is false when there is no current element.
type cursor[T any] struct {
	v  interval.Interval[T]
	ok bool
}

func some[T any](v interval.Interval[T]) cursor[T] { return cursor[T]{v: v, ok: true} }

func none[T any]() cursor[T] { return cursor[T]{} }

// source is a forward only reader of intervals.
type source[T any] func() (interval.Interval[T], bool)

func fromSlice[T any](vs []interval.Interval[T]) source[T] {
	var index int
	return func() (interval.Interval[T], bool) {
		if len(vs) <= index {
			return interval.Interval[T]{}, false
		}
		v := vs[index]
		index++
		return v, true
	}
}

func fromSeq[T any](seq iter.Seq[interval.Interval[T]]) (source[T], func()) {
	if seq == nil {
		return fromSlice[T](nil), func() {}
	}
	next, stop := iter.Pull(seq)
	return next, stop
}
