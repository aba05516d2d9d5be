// Package overlapjoin enumerates every overlapping pair between two sequences of intervals
// without comparing each element of one sequence with each element of the other.
//
// # Summary
//
// Both inputs must be ordered ascending by Begin (ties are fine, stability is not needed).
// The Sweep walks them with a single forward pass each,
// while it keeps a small rolling window of B intervals that may still overlap an upcoming A interval.
// Every B interval is read from its source exactly once,
// and it is re-examined only while it sits in the window.
//
// The cost is O(|A| + |B| + carried-over window checks).
// When a single huge interval overlaps almost everything on the other side,
// it degrades towards O(|A|·|B|), which is acceptable for annotation spans and token or sentence windows.
//
// Ordering of the inputs is a precondition.
// With unordered input, the result is undefined, unless the Strict option is used,
// which makes the Sweep stop and report ErrPreconditionViolated.
//
// The produced pairs follow A monotonically, but otherwise they should be treated as an unordered set.
package overlapjoin

import (
	"fmt"
	"iter"

	"go.llib.dev/frameless/pkg/errorkit"
	"go.llib.dev/spanjoin/pkg/interval"
)

const (
	// ErrExhausted is the panic value of Sweep.Next when there are no more pairs to hand over.
	ErrExhausted errorkit.Error = "overlapjoin: Next called on an exhausted sweep"
	// ErrPreconditionViolated is reported in strict mode when an input is not ascending by Begin.
	ErrPreconditionViolated errorkit.Error = "overlapjoin: input is not sorted ascending by begin"
)

// Pair is an overlapping A and B interval.
type Pair[A, B any] struct {
	A interval.Interval[A]
	B interval.Interval[B]
}

// New makes a Sweep over two slices that are already sorted ascending by Begin.
// The first overlapping pair is searched for eagerly.
func New[A, B any](as []interval.Interval[A], bs []interval.Interval[B], opts ...Option) *Sweep[A, B] {
	s := makeSweep[A, B](fromSlice(as), fromSlice(bs), opts)
	if len(as) == 0 || len(bs) == 0 {
		s.finish()
		return s
	}
	s.step()
	return s
}

// FromSeq makes a Sweep over two single pass interval sequences that are sorted ascending by Begin.
// Each element is pulled from its sequence at most once.
//
// The sources are converted to pull iterators,
// so the Sweep must be closed if it is abandoned before it is exhausted.
func FromSeq[A, B any](as iter.Seq[interval.Interval[A]], bs iter.Seq[interval.Interval[B]], opts ...Option) *Sweep[A, B] {
	srcA, stopA := fromSeq(as)
	srcB, stopB := fromSeq(bs)
	s := makeSweep[A, B](srcA, srcB, opts)
	s.stops = append(s.stops, stopA, stopB)
	s.step()
	return s
}

// Sweep is a pull iterator of overlapping pairs.
//
// HasNext is free of side effects, it can be called any number of times.
// Next hands over the pair found in advance, then searches for the following one.
//
// A Sweep is not safe for concurrent use.
type Sweep[A, B any] struct {
	as source[A]
	bs source[B]

	strict bool
	lastA  cursor[A]
	lastB  cursor[B]

	curA cursor[A]
	curB cursor[B]

	// window holds the B intervals carried over for the current A,
	// and carry accumulates every B visited during the current A, as candidates for the next A.
	window []interval.Interval[B]
	wpos   int
	carry  []interval.Interval[B]

	bExhausted bool

	pair  Pair[A, B]
	done  bool
	err   error
	stops []func()
}

func makeSweep[A, B any](as source[A], bs source[B], opts []Option) *Sweep[A, B] {
	c := toConfig(opts)
	return &Sweep[A, B]{
		as:     as,
		bs:     bs,
		strict: c.Strict,
		window: make([]interval.Interval[B], 0, c.WindowHint),
		carry:  make([]interval.Interval[B], 0, c.WindowHint),
	}
}

func (s *Sweep[A, B]) HasNext() bool {
	return !s.done
}

// Next returns the current overlapping pair and prepares the following one.
// Calling Next when HasNext reports false is a programming error, and it panics with ErrExhausted.
func (s *Sweep[A, B]) Next() Pair[A, B] {
	if s.done {
		panic(ErrExhausted)
	}
	p := s.pair
	s.step()
	return p
}

// Err returns the reason the Sweep stopped early, if any.
func (s *Sweep[A, B]) Err() error {
	return s.err
}

// Close stops the Sweep and releases its pull sources.
// Close is idempotent.
func (s *Sweep[A, B]) Close() error {
	s.finish()
	return nil
}

func (s *Sweep[A, B]) finish() {
	s.done = true
	s.pair = Pair[A, B]{}
	s.window, s.carry = nil, nil
	for _, stop := range s.stops {
		stop()
	}
	s.stops = nil
}

func (s *Sweep[A, B]) fail(err error) {
	s.err = err
	s.finish()
}

// step runs the sweep until the next overlapping pair is found or the inputs run out.
func (s *Sweep[A, B]) step() {
	for !s.done {
		if !s.curA.ok && !s.advanceA() {
			return
		}

		s.advanceB()
		if s.done {
			return
		}

		if s.curB.ok {
			s.carry = append(s.carry, s.curB.v)
		}

		if s.curA.ok && s.curB.ok && interval.Overlaps(s.curA.v, s.curB.v) {
			s.pair = Pair[A, B]{A: s.curA.v, B: s.curB.v}
			return
		}
	}
}

// advanceA pulls the next A and prunes the carried B intervals that end before it begins.
// No later A can overlap them, since A begins never move backward.
func (s *Sweep[A, B]) advanceA() bool {
	a, ok := s.as()
	if !ok {
		s.finish()
		return false
	}
	if s.strict && s.lastA.ok && a.Begin < s.lastA.v.Begin {
		s.fail(fmt.Errorf("%w: side A begin %d follows %d", ErrPreconditionViolated, a.Begin, s.lastA.v.Begin))
		return false
	}
	s.lastA = some(a)
	s.curA = some(a)

	// window and carry keep separate backing arrays, they are refilled and reset in place.
	next := s.window[:0]
	for _, b := range s.carry {
		if a.Begin <= b.End {
			next = append(next, b)
		}
	}
	s.window, s.carry, s.wpos = next, s.carry[:0], 0

	if len(s.window) == 0 && s.bExhausted {
		s.finish()
		return false
	}
	return true
}

// advanceB serves the window first, and only pulls a fresh B when the window is used up.
func (s *Sweep[A, B]) advanceB() {
	if s.wpos < len(s.window) {
		s.curB = some(s.window[s.wpos])
		s.wpos++
		return
	}

	b, ok := s.pullB()
	if !ok {
		s.curB = none[B]()
		s.curA = none[A]()
		return
	}
	s.curB = some(b)
	if s.curA.v.End < b.Begin {
		// nothing from here on can overlap the current A,
		// b is carried over and checked against the next A from the window.
		s.curA = none[A]()
	}
}

func (s *Sweep[A, B]) pullB() (interval.Interval[B], bool) {
	if s.bExhausted {
		return interval.Interval[B]{}, false
	}
	b, ok := s.bs()
	if !ok {
		s.bExhausted = true
		return b, false
	}
	if s.strict && s.lastB.ok && b.Begin < s.lastB.v.Begin {
		s.fail(fmt.Errorf("%w: side B begin %d follows %d", ErrPreconditionViolated, b.Begin, s.lastB.v.Begin))
		return b, false
	}
	s.lastB = some(b)
	return b, true
}
