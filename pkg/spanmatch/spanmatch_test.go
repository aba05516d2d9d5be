package spanmatch_test

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"testing"

	"go.llib.dev/frameless/pkg/logger"
	"go.llib.dev/spanjoin/adapter/memory"
	"go.llib.dev/spanjoin/pkg/interval"
	"go.llib.dev/spanjoin/pkg/overlapjoin"
	"go.llib.dev/spanjoin/pkg/spanmatch"
	"go.llib.dev/spanjoin/port/spanstore"

	"go.llib.dev/testcase"
	"go.llib.dev/testcase/assert"
)

func ExampleMatcher_Match() {
	ctx := context.Background()
	store := memory.NewStore()
	for _, a := range []spanstore.Annotation{
		{Document: "doc", Layer: "alice", Begin: 0, End: 4, Label: "PER"},
		{Document: "doc", Layer: "alice", Begin: 10, End: 15, Label: "LOC"},
		{Document: "doc", Layer: "bob", Begin: 2, End: 4, Label: "PER"},
		{Document: "doc", Layer: "bob", Begin: 10, End: 15, Label: "ORG"},
	} {
		if err := store.Create(ctx, &a); err != nil {
			panic(err)
		}
	}

	m := spanmatch.Matcher{Store: store}
	for match, err := range m.Match(ctx, spanmatch.Query{Document: "doc", LayerA: "alice", LayerB: "bob"}) {
		if err != nil {
			panic(err)
		}
		fmt.Println(match.A.Label, match.B.Label, match.Relation)
	}
	// Output:
	// PER PER contains
	// LOC ORG equal
}

type key struct{ A, B spanstore.AnnotationID }

func bruteForce(as, bs []spanstore.Annotation, sameLabel bool) []key {
	var out []key
	for _, a := range as {
		for _, b := range bs {
			if !interval.Overlaps(spanstore.Interval(a), spanstore.Interval(b)) {
				continue
			}
			if sameLabel && a.Label != b.Label {
				continue
			}
			out = append(out, key{A: a.ID, B: b.ID})
		}
	}
	return out
}

func TestMatcher_Match(t *testing.T) {
	logger.Testing(t)
	s := testcase.NewSpec(t)

	var (
		store = testcase.Let(s, func(t *testcase.T) spanstore.Store {
			return memory.NewStore()
		})
		subject = testcase.Let(s, func(t *testcase.T) spanmatch.Matcher {
			return spanmatch.Matcher{Store: store.Get(t)}
		})
		ctx = testcase.Let(s, func(t *testcase.T) context.Context {
			return context.Background()
		})
		query = testcase.Let(s, func(t *testcase.T) spanmatch.Query {
			return spanmatch.Query{Document: "doc", LayerA: "a", LayerB: "b"}
		})
	)
	act := func(t *testcase.T) ([]spanmatch.Match, error) {
		var (
			out  []spanmatch.Match
			gErr error
		)
		for m, err := range subject.Get(t).Match(ctx.Get(t), query.Get(t)) {
			if err != nil {
				gErr = err
				continue
			}
			out = append(out, m)
		}
		return out, gErr
	}

	labels := []string{"PER", "LOC", "ORG"}
	populate := func(t *testcase.T, layer string) []spanstore.Annotation {
		var out []spanstore.Annotation
		for i, n := 0, t.Random.IntB(0, 40); i < n; i++ {
			begin := t.Random.IntB(0, 200)
			a := spanstore.Annotation{
				Document: "doc",
				Layer:    layer,
				Begin:    begin,
				End:      begin + t.Random.IntB(0, 15),
				Label:    labels[t.Random.IntB(0, len(labels)-1)],
			}
			assert.NoError(t, store.Get(t).Create(context.Background(), &a))
			out = append(out, a)
		}
		return out
	}

	var (
		layerA = testcase.Let(s, func(t *testcase.T) []spanstore.Annotation {
			return populate(t, "a")
		}).EagerLoading(s)
		layerB = testcase.Let(s, func(t *testcase.T) []spanstore.Annotation {
			return populate(t, "b")
		}).EagerLoading(s)
	)

	keysOf := func(ms []spanmatch.Match) []key {
		var out []key
		for _, m := range ms {
			out = append(out, key{A: m.A.ID, B: m.B.ID})
		}
		return out
	}

	s.Then("it yields the same pairs as a brute force join", func(t *testcase.T) {
		got, err := act(t)
		assert.NoError(t, err)
		assert.ContainExactly(t, bruteForce(layerA.Get(t), layerB.Get(t), false), keysOf(got))
	})

	s.Then("the matches are ordered by the begin of the A annotation", func(t *testcase.T) {
		got, err := act(t)
		assert.NoError(t, err)
		for i := 1; i < len(got); i++ {
			assert.True(t, got[i-1].A.Begin <= got[i].A.Begin)
		}
	})

	s.Then("every match is classified", func(t *testcase.T) {
		got, err := act(t)
		assert.NoError(t, err)
		for _, m := range got {
			assert.Equal(t, interval.Classify(spanstore.Interval(m.A), spanstore.Interval(m.B)), m.Relation)
			assert.True(t, m.Relation != interval.Disjoint)
		}
	})

	s.When("only the same labels are requested", func(s *testcase.Spec) {
		query.Let(s, func(t *testcase.T) spanmatch.Query {
			q := query.Super(t)
			q.SameLabel = true
			return q
		})

		s.Then("pairs with different labels are left out", func(t *testcase.T) {
			got, err := act(t)
			assert.NoError(t, err)
			assert.ContainExactly(t, bruteForce(layerA.Get(t), layerB.Get(t), true), keysOf(got))
			for _, m := range got {
				assert.Equal(t, m.A.Label, m.B.Label)
			}
		})
	})

	s.When("the layers are the same", func(s *testcase.Spec) {
		query.Let(s, func(t *testcase.T) spanmatch.Query {
			q := query.Super(t)
			q.LayerB = q.LayerA
			return q
		})

		s.Then("every annotation matches itself as equal", func(t *testcase.T) {
			got, err := act(t)
			assert.NoError(t, err)
			self := make(map[spanstore.AnnotationID]bool)
			for _, m := range got {
				if m.A.ID == m.B.ID {
					assert.Equal(t, interval.Equal, m.Relation)
					self[m.A.ID] = true
				}
			}
			assert.Equal(t, len(layerA.Get(t)), len(self))
		})
	})

	s.When("the layers are unknown", func(s *testcase.Spec) {
		query.Let(s, func(t *testcase.T) spanmatch.Query {
			return spanmatch.Query{Document: "unknown", LayerA: "x", LayerB: "y"}
		})

		s.Then("nothing is yielded", func(t *testcase.T) {
			got, err := act(t)
			assert.NoError(t, err)
			assert.Empty(t, got)
		})
	})

	s.When("the store fails", func(s *testcase.Spec) {
		expErr := errors.New("boom")
		store.Let(s, func(t *testcase.T) spanstore.Store {
			return &failingStore{Store: memory.NewStore(), FailLayer: "a", Err: expErr}
		})

		s.Then("the store error is yielded", func(t *testcase.T) {
			_, err := act(t)
			assert.True(t, errors.Is(err, expErr))
		})
	})

	s.When("the store serves a layer out of order", func(s *testcase.Spec) {
		store.Let(s, func(t *testcase.T) spanstore.Store {
			return &reversedStore{Store: memory.NewStore(), Layer: "a"}
		})
		layerA.Let(s, func(t *testcase.T) []spanstore.Annotation {
			for _, begin := range []int{1, 5} {
				a := spanstore.Annotation{Document: "doc", Layer: "a", Begin: begin, End: begin + 1}
				assert.NoError(t, store.Get(t).Create(context.Background(), &a))
			}
			return nil
		})

		s.And("strict mode is on", func(s *testcase.Spec) {
			query.Let(s, func(t *testcase.T) spanmatch.Query {
				q := query.Super(t)
				q.Strict = true
				return q
			})

			s.Then("the ordering problem is reported", func(t *testcase.T) {
				_, err := act(t)
				assert.True(t, errors.Is(err, overlapjoin.ErrPreconditionViolated))
			})
		})
	})

	s.When("the context is cancelled", func(s *testcase.Spec) {
		ctx.Let(s, func(t *testcase.T) context.Context {
			c, cancel := context.WithCancel(context.Background())
			cancel()
			return c
		})
		layerA.Let(s, func(t *testcase.T) []spanstore.Annotation {
			a := spanstore.Annotation{Document: "doc", Layer: "a", Begin: 0, End: 10}
			assert.NoError(t, store.Get(t).Create(context.Background(), &a))
			return []spanstore.Annotation{a}
		})

		s.Then("the context error is yielded", func(t *testcase.T) {
			_, err := act(t)
			assert.True(t, errors.Is(err, context.Canceled))
		})
	})

	s.Test("the consumer can stop early", func(t *testcase.T) {
		for _, begin := range []int{0, 1, 2} {
			a := spanstore.Annotation{Document: "doc", Layer: "a", Begin: begin, End: begin}
			b := spanstore.Annotation{Document: "doc", Layer: "b", Begin: begin, End: begin}
			assert.NoError(t, store.Get(t).Create(context.Background(), &a))
			assert.NoError(t, store.Get(t).Create(context.Background(), &b))
		}
		var n int
		for _, err := range subject.Get(t).Match(ctx.Get(t), query.Get(t)) {
			assert.NoError(t, err)
			n++
			break
		}
		assert.Equal(t, 1, n)
	})
}

type failingStore struct {
	spanstore.Store
	FailLayer string
	Err       error
}

func (s *failingStore) FindByLayer(ctx context.Context, document, layer string) iter.Seq2[spanstore.Annotation, error] {
	if layer != s.FailLayer {
		return s.Store.FindByLayer(ctx, document, layer)
	}
	return func(yield func(spanstore.Annotation, error) bool) {
		yield(spanstore.Annotation{}, s.Err)
	}
}

type reversedStore struct {
	spanstore.Store
	Layer string
}

func (s *reversedStore) FindByLayer(ctx context.Context, document, layer string) iter.Seq2[spanstore.Annotation, error] {
	if layer != s.Layer {
		return s.Store.FindByLayer(ctx, document, layer)
	}
	return func(yield func(spanstore.Annotation, error) bool) {
		var all []spanstore.Annotation
		for a, err := range s.Store.FindByLayer(ctx, document, layer) {
			if err != nil {
				yield(a, err)
				return
			}
			all = append(all, a)
		}
		for i := len(all) - 1; 0 <= i; i-- {
			if !yield(all[i], nil) {
				return
			}
		}
	}
}
