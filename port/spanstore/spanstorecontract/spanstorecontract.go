package spanstorecontract

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.llib.dev/frameless/port/contract"
	"go.llib.dev/spanjoin/pkg/interval"
	"go.llib.dev/spanjoin/port/spanstore"

	"go.llib.dev/testcase"
	"go.llib.dev/testcase/assert"
)

// Store is the behaviour every spanstore.Store adapter has to provide.
func Store(subject spanstore.Store) contract.Contract {
	s := testcase.NewSpec(nil)

	var (
		ctx = testcase.Let(s, func(t *testcase.T) context.Context {
			return context.Background()
		})
		document = testcase.Let(s, func(t *testcase.T) string {
			return fmt.Sprintf("doc-%d", t.Random.Int())
		})
		layer = testcase.Let(s, func(t *testcase.T) string {
			return fmt.Sprintf("layer-%d", t.Random.Int())
		})
	)
	makeAnnotation := func(t *testcase.T) spanstore.Annotation {
		begin := t.Random.IntB(0, 1000)
		return spanstore.Annotation{
			Document: document.Get(t),
			Layer:    layer.Get(t),
			Begin:    begin,
			End:      begin + t.Random.IntB(0, 50),
			Label:    t.Random.String(),
		}
	}
	collect := func(t *testcase.T, document, layer string) []spanstore.Annotation {
		var out []spanstore.Annotation
		for a, err := range subject.FindByLayer(ctx.Get(t), document, layer) {
			assert.NoError(t, err)
			out = append(out, a)
		}
		return out
	}

	s.Describe(".Create", func(s *testcase.Spec) {
		ptr := testcase.Let(s, func(t *testcase.T) *spanstore.Annotation {
			a := makeAnnotation(t)
			return &a
		})
		act := func(t *testcase.T) error {
			return subject.Create(ctx.Get(t), ptr.Get(t))
		}

		s.Then("an ID is assigned and the annotation becomes findable", func(t *testcase.T) {
			assert.NoError(t, act(t))
			assert.NotEmpty(t, ptr.Get(t).ID)

			got, found, err := subject.FindByID(ctx.Get(t), ptr.Get(t).ID)
			assert.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, *ptr.Get(t), got)
		})

		s.When("the annotation already has an ID", func(s *testcase.Spec) {
			id := testcase.Let(s, func(t *testcase.T) spanstore.AnnotationID {
				return spanstore.AnnotationID(fmt.Sprintf("id-%d", t.Random.Int()))
			})
			ptr.Let(s, func(t *testcase.T) *spanstore.Annotation {
				p := ptr.Super(t)
				p.ID = id.Get(t)
				return p
			})

			s.Then("the ID is kept", func(t *testcase.T) {
				assert.NoError(t, act(t))
				assert.Equal(t, id.Get(t), ptr.Get(t).ID)

				_, found, err := subject.FindByID(ctx.Get(t), id.Get(t))
				assert.NoError(t, err)
				assert.True(t, found)
			})

			s.And("it is already stored", func(s *testcase.Spec) {
				s.Before(func(t *testcase.T) {
					a := *ptr.Get(t)
					assert.NoError(t, subject.Create(ctx.Get(t), &a))
				})

				s.Then("it fails with ErrAlreadyExists", func(t *testcase.T) {
					assert.True(t, errors.Is(act(t), spanstore.ErrAlreadyExists))
				})
			})
		})

		s.When("the span ends before it begins", func(s *testcase.Spec) {
			ptr.Let(s, func(t *testcase.T) *spanstore.Annotation {
				p := ptr.Super(t)
				p.Begin, p.End = 10, 5
				return p
			})

			s.Then("it fails with ErrInvalidSpan", func(t *testcase.T) {
				assert.True(t, errors.Is(act(t), spanstore.ErrInvalidSpan))
			})
		})

		s.When("the span begins at a negative offset", func(s *testcase.Spec) {
			ptr.Let(s, func(t *testcase.T) *spanstore.Annotation {
				p := ptr.Super(t)
				p.Begin = -1
				return p
			})

			s.Then("it fails with ErrInvalidSpan", func(t *testcase.T) {
				assert.True(t, errors.Is(act(t), spanstore.ErrInvalidSpan))
			})
		})
	})

	s.Describe(".FindByID", func(s *testcase.Spec) {
		s.Then("an unknown ID is reported as not found", func(t *testcase.T) {
			_, found, err := subject.FindByID(ctx.Get(t), spanstore.AnnotationID(fmt.Sprintf("unknown-%d", t.Random.Int())))
			assert.NoError(t, err)
			assert.False(t, found)
		})
	})

	s.Describe(".FindByLayer", func(s *testcase.Spec) {
		stored := testcase.Let(s, func(t *testcase.T) []spanstore.Annotation {
			var out []spanstore.Annotation
			for i, n := 0, t.Random.IntB(1, 32); i < n; i++ {
				a := makeAnnotation(t)
				assert.NoError(t, subject.Create(context.Background(), &a))
				out = append(out, a)
			}
			return out
		}).EagerLoading(s)

		s.Before(func(t *testcase.T) {
			other := makeAnnotation(t)
			other.Layer = layer.Get(t) + "-other"
			assert.NoError(t, subject.Create(context.Background(), &other))
		})

		s.Then("it yields the annotations of the layer", func(t *testcase.T) {
			assert.ContainExactly(t, stored.Get(t), collect(t, document.Get(t), layer.Get(t)))
		})

		s.Then("the annotations are ordered ascending by begin", func(t *testcase.T) {
			got := collect(t, document.Get(t), layer.Get(t))
			assert.True(t, slices.IsSortedFunc(got, func(a, b spanstore.Annotation) int {
				return interval.Compare(spanstore.Interval(a), spanstore.Interval(b))
			}))
		})

		s.Then("an unknown layer yields nothing", func(t *testcase.T) {
			assert.Empty(t, collect(t, document.Get(t), layer.Get(t)+"-unknown"))
		})

		s.Then("iteration can be stopped early", func(t *testcase.T) {
			var n int
			for range subject.FindByLayer(ctx.Get(t), document.Get(t), layer.Get(t)) {
				n++
				break
			}
			assert.Equal(t, 1, n)
		})

		s.When("the context is cancelled", func(s *testcase.Spec) {
			ctx.Let(s, func(t *testcase.T) context.Context {
				c, cancel := context.WithCancel(context.Background())
				cancel()
				return c
			})
			stored.Let(s, func(t *testcase.T) []spanstore.Annotation { return nil })

			s.Then("the error is yielded", func(t *testcase.T) {
				var got error
				for _, err := range subject.FindByLayer(ctx.Get(t), document.Get(t), layer.Get(t)) {
					if err != nil {
						got = err
					}
				}
				assert.True(t, errors.Is(got, context.Canceled))
			})
		})
	})

	s.Describe(".DeleteAll", func(s *testcase.Spec) {
		s.Then("nothing is findable afterwards", func(t *testcase.T) {
			a := makeAnnotation(t)
			assert.NoError(t, subject.Create(ctx.Get(t), &a))

			assert.NoError(t, subject.DeleteAll(ctx.Get(t)))

			_, found, err := subject.FindByID(ctx.Get(t), a.ID)
			assert.NoError(t, err)
			assert.False(t, found)
			assert.Empty(t, collect(t, document.Get(t), layer.Get(t)))
		})
	})

	return s.AsSuite("Store")
}
