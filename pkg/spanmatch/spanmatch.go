// Package spanmatch compares two annotation layers of a document.
//
// It streams both layers from a spanstore.Store in Begin order
// and pairs up every annotation of the first layer with the overlapping annotations of the second,
// which is the usual first step of inter-annotator agreement or recommender evaluation.
package spanmatch

import (
	"context"
	"iter"

	"go.llib.dev/frameless/pkg/errorkit"
	"go.llib.dev/frameless/pkg/logger"
	"go.llib.dev/frameless/pkg/logging"
	"go.llib.dev/spanjoin/pkg/interval"
	"go.llib.dev/spanjoin/pkg/overlapjoin"
	"go.llib.dev/spanjoin/port/spanstore"
)

type Matcher struct {
	Store spanstore.Store
}

type Query struct {
	Document string
	LayerA   string
	LayerB   string
	// SameLabel keeps only the pairs where both annotations carry the same label.
	SameLabel bool
	// Strict verifies that the store serves the layers in Begin order.
	Strict bool
}

type Match struct {
	A        spanstore.Annotation `json:"a"`
	B        spanstore.Annotation `json:"b"`
	Relation interval.Relation    `json:"relation"`
}

// Match yields the overlapping annotation pairs of the two query layers,
// ordered by the A annotation's Begin.
// A store, ordering or context error is yielded as the last element.
func (m Matcher) Match(ctx context.Context, q Query) iter.Seq2[Match, error] {
	return func(yield func(Match, error) bool) {
		ctx := logging.ContextWith(ctx,
			logging.Field("document", q.Document),
			logging.Field("layer_a", q.LayerA),
			logging.Field("layer_b", q.LayerB))

		as, errA := spanstore.Intervals(m.Store.FindByLayer(ctx, q.Document, q.LayerA))
		bs, errB := spanstore.Intervals(m.Store.FindByLayer(ctx, q.Document, q.LayerB))

		var opts []overlapjoin.Option
		if q.Strict {
			opts = append(opts, overlapjoin.Strict())
		}

		var pairs, matches int
		err := func() error {
			for p, err := range overlapjoin.Join(as, bs, opts...) {
				if err != nil {
					return err
				}
				if err := ctx.Err(); err != nil {
					return err
				}
				pairs++
				a, b := p.A.Payload, p.B.Payload
				if q.SameLabel && a.Label != b.Label {
					continue
				}
				matches++
				if !yield(Match{A: a, B: b, Relation: interval.Classify(p.A, p.B)}, nil) {
					return errStopped
				}
			}
			return errorkit.Merge(errA(), errB())
		}()

		if err == errStopped {
			return
		}
		if err != nil {
			logger.Debug(ctx, "spanmatch: matching failed", logging.ErrField(err))
			yield(Match{}, err)
			return
		}
		logger.Debug(ctx, "spanmatch: layers matched",
			logging.Field("pairs", pairs),
			logging.Field("matches", matches))
	}
}

const errStopped errorkit.Error = "spanmatch: stopped by the consumer"
