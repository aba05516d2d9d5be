// Package spanstore defines the storage port for annotation spans.
//
// A Store keeps annotations grouped by document and layer,
// and serves a layer in ascending Begin order, ready to be fed into an overlapjoin.Sweep.
package spanstore

import (
	"context"
	"fmt"
	"iter"

	"github.com/google/uuid"
	"go.llib.dev/frameless/pkg/errorkit"
	"go.llib.dev/frameless/pkg/iterkit"
	"go.llib.dev/spanjoin/pkg/interval"
)

const (
	ErrInvalidSpan   errorkit.Error = "spanstore: invalid span"
	ErrAlreadyExists errorkit.Error = "spanstore: annotation already exists"
)

type AnnotationID string

// Annotation is a labelled span of a document, contributed to a layer.
// A layer is usually a single annotator's or a recommender's set of annotations.
type Annotation struct {
	ID       AnnotationID `json:"id"`
	Document string       `json:"document"`
	Layer    string       `json:"layer"`
	Begin    int          `json:"begin"`
	End      int          `json:"end"`
	Label    string       `json:"label,omitempty"`
}

type Store interface {
	// Create stores the annotation.
	// When the ID is empty, a new one is assigned to the received pointer.
	Create(ctx context.Context, ptr *Annotation) error
	FindByID(ctx context.Context, id AnnotationID) (_ Annotation, found bool, _ error)
	// FindByLayer yields the annotations of a document layer in ascending Begin order.
	// Annotations with the same Begin may come in any order.
	FindByLayer(ctx context.Context, document, layer string) iter.Seq2[Annotation, error]
	DeleteAll(ctx context.Context) error
}

// MakeID generates a new random annotation ID.
func MakeID(context.Context) (AnnotationID, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return AnnotationID(id.String()), nil
}

// Validate checks the span of the annotation.
func Validate(a Annotation) error {
	if a.Begin < 0 || a.End < a.Begin {
		return fmt.Errorf("%w: [%d, %d]", ErrInvalidSpan, a.Begin, a.End)
	}
	return nil
}

// Interval converts the annotation into an interval that carries the annotation as payload.
func Interval(a Annotation) interval.Interval[Annotation] {
	return interval.New(a.Begin, a.End, a)
}

// Intervals splits an annotation error sequence into an interval sequence and an error func.
// The error func reports the errors met during the last iteration.
func Intervals(seq iter.Seq2[Annotation, error]) (iter.Seq[interval.Interval[Annotation]], func() error) {
	values, errFn := iterkit.SplitSeqE(seq)
	return iterkit.Map(values, Interval), errFn
}
