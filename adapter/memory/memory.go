// Package memory is an in-memory spanstore.Store, meant for tests and short lived processes.
//
// The annotations live only as long as the process does.
package memory

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"

	flmemory "go.llib.dev/frameless/adapter/memory"
	"go.llib.dev/frameless/port/crud"
	"go.llib.dev/spanjoin/port/spanstore"
)

func NewStore() *Store {
	return &Store{}
}

type Store struct {
	// MakeID [optional] generates the IDs of new annotations.
	//
	// default: spanstore.MakeID
	MakeID func(context.Context) (spanstore.AnnotationID, error)

	once sync.Once
	repo *flmemory.Repository[spanstore.Annotation, spanstore.AnnotationID]
}

func (s *Store) repository() *flmemory.Repository[spanstore.Annotation, spanstore.AnnotationID] {
	s.once.Do(func() {
		s.repo = flmemory.NewRepository[spanstore.Annotation, spanstore.AnnotationID](flmemory.NewMemory())
		s.repo.IDA = func(a *spanstore.Annotation) *spanstore.AnnotationID { return &a.ID }
		s.repo.MakeID = s.mkID
	})
	return s.repo
}

func (s *Store) Create(ctx context.Context, ptr *spanstore.Annotation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := spanstore.Validate(*ptr); err != nil {
		return err
	}
	err := s.repository().Create(ctx, ptr)
	if errors.Is(err, crud.ErrAlreadyExists) {
		return fmt.Errorf("%w: %s", spanstore.ErrAlreadyExists, ptr.ID)
	}
	return err
}

func (s *Store) FindByID(ctx context.Context, id spanstore.AnnotationID) (spanstore.Annotation, bool, error) {
	return s.repository().FindByID(ctx, id)
}

// FindByLayer takes a snapshot of the layer,
// so annotations created during the iteration are not visible to it.
func (s *Store) FindByLayer(ctx context.Context, document, layer string) iter.Seq2[spanstore.Annotation, error] {
	return func(yield func(spanstore.Annotation, error) bool) {
		annotations, err := s.snapshot(ctx, document, layer)
		if err != nil {
			yield(spanstore.Annotation{}, err)
			return
		}
		for _, a := range annotations {
			if err := ctx.Err(); err != nil {
				yield(spanstore.Annotation{}, err)
				return
			}
			if !yield(a, nil) {
				return
			}
		}
	}
}

func (s *Store) snapshot(ctx context.Context, document, layer string) ([]spanstore.Annotation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seq, err := s.repository().QueryMany(ctx, func(a spanstore.Annotation) bool {
		return a.Document == document && a.Layer == layer
	})
	if err != nil {
		return nil, err
	}
	var out []spanstore.Annotation
	for a, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	slices.SortStableFunc(out, func(a, b spanstore.Annotation) int {
		return a.Begin - b.Begin
	})
	return out, nil
}

func (s *Store) DeleteAll(ctx context.Context) error {
	return s.repository().DeleteAll(ctx)
}

func (s *Store) mkID(ctx context.Context) (spanstore.AnnotationID, error) {
	if s.MakeID != nil {
		return s.MakeID(ctx)
	}
	return spanstore.MakeID(ctx)
}
