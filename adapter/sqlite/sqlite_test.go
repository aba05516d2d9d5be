package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"go.llib.dev/frameless/pkg/logger"
	"go.llib.dev/spanjoin/adapter/sqlite"
	"go.llib.dev/spanjoin/port/spanstore"
	"go.llib.dev/spanjoin/port/spanstore/spanstorecontract"

	"go.llib.dev/testcase/assert"
)

var _ spanstore.Store = &sqlite.Store{}

func newStore(tb testing.TB, dsn string) *sqlite.Store {
	store, err := sqlite.Open(context.Background(), dsn)
	assert.NoError(tb, err)
	tb.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore(t *testing.T) {
	logger.Testing(t)
	store := newStore(t, filepath.Join(t.TempDir(), "spanjoin.db"))
	spanstorecontract.Store(store).Test(t)
}

func TestStore_inMemory(t *testing.T) {
	store := newStore(t, ":memory:")
	spanstorecontract.Store(store).Test(t)
}

func TestStore_reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "spanjoin.db")

	first, err := sqlite.Open(ctx, path)
	assert.NoError(t, err)
	a := spanstore.Annotation{Document: "doc", Layer: "gold", Begin: 3, End: 7, Label: "PER"}
	assert.NoError(t, first.Create(ctx, &a))
	assert.NoError(t, first.Close())

	second := newStore(t, path)
	got, found, err := second.FindByID(ctx, a.ID)
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, a, got)
}

func TestStore_FindByLayer_releasesRows(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, filepath.Join(t.TempDir(), "spanjoin.db"))
	store.DB.SetMaxOpenConns(1)

	for _, begin := range []int{5, 1, 3} {
		a := spanstore.Annotation{Document: "doc", Layer: "gold", Begin: begin, End: begin + 2}
		assert.NoError(t, store.Create(ctx, &a))
	}

	var got []int
	for a, err := range store.FindByLayer(ctx, "doc", "gold") {
		assert.NoError(t, err)
		got = append(got, a.Begin)
		break
	}
	assert.Equal(t, []int{1}, got)

	// with a single connection, a leaked rows cursor would block every later query
	got = nil
	for a, err := range store.FindByLayer(ctx, "doc", "gold") {
		assert.NoError(t, err)
		got = append(got, a.Begin)
	}
	assert.Equal(t, []int{1, 3, 5}, got)
}
