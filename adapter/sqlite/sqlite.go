// Package sqlite is a spanstore.Store backed by a pure Go SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"

	"github.com/google/uuid"
	"go.llib.dev/frameless/pkg/errorkit"
	"go.llib.dev/frameless/pkg/flsql"
	"go.llib.dev/frameless/pkg/logger"
	"go.llib.dev/frameless/pkg/logging"
	"go.llib.dev/spanjoin/port/spanstore"

	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

const (
	queryCreateTable = `CREATE TABLE IF NOT EXISTS annotations (
	id           TEXT    NOT NULL PRIMARY KEY,
	document     TEXT    NOT NULL,
	layer        TEXT    NOT NULL,
	begin_offset INTEGER NOT NULL,
	end_offset   INTEGER NOT NULL,
	label        TEXT    NOT NULL DEFAULT ''
);`
	queryCreateIndex = `CREATE INDEX IF NOT EXISTS annotations_layer_begin
	ON annotations (document, layer, begin_offset);`

	queryExists      = `SELECT 1 FROM annotations WHERE id = ?`
	queryInsert      = `INSERT INTO annotations (id, document, layer, begin_offset, end_offset, label) VALUES (?, ?, ?, ?, ?, ?)`
	queryFindByID    = `SELECT id, document, layer, begin_offset, end_offset, label FROM annotations WHERE id = ?`
	queryFindByLayer = `SELECT id, document, layer, begin_offset, end_offset, label FROM annotations
	WHERE document = ? AND layer = ? ORDER BY begin_offset`
	queryDeleteAll = `DELETE FROM annotations`
)

// Open connects to the database at dsn and makes sure the schema is present.
// dsn can be a file path or ":memory:".
func Open(ctx context.Context, dsn string) (*Store, error) {
	var inMemory bool
	if dsn == ":memory:" {
		// a plain :memory: database is private to a single connection
		dsn = fmt.Sprintf("file:spanjoin-%s?mode=memory&cache=shared", uuid.NewString())
		inMemory = true
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	s := &Store{DB: db}
	if inMemory {
		// the shared in-memory database lives as long as one connection is open
		s.keepalive, err = db.Conn(ctx)
		if err != nil {
			return nil, errorkit.Merge(err, db.Close())
		}
	}
	if err := s.Migrate(ctx); err != nil {
		return nil, errorkit.Merge(err, s.Close())
	}
	return s, nil
}

type Store struct {
	DB *sql.DB
	// MakeID [optional] generates the IDs of new annotations.
	//
	// default: spanstore.MakeID
	MakeID func(context.Context) (spanstore.AnnotationID, error)

	keepalive *sql.Conn
}

func (s *Store) Close() error {
	var errs []error
	if s.keepalive != nil {
		errs = append(errs, s.keepalive.Close())
	}
	errs = append(errs, s.DB.Close())
	return errorkit.Merge(errs...)
}

// Migrate creates the annotations table and its layer index when they are missing.
func (s *Store) Migrate(ctx context.Context) error {
	for _, query := range []string{queryCreateTable, queryCreateIndex} {
		if _, err := s.DB.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("sqlite: migration failed: %w", err)
		}
	}
	return nil
}

func (s *Store) Create(ctx context.Context, ptr *spanstore.Annotation) (returnErr error) {
	if err := spanstore.Validate(*ptr); err != nil {
		return err
	}
	if ptr.ID == "" {
		id, err := s.mkID(ctx)
		if err != nil {
			return err
		}
		ptr.ID = id
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if returnErr != nil {
			returnErr = errorkit.Merge(returnErr, ignoreTxDone(tx.Rollback()))
		}
	}()

	var one int
	switch err := tx.QueryRowContext(ctx, queryExists, string(ptr.ID)).Scan(&one); {
	case err == nil:
		return fmt.Errorf("%w: %s", spanstore.ErrAlreadyExists, ptr.ID)
	case errors.Is(err, sql.ErrNoRows):
	default:
		return err
	}

	if _, err := tx.ExecContext(ctx, queryInsert,
		string(ptr.ID), ptr.Document, ptr.Layer, ptr.Begin, ptr.End, ptr.Label); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) FindByID(ctx context.Context, id spanstore.AnnotationID) (spanstore.Annotation, bool, error) {
	a, err := scanAnnotation(s.DB.QueryRowContext(ctx, queryFindByID, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return spanstore.Annotation{}, false, nil
	}
	if err != nil {
		return spanstore.Annotation{}, false, err
	}
	return a, true, nil
}

func (s *Store) FindByLayer(ctx context.Context, document, layer string) iter.Seq2[spanstore.Annotation, error] {
	return func(yield func(spanstore.Annotation, error) bool) {
		rows := flsql.QueryMany[spanstore.Annotation](flsql.QueryableSQL(s.DB), ctx, scanAnnotation, queryFindByLayer, document, layer)
		for a, err := range rows {
			if err != nil {
				logger.Debug(ctx, "sqlite: layer query failed",
					logging.Field("document", document),
					logging.Field("layer", layer),
					logging.ErrField(err))
			}
			if !yield(a, err) || err != nil {
				return
			}
		}
	}
}

func (s *Store) DeleteAll(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, queryDeleteAll)
	return err
}

func (s *Store) mkID(ctx context.Context) (spanstore.AnnotationID, error) {
	if s.MakeID != nil {
		return s.MakeID(ctx)
	}
	return spanstore.MakeID(ctx)
}

func ignoreTxDone(err error) error {
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

func scanAnnotation(s flsql.Scanner) (spanstore.Annotation, error) {
	var (
		a  spanstore.Annotation
		id string
	)
	err := s.Scan(&id, &a.Document, &a.Layer, &a.Begin, &a.End, &a.Label)
	a.ID = spanstore.AnnotationID(id)
	return a, err
}
