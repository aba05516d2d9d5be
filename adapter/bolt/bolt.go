// Package bolt is a spanstore.Store that keeps the annotations in a local bolt database file.
//
// Every document layer has its own bucket,
// where the keys are the big endian begin offset followed by a sequence number.
// This makes the natural key order of a layer bucket the ascending Begin order.
package bolt

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"iter"
	"time"

	"github.com/boltdb/bolt"
	"go.llib.dev/spanjoin/port/spanstore"
)

var (
	bucketLayers = []byte("layers")
	bucketIDs    = []byte("ids")
)

func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

type Store struct {
	DB *bolt.DB
	// MakeID [optional] generates the IDs of new annotations.
	//
	// default: spanstore.MakeID
	MakeID func(context.Context) (spanstore.AnnotationID, error)
}

// Close the database and release the file lock
func (s *Store) Close() error {
	return s.DB.Close()
}

func (s *Store) Create(ctx context.Context, ptr *spanstore.Annotation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
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
	value, err := encode(*ptr)
	if err != nil {
		return err
	}
	return s.DB.Update(func(tx *bolt.Tx) error {
		ids, err := tx.CreateBucketIfNotExists(bucketIDs)
		if err != nil {
			return err
		}
		if ids.Get([]byte(ptr.ID)) != nil {
			return fmt.Errorf("%w: %s", spanstore.ErrAlreadyExists, ptr.ID)
		}
		layers, err := tx.CreateBucketIfNotExists(bucketLayers)
		if err != nil {
			return err
		}
		name := layerName(ptr.Document, ptr.Layer)
		bucket, err := layers.CreateBucketIfNotExists(name)
		if err != nil {
			return err
		}
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		key := entryKey(ptr.Begin, seq)
		if err := bucket.Put(key, value); err != nil {
			return err
		}
		return ids.Put([]byte(ptr.ID), locator(key, name))
	})
}

func (s *Store) FindByID(ctx context.Context, id spanstore.AnnotationID) (spanstore.Annotation, bool, error) {
	if err := ctx.Err(); err != nil {
		return spanstore.Annotation{}, false, err
	}
	var (
		a     spanstore.Annotation
		found bool
	)
	err := s.DB.View(func(tx *bolt.Tx) error {
		ids := tx.Bucket(bucketIDs)
		if ids == nil {
			return nil
		}
		loc := ids.Get([]byte(id))
		if loc == nil {
			return nil
		}
		key, name := parseLocator(loc)
		bucket := layerBucket(tx, name)
		if bucket == nil {
			return fmt.Errorf("bolt: layer bucket is missing for %s", id)
		}
		value := bucket.Get(key)
		if value == nil {
			return fmt.Errorf("bolt: annotation entry is missing for %s", id)
		}
		found = true
		return decode(value, &a)
	})
	return a, found, err
}

// FindByLayer iterates within a single read transaction.
// Writing to the same Store from inside the loop body may block.
func (s *Store) FindByLayer(ctx context.Context, document, layer string) iter.Seq2[spanstore.Annotation, error] {
	return func(yield func(spanstore.Annotation, error) bool) {
		var stopped bool
		err := s.DB.View(func(tx *bolt.Tx) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			bucket := layerBucket(tx, layerName(document, layer))
			if bucket == nil {
				return nil
			}
			c := bucket.Cursor()
			for k, v := c.First(); k != nil; k, v = c.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}
				var a spanstore.Annotation
				if err := decode(v, &a); err != nil {
					return err
				}
				if !yield(a, nil) {
					stopped = true
					return nil
				}
			}
			return nil
		})
		if err != nil && !stopped {
			yield(spanstore.Annotation{}, err)
		}
	}
}

func (s *Store) DeleteAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.DB.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketLayers, bucketIDs} {
			if tx.Bucket(name) == nil {
				continue
			}
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) mkID(ctx context.Context) (spanstore.AnnotationID, error) {
	if s.MakeID != nil {
		return s.MakeID(ctx)
	}
	return spanstore.MakeID(ctx)
}

func layerBucket(tx *bolt.Tx, name []byte) *bolt.Bucket {
	layers := tx.Bucket(bucketLayers)
	if layers == nil {
		return nil
	}
	return layers.Bucket(name)
}

// layerName is the document and the layer joined with a NUL byte,
// which can't be confused with a document name containing a slash.
func layerName(document, layer string) []byte {
	name := make([]byte, 0, len(document)+len(layer)+1)
	name = append(name, document...)
	name = append(name, 0)
	return append(name, layer...)
}

const entryKeyLen = 16

func entryKey(begin int, seq uint64) []byte {
	key := make([]byte, entryKeyLen)
	binary.BigEndian.PutUint64(key[:8], uint64(begin))
	binary.BigEndian.PutUint64(key[8:], seq)
	return key
}

func locator(key, name []byte) []byte {
	loc := make([]byte, 0, len(key)+len(name))
	loc = append(loc, key...)
	return append(loc, name...)
}

func parseLocator(loc []byte) (key, name []byte) {
	return loc[:entryKeyLen], loc[entryKeyLen:]
}

func encode(a spanstore.Annotation) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := gob.NewEncoder(buf).Encode(a); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte, ptr *spanstore.Annotation) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(ptr)
}
