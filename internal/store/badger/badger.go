// Package badger implements store.Store on an embedded BadgerDB.
//
// Documents are stored as JSON under "<collection>/<id>" keys. Query is a
// prefix scan over one collection; Update is a read-modify-write inside a
// single badger transaction so it is atomic per document.
package badger

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/agentstation/recordlink/pkg/errors"
	"github.com/agentstation/recordlink/pkg/store"
)

// maxConflictRetries bounds retries of optimistic transactions that lost a race.
const maxConflictRetries = 16

// Options configures the badger store.
type Options struct {
	// Dir is the data directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps everything in RAM; data is lost on Close.
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool
}

// Store is a badger-backed document store.
type Store struct {
	db *badger.DB
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) a badger store.
func Open(opts Options) (*Store, error) {
	badgerOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	if opts.SyncWrites {
		badgerOpts = badgerOpts.WithSyncWrites(true)
	}
	badgerOpts = badgerOpts.
		WithLogger(nil).
		WithMemTableSize(16 << 20).
		WithValueLogFileSize(64 << 20).
		WithNumMemtables(2).
		WithBlockCacheSize(32 << 20).
		WithIndexCacheSize(16 << 20)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens a throwaway store for tests.
func OpenInMemory() (*Store, error) {
	return Open(Options{InMemory: true})
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func key(collection, id string) []byte {
	return []byte(collection + "/" + id)
}

func prefix(collection string) []byte {
	return []byte(collection + "/")
}

// Get implements store.Store.
func (s *Store) Get(ctx context.Context, collection, id string) (store.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var doc store.Document
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		doc, err = readDoc(txn, collection, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Query implements store.Store.
func (s *Store) Query(ctx context.Context, collection string, filters ...store.Filter) ([]store.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []store.Document
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		p := prefix(collection)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			var doc store.Document
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &doc)
			}); err != nil {
				return fmt.Errorf("decoding %s: %w", it.Item().Key(), err)
			}
			if store.Matches(doc, filters...) {
				out = append(out, doc)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// keys are "<collection>/<id>" so iteration order is already id order
	return out, nil
}

// Update implements store.Store.
func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	patch := store.NormalizeFields(fields)
	return s.retry(func(txn *badger.Txn) error {
		doc, err := readDoc(txn, collection, id)
		if err != nil {
			return err
		}
		for k, v := range patch {
			if k == "id" {
				continue
			}
			doc[k] = v
		}
		return writeDoc(txn, collection, id, doc)
	})
}

// Add implements store.Store.
func (s *Store) Add(ctx context.Context, collection string, doc store.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	doc = store.Document(store.NormalizeFields(doc))
	id := doc.ID()
	if id == "" {
		id = uuid.NewString()
		doc["id"] = id
	}
	err := s.retry(func(txn *badger.Txn) error {
		_, err := txn.Get(key(collection, id))
		switch {
		case err == nil:
			return errors.NewAlreadyExistsError(collection, id, "")
		case !stderrors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		return writeDoc(txn, collection, id, doc)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.retry(func(txn *badger.Txn) error {
		k := key(collection, id)
		if _, err := txn.Get(k); err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return errors.NewNotFoundError(collection, id)
			}
			return err
		}
		return txn.Delete(k)
	})
}

// retry runs fn in an update transaction, retrying on write conflicts.
func (s *Store) retry(fn func(txn *badger.Txn) error) error {
	var err error
	for range maxConflictRetries {
		err = s.db.Update(fn)
		if !stderrors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func readDoc(txn *badger.Txn, collection, id string) (store.Document, error) {
	item, err := txn.Get(key(collection, id))
	if err != nil {
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return nil, errors.NewNotFoundError(collection, id)
		}
		return nil, err
	}
	var doc store.Document
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &doc)
	}); err != nil {
		return nil, fmt.Errorf("decoding %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

func writeDoc(txn *badger.Txn, collection, id string, doc store.Document) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding %s/%s: %w", collection, id, err)
	}
	return txn.Set(key(collection, id), b)
}
