// Package memory provides an in-process implementation of store.Store.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/agentstation/recordlink/pkg/errors"
	"github.com/agentstation/recordlink/pkg/store"
)

// Store keeps documents in maps guarded by a RWMutex.
// Documents are copied on the way in and on the way out.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]store.Document
}

var _ store.Store = (*Store)(nil)

// New creates an empty memory store.
func New() *Store {
	return &Store{collections: make(map[string]map[string]store.Document)}
}

// Get implements store.Store.
func (s *Store) Get(_ context.Context, collection, id string) (store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, errors.NewNotFoundError(collection, id)
	}
	return store.Clone(doc), nil
}

// Query implements store.Store.
func (s *Store) Query(_ context.Context, collection string, filters ...store.Filter) ([]store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.Document
	for _, doc := range s.collections[collection] {
		if store.Matches(doc, filters...) {
			out = append(out, store.Clone(doc))
		}
	}
	store.SortByID(out)
	return out, nil
}

// Update implements store.Store.
func (s *Store) Update(_ context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return errors.NewNotFoundError(collection, id)
	}
	for k, v := range store.NormalizeFields(fields) {
		if k == "id" {
			continue
		}
		doc[k] = v
	}
	return nil
}

// Add implements store.Store.
func (s *Store) Add(_ context.Context, collection string, doc store.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc = store.Document(store.NormalizeFields(doc))
	id := doc.ID()
	if id == "" {
		id = uuid.NewString()
		doc["id"] = id
	}

	coll, ok := s.collections[collection]
	if !ok {
		coll = make(map[string]store.Document)
		s.collections[collection] = coll
	}
	if _, exists := coll[id]; exists {
		return "", errors.NewAlreadyExistsError(collection, id, "")
	}
	coll[id] = doc
	return id, nil
}

// Delete implements store.Store.
func (s *Store) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection][id]; !ok {
		return errors.NewNotFoundError(collection, id)
	}
	delete(s.collections[collection], id)
	return nil
}

// Len returns the number of documents in a collection.
func (s *Store) Len(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}
