// Package store defines the document store contract consumed by recordlink
// and typed repositories for the collections it reads and writes.
//
// Implementations guarantee atomic single-document updates only. Nothing in
// recordlink relies on transactions spanning more than one document.
package store

//go:generate mockgen -destination=mock/store_mock.go -package=mock github.com/agentstation/recordlink/pkg/store Store

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

// Document is a JSON-shaped store document. Values are limited to what
// encoding/json produces: string, float64, bool, nil, []any and map[string]any.
type Document map[string]any

// ID returns the document's "id" field.
func (d Document) ID() string {
	id, _ := d["id"].(string)
	return id
}

// Op is a filter comparison operator.
type Op string

// Supported operators.
const (
	OpEq Op = "=="
	OpNe Op = "!="
)

// Filter restricts a Query to documents whose top-level Field compares to Value.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Eq returns an equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEq, Value: value}
}

// Ne returns an inequality filter.
func Ne(field string, value any) Filter {
	return Filter{Field: field, Op: OpNe, Value: value}
}

// Store is a minimal document store.
type Store interface {
	// Get returns the document or a NotFoundError.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Query returns all documents matching every filter, ordered by id.
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)

	// Update atomically merges top-level fields into an existing document.
	Update(ctx context.Context, collection, id string, fields map[string]any) error

	// Add inserts a document. An empty "id" is assigned by the store.
	Add(ctx context.Context, collection string, doc Document) (string, error)

	// Delete removes a document or returns a NotFoundError.
	Delete(ctx context.Context, collection, id string) error
}

// Encode converts a tagged struct into a Document.
func Encode(v any) (Document, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	return doc, nil
}

// Decode fills out from a Document.
func Decode(doc Document, out any) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("decoding document: %w", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decoding document: %w", err)
	}
	return nil
}

// Normalize converts a value to its JSON document form so it can be
// compared with stored values.
func Normalize(v any) any {
	switch v.(type) {
	case nil, string, bool, float64:
		return v
	}
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}

// NormalizeFields converts update fields to document form.
func NormalizeFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = Normalize(v)
	}
	return out
}

// Matches reports whether doc satisfies every filter.
func Matches(doc Document, filters ...Filter) bool {
	for _, f := range filters {
		equal := reflect.DeepEqual(doc[f.Field], Normalize(f.Value))
		switch f.Op {
		case OpNe:
			if equal {
				return false
			}
		default:
			if !equal {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy of the document.
func Clone(doc Document) Document {
	if doc == nil {
		return nil
	}
	return Document(cloneValue(map[string]any(doc)).(map[string]any))
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = cloneValue(val)
		}
		return m
	case Document:
		return cloneValue(map[string]any(t))
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = cloneValue(val)
		}
		return s
	default:
		return v
	}
}

// SortByID orders documents by id.
func SortByID(docs []Document) {
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID() < docs[j].ID() })
}
