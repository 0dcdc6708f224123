// Package storetest provides a conformance suite shared by store.Store implementations.
package storetest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/recordlink/pkg/errors"
	"github.com/agentstation/recordlink/pkg/store"
)

// Factory returns an empty store for one subtest.
type Factory func(t *testing.T) store.Store

// Run exercises the store.Store contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("add assigns id and get returns copy", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		id, err := s.Add(ctx, "records", store.Document{"name": "Anna", "emails": []string{"a@spiegel.de"}})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		doc, err := s.Get(ctx, "records", id)
		require.NoError(t, err)
		assert.Equal(t, id, doc.ID())
		assert.Equal(t, "Anna", doc["name"])
		assert.Equal(t, []any{"a@spiegel.de"}, doc["emails"])

		doc["name"] = "mutated"
		again, err := s.Get(ctx, "records", id)
		require.NoError(t, err)
		assert.Equal(t, "Anna", again["name"])
	})

	t.Run("add keeps caller id and rejects duplicates", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		id, err := s.Add(ctx, "records", store.Document{"id": "c-1"})
		require.NoError(t, err)
		assert.Equal(t, "c-1", id)

		_, err = s.Add(ctx, "records", store.Document{"id": "c-1"})
		assert.True(t, errors.IsAlreadyExists(err))
	})

	t.Run("get missing is not found", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), "records", "nope")
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("query filters and orders by id", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		for _, d := range []store.Document{
			{"id": "b", "tenantId": "t1", "isGlobal": false},
			{"id": "a", "tenantId": "t1", "isGlobal": true},
			{"id": "c", "tenantId": "t2", "isGlobal": false},
		} {
			_, err := s.Add(ctx, "records", d)
			require.NoError(t, err)
		}

		docs, err := s.Query(ctx, "records", store.Eq("tenantId", "t1"))
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "a", docs[0].ID())
		assert.Equal(t, "b", docs[1].ID())

		docs, err = s.Query(ctx, "records", store.Eq("tenantId", "t1"), store.Eq("isGlobal", false))
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "b", docs[0].ID())

		docs, err = s.Query(ctx, "records", store.Ne("tenantId", "t1"))
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "c", docs[0].ID())

		docs, err = s.Query(ctx, "empty")
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("update merges top level fields", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.Add(ctx, "records", store.Document{"id": "c-1", "name": "Anna", "phones": []string{}})
		require.NoError(t, err)

		require.NoError(t, s.Update(ctx, "records", "c-1", map[string]any{
			"phones":     []string{"+49 40 1234"},
			"enrichedBy": "u-1",
		}))

		doc, err := s.Get(ctx, "records", "c-1")
		require.NoError(t, err)
		assert.Equal(t, "Anna", doc["name"])
		assert.Equal(t, []any{"+49 40 1234"}, doc["phones"])
		assert.Equal(t, "u-1", doc["enrichedBy"])
	})

	t.Run("update missing is not found", func(t *testing.T) {
		s := newStore(t)
		err := s.Update(context.Background(), "records", "nope", map[string]any{"a": 1})
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("delete removes only target", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.Add(ctx, "references", store.Document{"id": "r-1"})
		require.NoError(t, err)
		_, err = s.Add(ctx, "references", store.Document{"id": "r-2"})
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, "references", "r-1"))
		_, err = s.Get(ctx, "references", "r-1")
		assert.True(t, errors.IsNotFound(err))
		_, err = s.Get(ctx, "references", "r-2")
		assert.NoError(t, err)

		assert.True(t, errors.IsNotFound(s.Delete(ctx, "references", "r-1")))
	})

	t.Run("concurrent updates to distinct fields", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.Add(ctx, "records", store.Document{"id": "c-1"})
		require.NoError(t, err)

		fields := []string{"website", "address", "logo", "description"}
		var wg sync.WaitGroup
		for _, f := range fields {
			wg.Add(1)
			go func(field string) {
				defer wg.Done()
				assert.NoError(t, s.Update(ctx, "records", "c-1", map[string]any{field: field + "-value"}))
			}(f)
		}
		wg.Wait()

		doc, err := s.Get(ctx, "records", "c-1")
		require.NoError(t, err)
		for _, f := range fields {
			assert.Equal(t, f+"-value", doc[f])
		}
	})
}
