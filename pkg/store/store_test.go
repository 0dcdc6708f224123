package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/recordlink/pkg/errors"
	"github.com/agentstation/recordlink/pkg/records"
	"github.com/agentstation/recordlink/pkg/store"
	"github.com/agentstation/recordlink/pkg/store/memory"
)

func TestEncodeDecodeRecord(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rec := records.Record{
		ID:        "c-1",
		TenantID:  "t1",
		Kind:      records.KindContact,
		Emails:    []string{"anna@spiegel.de"},
		CreatedAt: created,
	}

	doc, err := store.Encode(rec)
	require.NoError(t, err)
	assert.Equal(t, "c-1", doc.ID())
	assert.Equal(t, false, doc["isGlobal"])
	assert.Equal(t, "contact", doc["kind"])

	var back records.Record
	require.NoError(t, store.Decode(doc, &back))
	assert.Equal(t, rec.Emails, back.Emails)
	assert.True(t, created.Equal(back.CreatedAt))
}

func TestMatches(t *testing.T) {
	doc := store.Document{"tenantId": "t1", "isGlobal": false, "version": float64(2)}

	tests := []struct {
		name    string
		filters []store.Filter
		want    bool
	}{
		{"no filters", nil, true},
		{"eq string", []store.Filter{store.Eq("tenantId", "t1")}, true},
		{"eq bool", []store.Filter{store.Eq("isGlobal", false)}, true},
		{"eq int normalizes", []store.Filter{store.Eq("version", 2)}, true},
		{"ne", []store.Filter{store.Ne("tenantId", "t1")}, false},
		{"missing field", []store.Filter{store.Eq("kind", "contact")}, false},
		{"all must hold", []store.Filter{store.Eq("tenantId", "t1"), store.Eq("isGlobal", true)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, store.Matches(doc, tt.filters...))
		})
	}
}

func TestClone(t *testing.T) {
	orig := store.Document{"tags": []any{"a"}, "meta": map[string]any{"v": float64(1)}}
	c := store.Clone(orig)
	c["tags"].([]any)[0] = "b"
	c["meta"].(map[string]any)["v"] = float64(2)

	assert.Equal(t, "a", orig["tags"].([]any)[0])
	assert.Equal(t, float64(1), orig["meta"].(map[string]any)["v"])
	assert.Nil(t, store.Clone(nil))
}

func TestRecordsRepository(t *testing.T) {
	ctx := context.Background()
	repo := store.NewRecords(memory.New())

	for _, rec := range []records.Record{
		{ID: "p1", TenantID: "t1", Kind: records.KindContact},
		{ID: "g1", TenantID: "t1", Kind: records.KindContact, IsGlobal: true},
		{ID: "p2", TenantID: "t2", Kind: records.KindCompany},
	} {
		_, err := repo.Add(ctx, rec)
		require.NoError(t, err)
	}

	own, err := repo.ListByTenant(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, own, 2)

	private, err := repo.ListPrivate(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, private, 1)
	assert.Equal(t, "p1", private[0].ID)

	global, err := repo.ListGlobal(ctx)
	require.NoError(t, err)
	require.Len(t, global, 1)
	assert.Equal(t, "g1", global[0].ID)

	require.NoError(t, repo.Update(ctx, "p1", map[string]any{"website": "spiegel.de"}))
	got, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "spiegel.de", got.Website)

	_, err = repo.Get(ctx, "missing")
	assert.True(t, errors.IsNotFound(err))
	assert.False(t, errors.IsStoreIO(err))
}

func TestReferencesRepository(t *testing.T) {
	ctx := context.Background()
	repo := store.NewReferences(memory.New())

	_, err := repo.Add(ctx, records.Reference{ID: "r1", LocalID: "l1", GlobalID: "g1", TenantID: "t1", IsActive: true})
	require.NoError(t, err)
	_, err = repo.Add(ctx, records.Reference{ID: "r2", LocalID: "l2", GlobalID: "g1", TenantID: "t1", IsActive: false})
	require.NoError(t, err)

	active, err := repo.FindActive(ctx, "t1", "g1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "r1", active[0].ID)

	all, err := repo.ListByTenant(ctx, "t1", false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	ref, err := repo.FindByLocalID(ctx, "t1", "l2")
	require.NoError(t, err)
	assert.Equal(t, "r2", ref.ID)

	_, err = repo.FindByLocalID(ctx, "t2", "l2")
	assert.True(t, errors.IsNotFound(err))

	require.NoError(t, repo.Update(ctx, "r1", map[string]any{"isActive": false}))
	active, err = repo.FindActive(ctx, "t1", "g1")
	require.NoError(t, err)
	assert.Empty(t, active)
	assert.True(t, errors.IsNotFound(repo.Update(ctx, "missing", map[string]any{"isActive": false})))
}
