package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/recordlink/pkg/store"
)

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		filters  []store.Filter
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "collection only",
			wantSQL:  `SELECT body FROM documents WHERE collection = $1 ORDER BY id`,
			wantArgs: []any{"records"},
		},
		{
			name:    "eq and ne",
			filters: []store.Filter{store.Eq("tenantId", "t1"), store.Ne("isGlobal", true)},
			wantSQL: `SELECT body FROM documents WHERE collection = $1` +
				` AND body @> $2::jsonb AND NOT (body @> $3::jsonb) ORDER BY id`,
			wantArgs: []any{"records", `{"tenantId":"t1"}`, `{"isGlobal":true}`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := buildQuery("records", tt.filters)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(entries), 2)
}
