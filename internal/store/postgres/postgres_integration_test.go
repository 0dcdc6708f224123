//go:build integration

package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/agentstation/recordlink/internal/store/postgres"
	"github.com/agentstation/recordlink/pkg/store"
	"github.com/agentstation/recordlink/pkg/store/storetest"
)

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("recordlink"),
		tcpostgres.WithUsername("recordlink"),
		tcpostgres.WithPassword("recordlink"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := postgres.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.Migrate(ctx))

	storetest.Run(t, func(t *testing.T) store.Store {
		_, err := s.Pool.Exec(ctx, `TRUNCATE documents`)
		require.NoError(t, err)
		return s
	})
}
