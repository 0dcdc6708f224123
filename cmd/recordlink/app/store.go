package app

import (
	"context"
	"os"

	"github.com/agentstation/recordlink/internal/store/badger"
	"github.com/agentstation/recordlink/internal/store/postgres"
	"github.com/agentstation/recordlink/pkg/constants"
	"github.com/agentstation/recordlink/pkg/errors"
	"github.com/agentstation/recordlink/pkg/logging"
	"github.com/agentstation/recordlink/pkg/store"
	"github.com/agentstation/recordlink/pkg/store/memory"
)

// openStore opens the configured document store. The returned closer is
// never nil.
func openStore(ctx context.Context, config *Config) (store.Store, func() error, error) {
	noop := func() error { return nil }
	logger := logging.Ctx(ctx)

	switch config.StoreDriver {
	case DriverMemory:
		logger.Debug().Msg("Using in-memory store")
		return memory.New(), noop, nil

	case DriverBadger:
		if err := os.MkdirAll(config.StorePath, constants.DirPermissions); err != nil {
			return nil, noop, errors.NewConfigError("store", "creating "+config.StorePath, err)
		}
		s, err := badger.Open(badger.Options{Dir: config.StorePath})
		if err != nil {
			return nil, noop, err
		}
		logger.Debug().Str("path", config.StorePath).Msg("Opened badger store")
		return s, s.Close, nil

	case DriverPostgres:
		s, err := postgres.Connect(ctx, config.StoreDSN)
		if err != nil {
			return nil, noop, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, noop, err
		}
		logger.Debug().Msg("Connected to postgres store")
		return s, func() error { s.Close(); return nil }, nil
	}
	return nil, noop, errors.NewConfigError("store", "unknown driver "+config.StoreDriver, nil)
}
