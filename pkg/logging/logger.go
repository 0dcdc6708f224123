// Package logging provides structured logging for recordlink using zerolog.
// Console output is used when attached to a terminal and JSON otherwise.
//
// Loggers travel on the context, picking up tenant, actor and record fields
// as a request moves through matching and enrichment:
//
//	ctx = logging.WithTenant(ctx, "acme")
//	logging.Ctx(ctx).Debug().Int("candidates", 3).Msg("Scan complete")
package logging

import (
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/agentstation/recordlink/pkg/constants"
)

var defaultLogger atomic.Pointer[zerolog.Logger]

func init() {
	cfg := DefaultConfig()
	if lvl := os.Getenv(constants.EnvPrefix + "_LOG_LEVEL"); lvl != "" {
		cfg.Level = lvl
	}
	logger := build(cfg, false)
	defaultLogger.Store(&logger)
}

// Default returns the process wide logger used when a context carries none.
func Default() *zerolog.Logger {
	return defaultLogger.Load()
}

// SetDefault replaces the process wide logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger.Store(&logger)
}
