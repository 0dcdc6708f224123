// Package app provides the application context and dependency management
// for the recordlink CLI. Configuration, logging and the lazily opened
// store and Linker live here so commands only see appcontext.Interface.
package app

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/agentstation/recordlink"
	"github.com/agentstation/recordlink/internal/appcontext"
	"github.com/agentstation/recordlink/internal/server"
	"github.com/agentstation/recordlink/pkg/enrich"
	"github.com/agentstation/recordlink/pkg/errors"
	"github.com/agentstation/recordlink/pkg/logging"
	"github.com/agentstation/recordlink/pkg/metrics"
	"github.com/agentstation/recordlink/pkg/records"
	"github.com/agentstation/recordlink/pkg/store"
)

// App represents the recordlink application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	registry *prometheus.Registry
	metrics  *metrics.Metrics

	// Store and linker (lazy-initialized, singleton)
	mu         sync.RWMutex
	store      store.Store
	closeStore func() error
	linker     recordlink.Linker
}

var _ appcontext.Interface = (*App)(nil)

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version:  version,
		commit:   commit,
		date:     date,
		builtBy:  builtBy,
		registry: prometheus.NewRegistry(),
	}
	app.metrics = metrics.New(app.registry)

	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Version returns the version information.
func (a *App) Version() string { return a.version }

// Commit returns the git commit hash.
func (a *App) Commit() string { return a.commit }

// Date returns the build date.
func (a *App) Date() string { return a.date }

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string { return a.builtBy }

// Config returns the application configuration.
func (a *App) Config() *Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string { return a.config.Format }

// Actor returns the acting identity from --tenant and --actor.
func (a *App) Actor() records.ActorContext {
	return records.ActorContext{
		ActorID:  a.config.ActorID,
		TenantID: a.config.TenantID,
	}
}

// MetricsGatherer returns the registry that linker metrics are registered on.
func (a *App) MetricsGatherer() prometheus.Gatherer { return a.registry }

// ServerConfig returns the API server settings from the server.* keys.
func (a *App) ServerConfig() server.Config {
	cfg := server.DefaultConfig()
	cfg.Host = a.config.ServerHost
	cfg.Port = a.config.ServerPort
	cfg.PathPrefix = a.config.ServerPathPrefix
	cfg.AuthEnabled = a.config.ServerAuth
	cfg.APIKey = a.config.ServerAPIKey
	cfg.CORSEnabled = len(a.config.ServerCORSOrigins) > 0
	cfg.CORSOrigins = a.config.ServerCORSOrigins
	cfg.RateLimit = a.config.ServerRateLimit
	cfg.RateBurst = a.config.ServerRateBurst
	cfg.AutoGlobalActors = a.config.ServerAutoGlobalActors
	return cfg
}

// Linker returns the Linker, opening the store on first use.
func (a *App) Linker(ctx context.Context) (recordlink.Linker, error) {
	a.mu.RLock()
	if a.linker != nil {
		l := a.linker
		a.mu.RUnlock()
		return l, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.linker != nil {
		return a.linker, nil
	}

	ctx = logging.WithLogger(ctx, a.logger)
	if a.store == nil {
		s, closer, err := openStore(ctx, a.config)
		if err != nil {
			return nil, err
		}
		a.store, a.closeStore = s, closer
	}

	opts, err := a.linkerOptions()
	if err != nil {
		return nil, err
	}
	l, err := recordlink.New(a.store, opts...)
	if err != nil {
		return nil, err
	}
	l.OnRecordSaved(func(rec records.Record) {
		a.logger.Debug().Str("record_id", rec.ID).Bool("global", rec.IsGlobal).Msg("Record saved")
	})
	l.OnRecordEnriched(func(rec records.Record, res enrich.Result) {
		a.logger.Info().
			Str("record_id", rec.ID).
			Strs("fields_added", res.FieldsAdded).
			Int("conflicts", len(res.Conflicts)).
			Msg("Record enriched")
	})
	a.linker = l
	return l, nil
}

func (a *App) linkerOptions() ([]recordlink.Option, error) {
	opts := []recordlink.Option{
		recordlink.WithLogger(a.logger),
		recordlink.WithMetrics(a.metrics),
		recordlink.WithWorkers(a.config.BatchWorkers),
	}
	if len(a.config.IgnoredDomains) > 0 {
		opts = append(opts, recordlink.WithIgnoredDomains(a.config.IgnoredDomains...))
	}
	if a.config.BatchRate > 0 {
		opts = append(opts, recordlink.WithRateLimit(a.config.BatchRate, a.config.BatchBurst))
	}
	if len(a.config.ConflictPolicy) > 0 {
		policy, err := enrich.ParseFieldPolicy(a.config.ConflictPolicy)
		if err != nil {
			return nil, errors.NewConfigError("conflicts", "invalid policy", err)
		}
		opts = append(opts, recordlink.WithConflictResolver(policy))
	}
	return opts, nil
}

// Shutdown writes the metrics textfile, if configured, and closes the store.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var firstErr error
	if a.config.MetricsFile != "" && a.linker != nil {
		if err := prometheus.WriteToTextfile(a.config.MetricsFile, a.registry); err != nil {
			a.logger.Error().Err(err).Str("path", a.config.MetricsFile).Msg("Failed to write metrics")
			firstErr = err
		}
	}
	if a.closeStore != nil {
		if err := a.closeStore(); err != nil && firstErr == nil {
			firstErr = err
		}
		a.closeStore = nil
	}
	a.store = nil
	a.linker = nil
	return firstErr
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithStore sets the document store instead of opening the configured one.
func WithStore(s store.Store) Option {
	return func(a *App) error {
		a.store = s
		return nil
	}
}
