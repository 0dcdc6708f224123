// Package appcontext provides the application context interface shared by
// all CLI commands, so commands can be tested without a real App.
package appcontext

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/agentstation/recordlink"
	"github.com/agentstation/recordlink/internal/server"
	"github.com/agentstation/recordlink/pkg/records"
)

// Interface defines what commands need from the application.
// The App struct from cmd/recordlink/app implements it.
type Interface interface {
	// Linker returns the shared Linker, opening the store lazily.
	Linker(ctx context.Context) (recordlink.Linker, error)

	// Actor returns the tenant and actor the CLI acts as.
	Actor() records.ActorContext

	// MetricsGatherer returns the registry backing linker metrics.
	MetricsGatherer() prometheus.Gatherer

	// ServerConfig returns the configured API server settings.
	ServerConfig() server.Config

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
