package appcontext

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/agentstation/recordlink"
	"github.com/agentstation/recordlink/internal/server"
	"github.com/agentstation/recordlink/pkg/records"
)

// Mock provides a mock implementation of Interface for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
type Mock struct {
	LinkerFunc       func(context.Context) (recordlink.Linker, error)
	ActorFunc        func() records.ActorContext
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
	ServerConfigFunc func() server.Config
	Registry         *prometheus.Registry
}

// Linker returns a linker using the mock function or nil.
func (m *Mock) Linker(ctx context.Context) (recordlink.Linker, error) {
	if m.LinkerFunc != nil {
		return m.LinkerFunc(ctx)
	}
	return nil, nil
}

// Actor returns the actor using the mock function or a fixed test actor.
func (m *Mock) Actor() records.ActorContext {
	if m.ActorFunc != nil {
		return m.ActorFunc()
	}
	return records.ActorContext{ActorID: "test-actor", TenantID: "test-tenant"}
}

// MetricsGatherer returns Registry, or an empty registry when unset.
func (m *Mock) MetricsGatherer() prometheus.Gatherer {
	if m.Registry != nil {
		return m.Registry
	}
	return prometheus.NewRegistry()
}

// ServerConfig returns the config using the mock function or the defaults.
func (m *Mock) ServerConfig() server.Config {
	if m.ServerConfigFunc != nil {
		return m.ServerConfigFunc()
	}
	return server.DefaultConfig()
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the format using the mock function or "json".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "json"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns "unknown".
func (m *Mock) Commit() string { return "unknown" }

// Date returns "unknown".
func (m *Mock) Date() string { return "unknown" }

// BuiltBy returns "test".
func (m *Mock) BuiltBy() string { return "test" }

var _ Interface = (*Mock)(nil)
