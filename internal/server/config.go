package server

import (
	"time"

	"github.com/agentstation/recordlink/pkg/constants"
)

// Config holds server configuration.
type Config struct {
	// Server settings
	Host string
	Port int

	// API settings
	PathPrefix   string
	MaxBodyBytes int64

	// CORS settings
	CORSEnabled bool
	CORSOrigins []string

	// Authentication settings
	AuthEnabled bool
	AuthHeader  string
	APIKey      string

	// AutoGlobalActors are actor ids whose writes are promoted to the
	// global catalog without an explicit forceGlobal.
	AutoGlobalActors []string

	// Rate limiting per client IP (0 disables)
	RateLimit float64 // requests per second
	RateBurst int

	// HTTP timeouts
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Features
	MetricsEnabled bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:            constants.DefaultServerHost,
		Port:            constants.DefaultServerPort,
		PathPrefix:      constants.DefaultServerPrefix,
		MaxBodyBytes:    4 << 20,
		AuthHeader:      "X-API-Key",
		RateLimit:       constants.DefaultServerRateLimit,
		RateBurst:       constants.DefaultServerRateBurst,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    60 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: constants.ServerShutdownTimeout,
		MetricsEnabled:  true,
	}
}
