package recordlink

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/agentstation/recordlink/pkg/constants"
	"github.com/agentstation/recordlink/pkg/enrich"
	"github.com/agentstation/recordlink/pkg/metrics"
)

// Option is a function that configures a Linker
type Option func(*config) error

// config holds the settings applied by options
type config struct {
	logger         *zerolog.Logger
	metrics        *metrics.Metrics
	resolver       enrich.ConflictResolver
	ignoredDomains []string
	workers        int
	limiter        *rate.Limiter
	now            func() time.Time
}

func defaultConfig() *config {
	return &config{
		workers: constants.DefaultBatchWorkers,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithLogger sets the logger used when the context carries none
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}

// WithMetrics enables Prometheus instrumentation
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) error {
		c.metrics = m
		return nil
	}
}

// WithConflictResolver sets the policy for enrichment conflicts.
// Without it populated fields are always kept.
func WithConflictResolver(r enrich.ConflictResolver) Option {
	return func(c *config) error {
		c.resolver = r
		return nil
	}
}

// WithIgnoredDomains excludes email domains, given as globs or regular
// expressions, from signal extraction. Use it for shared mail providers.
func WithIgnoredDomains(patterns ...string) Option {
	return func(c *config) error {
		c.ignoredDomains = append(c.ignoredDomains, patterns...)
		return nil
	}
}

// WithWorkers sets how many batch rows are analyzed concurrently
func WithWorkers(n int) Option {
	return func(c *config) error {
		if n < 1 || n > constants.MaxBatchWorkers {
			return fmt.Errorf("workers must be between 1 and %d, got %d", constants.MaxBatchWorkers, n)
		}
		c.workers = n
		return nil
	}
}

// WithRateLimit caps batch rows started per second. A zero rate disables
// the limit.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *config) error {
		if perSecond < 0 {
			return fmt.Errorf("rate must not be negative, got %v", perSecond)
		}
		if perSecond == 0 {
			c.limiter = nil
			return nil
		}
		if burst < 1 {
			burst = constants.DefaultBatchBurst
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		return nil
	}
}

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) Option {
	return func(c *config) error {
		if now == nil {
			return fmt.Errorf("clock must not be nil")
		}
		c.now = now
		return nil
	}
}
