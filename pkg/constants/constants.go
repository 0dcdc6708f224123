// Package constants provides shared constants used throughout the recordlink codebase.
// This includes matching weights, thresholds, limits, file permissions, and other
// values that must stay consistent across packages.
package constants

import "time"

// Signal weight constants define how much one occurrence of a signal adds
// to a candidate's weighted tally.
const (
	// EmailDomainWeight is added per matching email domain occurrence
	EmailDomainWeight = 1.0

	// WebsiteWeight is added per matching website occurrence
	WebsiteWeight = 0.5

	// CompanyIDWeight is added per matching company foreign key occurrence
	CompanyIDWeight = 2.0
)

// Confidence constants
const (
	// ConfidenceSaturation is the weighted tally at which confidence reaches 1.0
	ConfidenceSaturation = 10.0

	// EnrichmentThreshold is the minimum confidence required before any field is merged
	EnrichmentThreshold = 0.7

	// MinCorroboratingVariants is how many source variants must agree on a value
	// before it may fill an empty field
	MinCorroboratingVariants = 2
)

// Global catalog constants
const (
	// InitialGlobalVersion is the version stamped on a first promotion
	InitialGlobalVersion = 1

	// MaxQualityScore is the upper bound of GlobalMetadata.QualityScore
	MaxQualityScore = 100

	// LocalReferencePrefix prefixes generated Reference.LocalID values
	LocalReferencePrefix = "local-ref"

	// BatchIDPrefix prefixes bulk promotion batch identifiers
	BatchIDPrefix = "batch"
)

// Store collection names
const (
	CollectionRecords        = "records"
	CollectionReferences     = "references"
	CollectionAuditLog       = "audit_log"
	CollectionEnrichmentLogs = "enrichment_logs"
)

// Batch processing constants
const (
	// DefaultBatchWorkers is the default size of the analysis worker pool
	DefaultBatchWorkers = 4

	// MaxBatchWorkers caps the configurable worker pool size
	MaxBatchWorkers = 64

	// DefaultBatchBurst is the token bucket burst size when a rate limit is set
	DefaultBatchBurst = 1
)

// Timeout constants
const (
	// DefaultTimeout is the standard timeout for a single store operation
	DefaultTimeout = 10 * time.Second

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute

	// PostgresHealthCheckPeriod is how often idle pool connections are checked
	PostgresHealthCheckPeriod = 30 * time.Second

	// PostgresMaxConns is the default pool size for the postgres store
	PostgresMaxConns = 10
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Path constants
const (
	// DefaultConfigName is the config file name searched in $HOME and the working directory
	DefaultConfigName = ".recordlink"

	// DefaultBadgerPath is the default data directory for the badger store
	DefaultBadgerPath = "~/.recordlink/data"

	// EnvPrefix prefixes environment variables read by the CLI
	EnvPrefix = "RECORDLINK"
)

// API server constants
const (
	// DefaultServerHost is the default bind address
	DefaultServerHost = "localhost"

	// DefaultServerPort is the default listen port
	DefaultServerPort = 8080

	// DefaultServerPrefix is the path prefix of API routes
	DefaultServerPrefix = "/api/v1"

	// DefaultServerRateLimit is the default per-IP request rate per second
	DefaultServerRateLimit = 10

	// DefaultServerRateBurst is the default per-IP burst
	DefaultServerRateBurst = 20

	// ServerShutdownTimeout bounds connection draining on shutdown
	ServerShutdownTimeout = 30 * time.Second
)
