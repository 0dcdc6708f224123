package app

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/recordlink/pkg/constants"
	"github.com/agentstation/recordlink/pkg/errors"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverBadger   = "badger"
	DriverPostgres = "postgres"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Acting identity
	TenantID string
	ActorID  string

	// Store
	StoreDriver string
	StorePath   string
	StoreDSN    string

	// Matching and enrichment
	BatchWorkers   int
	BatchRate      float64
	BatchBurst     int
	IgnoredDomains []string
	ConflictPolicy map[string]string

	// Metrics
	MetricsFile string

	// API server
	ServerHost             string
	ServerPort             int
	ServerPathPrefix       string
	ServerAuth             bool
	ServerAPIKey           string
	ServerCORSOrigins      []string
	ServerRateLimit        float64
	ServerRateBurst        int
	ServerAutoGlobalActors []string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (RECORDLINK_*)
// 3. .env files
// 4. Config file (~/.recordlink.yaml or ./.recordlink.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	return loadConfig(viper.New(), "")
}

// LoadConfigFile loads configuration using an explicit config file.
func LoadConfigFile(path string) (*Config, error) {
	return loadConfig(viper.New(), path)
}

func loadConfig(v *viper.Viper, configFile string) (*Config, error) {
	// Load .env files first (before env binding)
	loadEnvFiles()

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if configFile == "" {
		configFile = os.Getenv(constants.EnvPrefix + "_CONFIG")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(constants.DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicit file that is missing or broken is an error; a missing
		// default file is not.
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.NewConfigError("config", "reading "+configFile, err)
		}
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no-color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		TenantID: v.GetString("tenant"),
		ActorID:  v.GetString("actor"),

		StoreDriver: strings.ToLower(v.GetString("store.driver")),
		StorePath:   expandHome(v.GetString("store.path")),
		StoreDSN:    v.GetString("store.dsn"),

		BatchWorkers:   v.GetInt("batch.workers"),
		BatchRate:      v.GetFloat64("batch.rate"),
		BatchBurst:     v.GetInt("batch.burst"),
		IgnoredDomains: v.GetStringSlice("signals.ignore_domains"),
		ConflictPolicy: v.GetStringMapString("conflicts.policy"),

		MetricsFile: v.GetString("metrics.file"),

		ServerHost:             v.GetString("server.host"),
		ServerPort:             v.GetInt("server.port"),
		ServerPathPrefix:       v.GetString("server.prefix"),
		ServerAuth:             v.GetBool("server.auth"),
		ServerAPIKey:           v.GetString("server.api_key"),
		ServerCORSOrigins:      v.GetStringSlice("server.cors_origins"),
		ServerRateLimit:        v.GetFloat64("server.rate_limit"),
		ServerRateBurst:        v.GetInt("server.rate_burst"),
		ServerAutoGlobalActors: v.GetStringSlice("server.auto_global_actors"),

		LogLevel:  v.GetString("log.level"),
		LogFormat: v.GetString("log.format"),
		LogOutput: v.GetString("log.output"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", DriverBadger)
	v.SetDefault("store.path", constants.DefaultBadgerPath)
	v.SetDefault("batch.workers", constants.DefaultBatchWorkers)
	v.SetDefault("batch.rate", 0)
	v.SetDefault("batch.burst", constants.DefaultBatchBurst)
	v.SetDefault("server.host", constants.DefaultServerHost)
	v.SetDefault("server.port", constants.DefaultServerPort)
	v.SetDefault("server.prefix", constants.DefaultServerPrefix)
	v.SetDefault("server.rate_limit", constants.DefaultServerRateLimit)
	v.SetDefault("server.rate_burst", constants.DefaultServerRateBurst)
	v.SetDefault("log.format", "auto")
	v.SetDefault("log.output", "stderr")
}

// Validate checks values that cannot be fixed up later.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory, DriverBadger:
	case DriverPostgres:
		if c.StoreDSN == "" {
			return errors.NewConfigError("store", "postgres driver requires store.dsn", nil)
		}
	default:
		return errors.NewConfigError("store", "unknown driver "+c.StoreDriver, nil)
	}
	if c.BatchWorkers < 1 || c.BatchWorkers > constants.MaxBatchWorkers {
		return errors.NewConfigError("batch", "workers out of range", nil)
	}
	if c.BatchRate < 0 {
		return errors.NewConfigError("batch", "rate must not be negative", nil)
	}
	if c.ServerPort < 0 || c.ServerPort > 65535 {
		return errors.NewConfigError("server", "port out of range", nil)
	}
	if c.ServerRateLimit < 0 {
		return errors.NewConfigError("server", "rate limit must not be negative", nil)
	}
	return nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel, tenant, actor string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if tenant != "" {
		c.TenantID = tenant
	}
	if actor != "" {
		c.ActorID = actor
	}
}

// loadEnvFiles loads environment variables from .env files.
// Variables already set in the environment win.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
