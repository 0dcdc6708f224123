package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestLoadConfig verifies defaults.
func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if config.StoreDriver != DriverBadger {
		t.Errorf("StoreDriver = %q, want %q", config.StoreDriver, DriverBadger)
	}
	if config.BatchWorkers != 4 {
		t.Errorf("BatchWorkers = %d, want 4", config.BatchWorkers)
	}
	if strings.HasPrefix(config.StorePath, "~") {
		t.Errorf("StorePath %q was not expanded", config.StorePath)
	}
	if config.LogFormat == "" {
		t.Error("LogFormat not set to default")
	}
}

// TestConfig_EnvironmentVariables verifies RECORDLINK_* variables.
func TestConfig_EnvironmentVariables(t *testing.T) {
	t.Setenv("RECORDLINK_TENANT", "acme")
	t.Setenv("RECORDLINK_ACTOR", "alice")
	t.Setenv("RECORDLINK_STORE_DRIVER", "MEMORY")
	t.Setenv("RECORDLINK_BATCH_WORKERS", "8")
	t.Setenv("RECORDLINK_BATCH_RATE", "2.5")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if config.TenantID != "acme" || config.ActorID != "alice" {
		t.Errorf("identity = %q/%q, want acme/alice", config.TenantID, config.ActorID)
	}
	if config.StoreDriver != DriverMemory {
		t.Errorf("StoreDriver = %q, want memory", config.StoreDriver)
	}
	if config.BatchWorkers != 8 {
		t.Errorf("BatchWorkers = %d, want 8", config.BatchWorkers)
	}
	if config.BatchRate != 2.5 {
		t.Errorf("BatchRate = %v, want 2.5", config.BatchRate)
	}
}

// TestLoadConfigFile verifies nested keys from a config file.
func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recordlink.yaml")
	content := `store:
  driver: memory
signals:
  ignore_domains:
    - gmail.com
    - "*.example.org"
conflicts:
  policy:
    website: flagged_for_review
    "*": kept_existing
metrics:
  file: /tmp/recordlink.prom
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() failed: %v", err)
	}
	if len(config.IgnoredDomains) != 2 || config.IgnoredDomains[1] != "*.example.org" {
		t.Errorf("IgnoredDomains = %v", config.IgnoredDomains)
	}
	if config.ConflictPolicy["website"] != "flagged_for_review" || config.ConflictPolicy["*"] != "kept_existing" {
		t.Errorf("ConflictPolicy = %v", config.ConflictPolicy)
	}
	if config.MetricsFile != "/tmp/recordlink.prom" {
		t.Errorf("MetricsFile = %q", config.MetricsFile)
	}
	if config.ConfigFile != path {
		t.Errorf("ConfigFile = %q, want %q", config.ConfigFile, path)
	}
}

// TestLoadConfigFile_Missing verifies an explicit missing file is an error.
func TestLoadConfigFile_Missing(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

// TestConfig_Validate covers rejected settings.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"memory", func(c *Config) { c.StoreDriver = DriverMemory }, false},
		{"postgres without dsn", func(c *Config) { c.StoreDriver = DriverPostgres }, true},
		{"postgres with dsn", func(c *Config) {
			c.StoreDriver = DriverPostgres
			c.StoreDSN = "postgres://localhost/recordlink"
		}, false},
		{"unknown driver", func(c *Config) { c.StoreDriver = "sqlite" }, true},
		{"zero workers", func(c *Config) { c.BatchWorkers = 0 }, true},
		{"too many workers", func(c *Config) { c.BatchWorkers = 1000 }, true},
		{"negative rate", func(c *Config) { c.BatchRate = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{StoreDriver: DriverBadger, BatchWorkers: 4}
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestConfig_UpdateFromFlags verifies flags override loaded values.
func TestConfig_UpdateFromFlags(t *testing.T) {
	c := &Config{Format: "yaml", TenantID: "from-env", ActorID: "env-actor"}
	c.UpdateFromFlags(true, false, true, "", "debug", "from-flag", "")

	if !c.Verbose || !c.NoColor {
		t.Error("boolean flags not applied")
	}
	if c.Format != "yaml" {
		t.Errorf("Format = %q, empty flag must keep yaml", c.Format)
	}
	if c.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", c.LogLevel)
	}
	if c.TenantID != "from-flag" || c.ActorID != "env-actor" {
		t.Errorf("identity = %q/%q", c.TenantID, c.ActorID)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandHome("~/data"); got != filepath.Join(home, "data") {
		t.Errorf("expandHome(~/data) = %q", got)
	}
	if got := expandHome("/var/lib/x"); got != "/var/lib/x" {
		t.Errorf("expandHome(/var/lib/x) = %q", got)
	}
}

// TestServerConfig verifies server.* keys reach the API server settings.
func TestServerConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recordlink.yaml")
	content := `store:
  driver: memory
server:
  port: 9090
  auth: true
  cors_origins: [https://crm.example.com]
  auto_global_actors: [curator]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RECORDLINK_SERVER_API_KEY", "secret")

	config, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() failed: %v", err)
	}
	app, err := New("test", "", "", "", WithConfig(config))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	cfg := app.ServerConfig()
	if cfg.Port != 9090 || cfg.Host != "localhost" || cfg.PathPrefix != "/api/v1" {
		t.Errorf("address = %s:%d%s", cfg.Host, cfg.Port, cfg.PathPrefix)
	}
	if !cfg.AuthEnabled || cfg.APIKey != "secret" {
		t.Errorf("auth = %v key %q", cfg.AuthEnabled, cfg.APIKey)
	}
	if !cfg.CORSEnabled || len(cfg.CORSOrigins) != 1 {
		t.Errorf("cors = %v %v", cfg.CORSEnabled, cfg.CORSOrigins)
	}
	if len(cfg.AutoGlobalActors) != 1 || cfg.AutoGlobalActors[0] != "curator" {
		t.Errorf("AutoGlobalActors = %v", cfg.AutoGlobalActors)
	}
	if cfg.RateLimit != 10 {
		t.Errorf("RateLimit = %v, want default 10", cfg.RateLimit)
	}
}
