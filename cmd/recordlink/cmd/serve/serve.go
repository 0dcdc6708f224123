// Package serve implements the serve command, which exposes the linker
// over the JSON HTTP API.
package serve

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/recordlink/internal/appcontext"
	"github.com/agentstation/recordlink/internal/server"
)

// NewCommand creates the serve command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		GroupID: "core",
		Short:   "Start the REST API server",
		Long: `Start a JSON API over the record store.

Every request under the API prefix acts as the tenant named by the
X-Tenant-ID header and the actor named by X-Actor-ID. Actors listed in
server.auto_global_actors promote their writes to the global catalog.

Routes:
  POST   /api/v1/analyze             match and enrich one set of variants
  POST   /api/v1/analyze/batch       analyze independent rows
  GET    /api/v1/records             private records plus references
  POST   /api/v1/records             save records
  GET    /api/v1/records/{id}        one visible record
  GET    /api/v1/records/{id}/history enrichment log
  GET    /api/v1/suggestions?name=   name based suggestions
  GET    /api/v1/references          the tenant's references
  POST   /api/v1/references          subscribe to a global record
  DELETE /api/v1/references/{id}     unsubscribe
  GET    /api/v1/audit               the tenant's audit trail
  GET    /metrics                    Prometheus metrics

The API key for --auth is read from server.api_key or
RECORDLINK_SERVER_API_KEY, never from a flag.`,
		Example: `  # Start on default port 8080
  recordlink serve

  # Start on custom port with authentication
  RECORDLINK_SERVER_API_KEY=secret recordlink serve --port 3000 --auth

  # Allow a browser front end
  recordlink serve --cors-origins https://crm.example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd, app)
		},
	}

	defaults := server.DefaultConfig()
	cmd.Flags().Int("port", defaults.Port, "Server port")
	cmd.Flags().String("host", defaults.Host, "Bind address")
	cmd.Flags().String("prefix", defaults.PathPrefix, "API path prefix")
	cmd.Flags().StringSlice("cors-origins", nil, "Allowed CORS origins (comma-separated, * for all)")
	cmd.Flags().Bool("auth", false, "Require an API key on API routes")
	cmd.Flags().String("auth-header", defaults.AuthHeader, "Authentication header name")
	cmd.Flags().Float64("rate-limit", defaults.RateLimit, "Requests per second per IP (0 to disable)")
	cmd.Flags().Int("rate-burst", defaults.RateBurst, "Burst size per IP")
	cmd.Flags().Duration("read-timeout", defaults.ReadTimeout, "HTTP read timeout")
	cmd.Flags().Duration("write-timeout", defaults.WriteTimeout, "HTTP write timeout")
	cmd.Flags().Duration("idle-timeout", defaults.IdleTimeout, "HTTP idle timeout")
	cmd.Flags().Bool("metrics", defaults.MetricsEnabled, "Serve /metrics")
	return cmd
}

func runServer(cmd *cobra.Command, app appcontext.Interface) error {
	cfg, err := parseConfig(cmd, app.ServerConfig())
	if err != nil {
		return err
	}
	logger := app.Logger()

	linker, err := app.Linker(cmd.Context())
	if err != nil {
		return err
	}
	srv, err := server.New(linker, app.MetricsGatherer(), logger, cfg, app.Version())
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	logger.Info().
		Str("addr", srv.Addr()).
		Str("prefix", cfg.PathPrefix).
		Bool("cors", cfg.CORSEnabled).
		Bool("auth", cfg.AuthEnabled).
		Float64("rate_limit", cfg.RateLimit).
		Msg("Starting API server")

	// cmd.Context() is cancelled on SIGINT/SIGTERM by main.
	return srv.ListenAndServe(cmd.Context())
}

// parseConfig applies explicitly set flags on top of base, which carries
// the config file and environment values.
func parseConfig(cmd *cobra.Command, base server.Config) (server.Config, error) {
	cfg := base
	flags := cmd.Flags()

	if flags.Changed("port") {
		cfg.Port = mustGetInt(cmd, "port")
	}
	if flags.Changed("host") {
		cfg.Host = mustGetString(cmd, "host")
	}
	if flags.Changed("prefix") {
		cfg.PathPrefix = mustGetString(cmd, "prefix")
	}
	if flags.Changed("cors-origins") {
		cfg.CORSOrigins = mustGetStringSlice(cmd, "cors-origins")
		cfg.CORSEnabled = len(cfg.CORSOrigins) > 0
	}
	if flags.Changed("auth") {
		cfg.AuthEnabled = mustGetBool(cmd, "auth")
	}
	if flags.Changed("auth-header") {
		cfg.AuthHeader = mustGetString(cmd, "auth-header")
	}
	if flags.Changed("rate-limit") {
		cfg.RateLimit = mustGetFloat64(cmd, "rate-limit")
	}
	if flags.Changed("rate-burst") {
		cfg.RateBurst = mustGetInt(cmd, "rate-burst")
	}
	if flags.Changed("read-timeout") {
		cfg.ReadTimeout = mustGetDuration(cmd, "read-timeout")
	}
	if flags.Changed("write-timeout") {
		cfg.WriteTimeout = mustGetDuration(cmd, "write-timeout")
	}
	if flags.Changed("idle-timeout") {
		cfg.IdleTimeout = mustGetDuration(cmd, "idle-timeout")
	}
	if flags.Changed("metrics") {
		cfg.MetricsEnabled = mustGetBool(cmd, "metrics")
	}

	if cfg.Port < 0 || cfg.Port > 65535 {
		return cfg, fmt.Errorf("port out of range: %d", cfg.Port)
	}
	if cfg.RateLimit < 0 {
		return cfg, fmt.Errorf("rate limit must not be negative: %g", cfg.RateLimit)
	}
	if cfg.AuthEnabled && cfg.APIKey == "" {
		return cfg, fmt.Errorf("--auth requires server.api_key or RECORDLINK_SERVER_API_KEY")
	}
	return cfg, nil
}

// mustGetInt retrieves an integer flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic(fmt.Sprintf("BUG: flag %q not defined: %v", name, err))
	}
	return val
}

func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("BUG: flag %q not defined: %v", name, err))
	}
	return val
}

func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("BUG: flag %q not defined: %v", name, err))
	}
	return val
}

func mustGetFloat64(cmd *cobra.Command, name string) float64 {
	val, err := cmd.Flags().GetFloat64(name)
	if err != nil {
		panic(fmt.Sprintf("BUG: flag %q not defined: %v", name, err))
	}
	return val
}

func mustGetStringSlice(cmd *cobra.Command, name string) []string {
	val, err := cmd.Flags().GetStringSlice(name)
	if err != nil {
		panic(fmt.Sprintf("BUG: flag %q not defined: %v", name, err))
	}
	return val
}

func mustGetDuration(cmd *cobra.Command, name string) time.Duration {
	val, err := cmd.Flags().GetDuration(name)
	if err != nil {
		panic(fmt.Sprintf("BUG: flag %q not defined: %v", name, err))
	}
	return val
}
