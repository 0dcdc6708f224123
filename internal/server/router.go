package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentstation/recordlink/internal/server/handlers"
	"github.com/agentstation/recordlink/internal/server/middleware"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()
	h := handlers.New(s.linker, s.logger, s.version, s.startTime, s.config.MaxBodyBytes)
	s.registerRoutes(mux, h)
	return s.applyMiddleware(mux)
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux, h *handlers.Handlers) {
	prefix := s.config.PathPrefix

	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Public health endpoints (no auth, no actor)
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET "+prefix+"/health", h.HandleHealth)
	mux.HandleFunc("GET "+prefix+"/ready", h.HandleReady)

	// Matching and enrichment
	mux.HandleFunc("POST "+prefix+"/analyze", h.HandleAnalyze)
	mux.HandleFunc("POST "+prefix+"/analyze/batch", h.HandleAnalyzeBatch)

	// Records
	mux.HandleFunc("GET "+prefix+"/records", h.HandleListVisible)
	mux.HandleFunc("POST "+prefix+"/records", h.HandleSaveRecords)
	mux.HandleFunc("GET "+prefix+"/records/{id}", h.HandleGetRecord)
	mux.HandleFunc("GET "+prefix+"/records/{id}/history", h.HandleRecordHistory)
	mux.HandleFunc("GET "+prefix+"/suggestions", h.HandleSuggest)

	// References
	mux.HandleFunc("GET "+prefix+"/references", h.HandleListReferences)
	mux.HandleFunc("POST "+prefix+"/references", h.HandleCreateReference)
	mux.HandleFunc("DELETE "+prefix+"/references/{id}", h.HandleDeleteReference)

	// Audit
	mux.HandleFunc("GET "+prefix+"/audit", h.HandleAudit)

	if s.config.MetricsEnabled && s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

// applyMiddleware wraps handler with middleware chain. The outermost
// middleware is applied last.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	cfg := s.config
	public := []string{"/health", "/metrics", cfg.PathPrefix + "/health", cfg.PathPrefix + "/ready"}

	handler = middleware.Actor(middleware.ActorConfig{
		PathPrefix:       cfg.PathPrefix,
		PublicPaths:      public,
		AutoGlobalActors: cfg.AutoGlobalActors,
	})(handler)

	if cfg.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, s.logger)
		handler = middleware.RateLimit(limiter)(handler)
	}

	if cfg.AuthEnabled {
		handler = middleware.Auth(middleware.AuthConfig{
			Enabled:     true,
			APIKey:      cfg.APIKey,
			HeaderName:  cfg.AuthHeader,
			PublicPaths: public,
		}, s.logger)(handler)
	}

	if cfg.CORSEnabled {
		corsConfig := middleware.DefaultCORSConfig()
		if len(cfg.CORSOrigins) > 0 {
			corsConfig.AllowedOrigins = cfg.CORSOrigins
		} else {
			corsConfig.AllowAll = true
		}
		handler = middleware.CORS(corsConfig)(handler)
	}

	handler = middleware.Logger(s.logger)(handler)
	return middleware.Recovery(s.logger)(handler)
}
