// Package handlers provides HTTP request handlers for the recordlink API.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/recordlink"
	"github.com/agentstation/recordlink/internal/server/middleware"
	"github.com/agentstation/recordlink/internal/server/response"
	"github.com/agentstation/recordlink/pkg/logging"
	"github.com/agentstation/recordlink/pkg/records"
)

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	linker       recordlink.Linker
	logger       *zerolog.Logger
	version      string
	startTime    time.Time
	maxBodyBytes int64
}

// New creates a new Handlers instance.
func New(linker recordlink.Linker, logger *zerolog.Logger, version string, startTime time.Time, maxBodyBytes int64) *Handlers {
	return &Handlers{
		linker:       linker,
		logger:       logger,
		version:      version,
		startTime:    startTime,
		maxBodyBytes: maxBodyBytes,
	}
}

// actor returns the resolved actor or writes a 400.
func (h *Handlers) actor(w http.ResponseWriter, r *http.Request) (records.ActorContext, bool) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		response.BadRequest(w, "Missing tenant", "Provide the tenant id in the "+middleware.TenantHeader+" header")
	}
	return actor, ok
}

// decode reads a JSON body into v, rejecting unknown fields and bodies
// over the configured limit.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := r.Body
	if h.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		response.BadRequest(w, "Invalid request body", err.Error())
		return false
	}
	if dec.More() {
		response.BadRequest(w, "Invalid request body", "unexpected data after JSON value")
		return false
	}
	return true
}

// fail maps err to a response using the request scoped logger.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	response.ErrorFromType(w, logging.Ctx(r.Context()), err)
}

func required(field string) string {
	return fmt.Sprintf("%s is required", field)
}
