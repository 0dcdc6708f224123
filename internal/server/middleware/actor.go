package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/agentstation/recordlink/pkg/logging"
	"github.com/agentstation/recordlink/pkg/records"
)

// Headers naming the caller.
const (
	TenantHeader = "X-Tenant-ID"
	ActorHeader  = "X-Actor-ID"
)

type actorKey struct{}

// ActorConfig controls actor resolution.
type ActorConfig struct {
	// PathPrefix limits resolution to API routes.
	PathPrefix string
	// PublicPaths never require an actor.
	PublicPaths []string
	// AutoGlobalActors are granted AutoGlobalEligible.
	AutoGlobalActors []string
}

// Actor resolves the calling tenant and actor from request headers. API
// requests without a tenant are rejected with 400.
func Actor(config ActorConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, config.PathPrefix) || slices.Contains(config.PublicPaths, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			actor := records.ActorContext{
				TenantID: strings.TrimSpace(r.Header.Get(TenantHeader)),
				ActorID:  strings.TrimSpace(r.Header.Get(ActorHeader)),
			}
			if actor.TenantID == "" {
				writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Missing tenant",
					"Provide the tenant id in the "+TenantHeader+" header")
				return
			}
			if actor.ActorID == "" {
				actor.ActorID = actor.TenantID
			}
			actor.AutoGlobalEligible = slices.Contains(config.AutoGlobalActors, actor.ActorID)

			ctx := logging.WithActor(logging.WithTenant(r.Context(), actor.TenantID), actor.ActorID)
			ctx = context.WithValue(ctx, actorKey{}, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFrom returns the actor resolved by Actor.
func ActorFrom(ctx context.Context) (records.ActorContext, bool) {
	actor, ok := ctx.Value(actorKey{}).(records.ActorContext)
	return actor, ok
}

// WithActor stores actor on ctx. Handlers tests use it to bypass headers.
func WithActor(ctx context.Context, actor records.ActorContext) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}
