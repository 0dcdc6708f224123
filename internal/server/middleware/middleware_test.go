package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/recordlink/pkg/records"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(mark("a"), mark("b"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b", "handler"}, order)
}

func TestRecovery(t *testing.T) {
	logger := zerolog.Nop()
	h := Recovery(&logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestActor(t *testing.T) {
	cfg := ActorConfig{
		PathPrefix:       "/api/v1",
		PublicPaths:      []string{"/api/v1/health"},
		AutoGlobalActors: []string{"curator"},
	}
	var got records.ActorContext
	var found bool
	h := Actor(cfg)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got, found = ActorFrom(r.Context())
	}))

	tests := []struct {
		name   string
		path   string
		tenant string
		actor  string
		status int
		want   records.ActorContext
		found  bool
	}{
		{"public path", "/api/v1/health", "", "", http.StatusOK, records.ActorContext{}, false},
		{"outside prefix", "/metrics", "", "", http.StatusOK, records.ActorContext{}, false},
		{"missing tenant", "/api/v1/records", "", "bob", http.StatusBadRequest, records.ActorContext{}, false},
		{"actor defaults to tenant", "/api/v1/records", "t1", "", http.StatusOK, records.ActorContext{ActorID: "t1", TenantID: "t1"}, true},
		{"auto global actor", "/api/v1/records", "t1", "curator", http.StatusOK,
			records.ActorContext{ActorID: "curator", TenantID: "t1", AutoGlobalEligible: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found = records.ActorContext{}, false
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set(TenantHeader, tt.tenant)
			req.Header.Set(ActorHeader, tt.actor)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientIP(req))
}

func TestRateLimiterPerIP(t *testing.T) {
	logger := zerolog.Nop()
	rl := NewRateLimiter(0.001, 1, &logger)
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
}
