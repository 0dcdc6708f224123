package handlers

import (
	"net/http"

	"github.com/agentstation/recordlink/internal/server/response"
	"github.com/agentstation/recordlink/pkg/audit"
	"github.com/agentstation/recordlink/pkg/records"
)

// HandleAudit handles GET /api/v1/audit. Entries are always limited to the
// caller's tenant; entity, action and by narrow further.
func (h *Handlers) HandleAudit(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	entries, err := h.linker.AuditTrail(r.Context(), audit.Filter{
		TenantID:    actor.TenantID,
		EntityID:    q.Get("entity"),
		Action:      q.Get("action"),
		PerformedBy: q.Get("by"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if entries == nil {
		entries = []records.AuditEntry{}
	}
	response.OK(w, entries)
}
