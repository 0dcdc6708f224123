package handlers

import (
	"net/http"

	"github.com/agentstation/recordlink/internal/server/response"
	"github.com/agentstation/recordlink/pkg/records"
)

// CreateReferenceRequest is the body of POST /references.
type CreateReferenceRequest struct {
	GlobalRecordID string `json:"globalRecordId"`
	Notes          string `json:"notes,omitempty"`
}

// HandleListReferences handles GET /api/v1/references.
func (h *Handlers) HandleListReferences(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	refs, err := h.linker.References(r.Context(), actor.TenantID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if refs == nil {
		refs = []records.Reference{}
	}
	response.OK(w, refs)
}

// HandleCreateReference handles POST /api/v1/references.
func (h *Handlers) HandleCreateReference(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req CreateReferenceRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.GlobalRecordID == "" {
		response.BadRequest(w, required("globalRecordId"), "")
		return
	}

	ref, err := h.linker.Subscribe(r.Context(), actor, req.GlobalRecordID, req.Notes)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Created(w, ref)
}

// HandleDeleteReference handles DELETE /api/v1/references/{id}.
func (h *Handlers) HandleDeleteReference(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if err := h.linker.Unsubscribe(r.Context(), actor, r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	response.NoContent(w)
}
