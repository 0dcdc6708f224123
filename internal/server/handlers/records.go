package handlers

import (
	"net/http"

	"github.com/agentstation/recordlink/internal/server/response"
	"github.com/agentstation/recordlink/pkg/errors"
	"github.com/agentstation/recordlink/pkg/promotion"
	"github.com/agentstation/recordlink/pkg/records"
)

// SaveRequest is the body of POST /records.
type SaveRequest struct {
	Records []records.Record  `json:"records"`
	Options promotion.Options `json:"options"`
}

// SaveResponse reports stored records and, when any were promoted, the
// shared batch id.
type SaveResponse struct {
	BatchID string           `json:"batchId,omitempty"`
	Records []records.Record `json:"records"`
}

// HandleSaveRecords handles POST /api/v1/records.
func (h *Handlers) HandleSaveRecords(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req SaveRequest
	if !h.decode(w, r, &req) {
		return
	}
	if len(req.Records) == 0 {
		response.BadRequest(w, required("records"), "")
		return
	}

	saved, batchID, err := h.linker.SaveBatch(r.Context(), actor, req.Records, req.Options)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Created(w, SaveResponse{BatchID: batchID, Records: saved})
}

// HandleListVisible handles GET /api/v1/records: the tenant's private
// records plus resolved references.
func (h *Handlers) HandleListVisible(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	entries, err := h.linker.Visible(r.Context(), actor.TenantID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, entries)
}

// HandleGetRecord handles GET /api/v1/records/{id}. Records owned by other
// tenants are reported as not found.
func (h *Handlers) HandleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.visibleRecord(w, r)
	if !ok {
		return
	}
	response.OK(w, rec)
}

// HandleRecordHistory handles GET /api/v1/records/{id}/history.
func (h *Handlers) HandleRecordHistory(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.visibleRecord(w, r)
	if !ok {
		return
	}
	logs, err := h.linker.EnrichmentHistory(r.Context(), rec.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, logs)
}

// HandleSuggest handles GET /api/v1/suggestions?name=.
func (h *Handlers) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		response.BadRequest(w, required("name"), "")
		return
	}
	recs, err := h.linker.Suggest(r.Context(), actor.TenantID, name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if recs == nil {
		recs = []records.Record{}
	}
	response.OK(w, recs)
}

func (h *Handlers) visibleRecord(w http.ResponseWriter, r *http.Request) (*records.Record, bool) {
	actor, ok := h.actor(w, r)
	if !ok {
		return nil, false
	}
	id := r.PathValue("id")
	rec, err := h.linker.Record(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	if !rec.IsGlobal && rec.TenantID != actor.TenantID {
		h.fail(w, r, errors.NewNotFoundError("record", id))
		return nil, false
	}
	return rec, true
}
