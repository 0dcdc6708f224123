package handlers

import (
	"net/http"

	"github.com/agentstation/recordlink"
	"github.com/agentstation/recordlink/internal/server/response"
	"github.com/agentstation/recordlink/pkg/records"
)

// AnalyzeRequest is the body of POST /analyze.
type AnalyzeRequest struct {
	Variants     []records.Record `json:"variants"`
	OwnRecordIDs []string         `json:"ownRecordIds,omitempty"`
}

// BatchAnalyzeRequest is the body of POST /analyze/batch.
type BatchAnalyzeRequest struct {
	Rows []recordlink.Row `json:"rows"`
}

// RowResult is one row of a batch response.
type RowResult struct {
	Index    int                  `json:"index"`
	Analysis *recordlink.Analysis `json:"analysis,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// HandleAnalyze handles POST /api/v1/analyze.
func (h *Handlers) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req AnalyzeRequest
	if !h.decode(w, r, &req) {
		return
	}
	if len(req.Variants) == 0 {
		response.BadRequest(w, required("variants"), "")
		return
	}

	analysis, err := h.linker.Analyze(r.Context(), actor, req.Variants, req.OwnRecordIDs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, analysis)
}

// HandleAnalyzeBatch handles POST /api/v1/analyze/batch. Row failures are
// reported per row; the request only fails as a whole when cancelled.
func (h *Handlers) HandleAnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req BatchAnalyzeRequest
	if !h.decode(w, r, &req) {
		return
	}

	results, err := h.linker.AnalyzeBatch(r.Context(), actor, req.Rows)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]RowResult, len(results))
	for i, res := range results {
		out[i] = RowResult{Index: res.Index, Analysis: res.Analysis}
		if res.Err != nil {
			out[i].Error = res.Err.Error()
		}
	}
	response.OK(w, out)
}
