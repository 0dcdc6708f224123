package recordlink

import (
	"sync"

	"github.com/agentstation/recordlink/pkg/enrich"
	"github.com/agentstation/recordlink/pkg/records"
)

// Hook function types for record events
type (
	// RecordSavedHook is called after a record is stored
	RecordSavedHook func(rec records.Record)

	// RecordEnrichedHook is called after a record is enriched
	RecordEnrichedHook func(rec records.Record, result enrich.Result)
)

// hooks manages event callbacks
type hooks struct {
	mu         sync.RWMutex
	onSaved    []RecordSavedHook
	onEnriched []RecordEnrichedHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnRecordSaved registers a callback for stored records
func (h *hooks) OnRecordSaved(fn RecordSavedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onSaved = append(h.onSaved, fn)
}

// OnRecordEnriched registers a callback for enriched records
func (h *hooks) OnRecordEnriched(fn RecordEnrichedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onEnriched = append(h.onEnriched, fn)
}

func (h *hooks) saved(rec records.Record) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onSaved {
		fn(rec)
	}
}

func (h *hooks) enriched(rec records.Record, result enrich.Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onEnriched {
		fn(rec, result)
	}
}
