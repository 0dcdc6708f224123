// Package enrich merges corroborated data from matched variants into a target
// record without ever silently overwriting what the target already holds.
//
// Enrichment is gated by confidence. Below the threshold nothing happens.
// Above it, empty fields are filled when the value is corroborated, and
// populated fields that disagree are reported as conflicts and settled by a
// ConflictResolver, which keeps the existing value unless configured otherwise.
package enrich

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/recordlink/pkg/confidence"
	"github.com/agentstation/recordlink/pkg/constants"
	"github.com/agentstation/recordlink/pkg/errors"
	"github.com/agentstation/recordlink/pkg/logging"
	"github.com/agentstation/recordlink/pkg/metrics"
	"github.com/agentstation/recordlink/pkg/records"
	"github.com/agentstation/recordlink/pkg/store"
)

// SkipReason explains why an enrichment did not run.
type SkipReason string

// Skip reasons.
const (
	// LowConfidenceSkip means the match confidence was below the threshold.
	LowConfidenceSkip SkipReason = "low_confidence"
	// NothingToChange means every candidate value was already present,
	// uncorroborated or kept in conflict.
	NothingToChange SkipReason = "nothing_to_change"
)

// Outcome labels reported to metrics.
const (
	outcomeEnriched  = "enriched"
	outcomeUnchanged = "unchanged"
	outcomeSkipped   = "low_confidence"
	outcomeFailed    = "failed"
)

// Request is one enrichment of Target from Variants.
type Request struct {
	Target   *records.Record
	Variants []records.Record

	// SourceVariantCount is the number of independent sources. A value of 1
	// means no alternative source exists, so single-source data is accepted.
	SourceVariantCount int

	// SoleCandidate is set when the target was the only candidate of its
	// scan. It allows website and logo to be filled from a single variant.
	SoleCandidate bool

	Confidence float64
	ActorID    string
}

// Result reports what an enrichment changed.
type Result struct {
	Enriched        bool        `json:"enriched" yaml:"enriched"`
	FieldsAdded     []string    `json:"fieldsAdded" yaml:"fieldsAdded"`
	FieldsUpdated   []string    `json:"fieldsUpdated" yaml:"fieldsUpdated"`
	Conflicts       []Conflict  `json:"conflicts" yaml:"conflicts"`
	OldCompleteness int         `json:"oldCompleteness" yaml:"oldCompleteness"`
	NewCompleteness int         `json:"newCompleteness" yaml:"newCompleteness"`
	Skipped         *SkipReason `json:"skipped,omitempty" yaml:"skipped,omitempty"`

	// Record is the target as it stands after enrichment.
	Record *records.Record `json:"-" yaml:"-"`
}

// RecordUpdater persists field changes atomically for one record.
type RecordUpdater interface {
	Update(ctx context.Context, id string, fields map[string]any) error
}

// LogAppender appends to the enrichment history.
type LogAppender interface {
	Append(ctx context.Context, entry records.EnrichmentLog) (string, error)
}

// Engine performs enrichments.
type Engine struct {
	updater  RecordUpdater
	logs     LogAppender
	resolver ConflictResolver
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithConflictResolver sets the conflict policy. A nil resolver keeps the default.
func WithConflictResolver(r ConflictResolver) Option {
	return func(e *Engine) {
		if r != nil {
			e.resolver = r
		}
	}
}

// WithMetrics enables instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine writing through updater and logs.
func New(updater RecordUpdater, logs LogAppender, opts ...Option) *Engine {
	e := &Engine{
		updater:  updater,
		logs:     logs,
		resolver: KeepExisting,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewFromStore creates an Engine over the records and enrichment log
// collections of s.
func NewFromStore(s store.Store, opts ...Option) *Engine {
	return New(store.NewRecords(s), store.NewEnrichmentLogs(s), opts...)
}

// Enrich applies req. The target in req is not modified; the enriched copy is
// returned in Result.Record.
func (e *Engine) Enrich(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	start := e.now()
	ctx = logging.WithRecord(ctx, req.Target.ID)
	log := logging.Ctx(ctx)

	target := req.Target.Clone()
	result := &Result{
		FieldsAdded:     []string{},
		FieldsUpdated:   []string{},
		Conflicts:       []Conflict{},
		OldCompleteness: Completeness(&target),
		Record:          &target,
	}
	result.NewCompleteness = result.OldCompleteness

	if !confidence.Meets(req.Confidence) {
		reason := LowConfidenceSkip
		result.Skipped = &reason
		e.metrics.ObserveEnrichment(outcomeSkipped, 0, 0)
		log.Debug().
			Float64("confidence", req.Confidence).
			Msg("Enrichment skipped below confidence threshold")
		return result, nil
	}

	patch := make(map[string]any)
	for _, f := range fields {
		cand, ok := majority(f, req.Variants)
		if !ok {
			continue
		}
		current := f.keyed(&target)
		switch {
		case len(current) == 0:
			if !corroborated(f, cand, req) {
				continue
			}
			f.fill(&target, cand.value)
			patch[f.column] = f.stored(&target)
			result.FieldsAdded = append(result.FieldsAdded, f.name)
		case !holds(current, cand.key):
			c := Conflict{Field: f.name, Existing: current[0].value, Candidate: cand.value}
			c.Action = e.resolver.Resolve(ctx, c)
			if !c.Action.Valid() {
				c.Action = KeptExisting
			}
			if c.Action == AutoUpdated {
				f.replace(&target, cand.value)
				patch[f.column] = f.stored(&target)
				result.FieldsUpdated = append(result.FieldsUpdated, f.name)
			}
			result.Conflicts = append(result.Conflicts, c)
			e.metrics.ObserveConflict(string(c.Action))
		}
	}

	if len(patch) == 0 {
		reason := NothingToChange
		result.Skipped = &reason
		e.metrics.ObserveEnrichment(outcomeUnchanged, 0, 0)
		log.Debug().Int("conflicts", len(result.Conflicts)).Msg("Enrichment found nothing to change")
		return result, nil
	}

	now := e.now()
	target.EnrichedBy = req.ActorID
	target.EnrichedAt = &now
	target.UpdatedAt = now
	patch["enrichedBy"] = req.ActorID
	patch["enrichedAt"] = now
	patch["updatedAt"] = now

	if err := e.updater.Update(ctx, target.ID, patch); err != nil {
		e.metrics.ObserveEnrichment(outcomeFailed, 0, 0)
		if errors.IsStoreIO(err) || errors.IsNotFound(err) {
			return nil, err
		}
		return nil, errors.NewStoreIOError("update", constants.CollectionRecords, target.ID, err)
	}

	result.Enriched = true
	result.NewCompleteness = Completeness(&target)
	e.appendLog(ctx, req, result, now)

	e.metrics.ObserveEnrichment(outcomeEnriched, len(result.FieldsAdded), len(result.FieldsUpdated))
	e.metrics.ObserveDuration("enrich", start)
	log.Info().
		Strs("added", result.FieldsAdded).
		Strs("updated", result.FieldsUpdated).
		Int("conflicts", len(result.Conflicts)).
		Int("completeness", result.NewCompleteness).
		Msg("Enriched record")
	return result, nil
}

// appendLog writes the history entry. A failure is logged and swallowed: the
// field update has already landed and stays in place.
func (e *Engine) appendLog(ctx context.Context, req Request, result *Result, at time.Time) {
	entry := records.EnrichmentLog{
		ID:            uuid.NewString(),
		EntityType:    req.Target.Kind,
		EntityID:      req.Target.ID,
		TenantID:      req.Target.TenantID,
		FieldsAdded:   result.FieldsAdded,
		FieldsUpdated: result.FieldsUpdated,
		Conflicts:     len(result.Conflicts),
		Confidence:    req.Confidence,
		ActorID:       req.ActorID,
		Timestamp:     at,
	}
	if _, err := e.logs.Append(ctx, entry); err != nil {
		werr := errors.NewAuditWriteError(constants.CollectionEnrichmentLogs, "enrich", entry.EntityID, err)
		e.metrics.ObserveAuditFailure(constants.CollectionEnrichmentLogs)
		logging.Ctx(ctx).Warn().Err(werr).Msg("Enrichment log entry lost")
	}
}

func corroborated(f field, c candidate, req Request) bool {
	switch {
	case c.count >= constants.MinCorroboratingVariants:
		return true
	case req.SourceVariantCount == 1:
		return true
	case f.soleCandidate && req.SoleCandidate:
		return true
	}
	return false
}

func validate(req Request) error {
	if req.Target == nil {
		return errors.NewValidationError("target", nil, "target record is required")
	}
	if req.Target.ID == "" {
		return errors.NewValidationError("target.id", "", "target record has no id")
	}
	if math.IsNaN(req.Confidence) || req.Confidence < 0 || req.Confidence > 1 {
		return errors.NewValidationError("confidence", req.Confidence,
			fmt.Sprintf("confidence %v is outside [0,1]", req.Confidence))
	}
	if req.SourceVariantCount < 0 {
		return errors.NewValidationError("sourceVariantCount", req.SourceVariantCount, "must not be negative")
	}
	return nil
}
