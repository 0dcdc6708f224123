package recordlink

import (
	"context"
	"time"

	"github.com/agentstation/recordlink/pkg/confidence"
	"github.com/agentstation/recordlink/pkg/enrich"
	"github.com/agentstation/recordlink/pkg/errors"
	"github.com/agentstation/recordlink/pkg/logging"
	"github.com/agentstation/recordlink/pkg/records"
	"github.com/agentstation/recordlink/pkg/scanner"
	"github.com/agentstation/recordlink/pkg/signals"
)

// Analysis is the outcome of matching one set of variants.
type Analysis struct {
	Signals    []signals.Signal         `json:"signals" yaml:"signals"`
	Candidates []scanner.MatchCandidate `json:"candidates" yaml:"candidates"`
	Best       *scanner.MatchCandidate  `json:"best,omitempty" yaml:"best,omitempty"`
	Confidence float64                  `json:"confidence" yaml:"confidence"`
	Enrichment *enrich.Result           `json:"enrichment,omitempty" yaml:"enrichment,omitempty"`
}

// Analyze extracts signals from variants, ranks the actor tenant's records
// against them, and enriches the best candidate when confidence allows.
// ownRecordIDs narrows the records considered; nil means all of them.
func (l *linker) Analyze(ctx context.Context, actor records.ActorContext, variants []records.Record, ownRecordIDs []string) (*Analysis, error) {
	if actor.TenantID == "" {
		return nil, errors.NewValidationError("tenantId", "", "actor tenant is required")
	}
	start := time.Now()
	ctx = logging.WithActor(logging.WithTenant(l.withLogger(ctx), actor.TenantID), actor.ActorID)
	defer l.config.metrics.ObserveDuration("analyze", start)

	sigs := l.extractor.ExtractAll(variants)
	scan, err := l.scanner.Scan(ctx, sigs, ownRecordIDs, actor.TenantID)
	if err != nil {
		return nil, err
	}
	l.config.metrics.ObserveScan(len(scan.Candidates))

	analysis := &Analysis{Signals: sigs, Candidates: scan.Candidates}
	best, ok := scan.Best()
	if !ok {
		return analysis, nil
	}
	analysis.Best = &best
	analysis.Confidence = confidence.ScoreCandidate(best)

	target, err := l.records.Get(ctx, best.RecordID)
	if err != nil {
		return nil, err
	}
	result, err := l.engine.Enrich(ctx, enrich.Request{
		Target:             target,
		Variants:           variants,
		SourceVariantCount: len(variants),
		SoleCandidate:      scan.SoleCandidate(),
		Confidence:         analysis.Confidence,
		ActorID:            actor.ActorID,
	})
	if err != nil {
		return nil, err
	}
	analysis.Enrichment = result
	if result.Enriched {
		l.hooks.enriched(*result.Record, *result)
	}
	return analysis, nil
}
