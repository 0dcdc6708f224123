// Package promotion decides whether a freshly written record enters the
// global catalog and stamps its catalog metadata when it does.
//
// A record is promoted when the write forces it or when the acting user is
// eligible for automatic promotion. Everything else passes through untouched.
package promotion

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/agentstation/recordlink/pkg/audit"
	"github.com/agentstation/recordlink/pkg/constants"
	"github.com/agentstation/recordlink/pkg/errors"
	"github.com/agentstation/recordlink/pkg/logging"
	"github.com/agentstation/recordlink/pkg/metrics"
	"github.com/agentstation/recordlink/pkg/records"
)

// Promotion contexts stamped on GlobalMetadata.Context.
const (
	ContextForceGlobal = "force_global"
	ContextAutoGlobal  = "auto_global"
)

// Options control one interception.
type Options struct {
	// LiveMode publishes immediately instead of creating a draft.
	LiveMode bool `json:"liveMode" yaml:"liveMode"`
	// ForceGlobal promotes regardless of actor eligibility.
	ForceGlobal bool `json:"forceGlobal" yaml:"forceGlobal"`
	// SourceType is copied onto promoted records when set.
	SourceType string `json:"sourceType,omitempty" yaml:"sourceType,omitempty"`
}

// ShouldPromote reports whether a write by actor with opts is promoted.
func ShouldPromote(actor records.ActorContext, opts Options) bool {
	return opts.ForceGlobal || actor.AutoGlobalEligible
}

// Interceptor stamps global catalog metadata on promoted records.
type Interceptor struct {
	audit   audit.Recorder
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithMetrics enables instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(i *Interceptor) { i.metrics = m }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(i *Interceptor) { i.now = now }
}

// New creates an Interceptor that records each promotion on trail.
func New(trail audit.Recorder, opts ...Option) *Interceptor {
	i := &Interceptor{
		audit: trail,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Intercept returns rec unchanged unless it is promoted, in which case the
// returned copy carries IsGlobal and fresh GlobalMetadata with the version
// bumped. Nothing is recorded until the caller has stored the copy and
// passes it to Commit.
func (i *Interceptor) Intercept(ctx context.Context, rec records.Record, actor records.ActorContext, opts Options) (records.Record, error) {
	if !ShouldPromote(actor, opts) {
		return rec, nil
	}
	return i.promote(ctx, rec, actor, opts, "")
}

// InterceptBatch applies Intercept to each record. Promoted records share
// one batch id, which is returned; it is empty when nothing was promoted.
func (i *Interceptor) InterceptBatch(ctx context.Context, recs []records.Record, actor records.ActorContext, opts Options) ([]records.Record, string, error) {
	out := make([]records.Record, len(recs))
	if !ShouldPromote(actor, opts) {
		copy(out, recs)
		return out, "", nil
	}
	batchID := NewBatchID(i.now())
	ctx = logging.WithBatch(ctx, batchID)
	for n, rec := range recs {
		promoted, err := i.promote(ctx, rec, actor, opts, batchID)
		if err != nil {
			return nil, "", fmt.Errorf("record %d: %w", n, err)
		}
		out[n] = promoted
	}
	logging.Ctx(ctx).Debug().
		Int("records", len(out)).
		Msg("Stamped promotion batch")
	return out, batchID, nil
}

func (i *Interceptor) promote(ctx context.Context, rec records.Record, actor records.ActorContext, opts Options, batchID string) (records.Record, error) {
	if !rec.Kind.Valid() {
		return rec, errors.NewValidationError("kind", rec.Kind, "cannot promote a record without a known kind")
	}
	if actor.ActorID == "" {
		return rec, errors.NewValidationError("actorId", "", "promotion requires an actor")
	}

	now := i.now()
	out := rec.Clone()
	out.IsGlobal = true
	if opts.SourceType != "" {
		out.SourceType = opts.SourceType
	}

	meta := &records.GlobalMetadata{
		AddedBy:      actor.ActorID,
		AddedAt:      now,
		AutoPromoted: !opts.ForceGlobal,
		Context:      ContextAutoGlobal,
		Version:      rec.Version() + 1,
		IsDraft:      !opts.LiveMode,
		BatchID:      batchID,
	}
	if opts.ForceGlobal {
		meta.Context = ContextForceGlobal
	}
	if opts.LiveMode {
		published := now
		meta.PublishedAt = &published
	}
	out.GlobalMetadata = meta
	meta.QualityScore = QualityScore(&out)

	logging.Ctx(ctx).Debug().
		Str("record_id", out.ID).
		Str("context", meta.Context).
		Int("version", meta.Version).
		Int("quality", meta.QualityScore).
		Msg("Stamped record for promotion")
	return out, nil
}

// Commit records the promotion of rec after it has been stored. rec is the
// copy returned by Intercept or InterceptBatch for the same actor and opts;
// records those calls passed through are ignored.
func (i *Interceptor) Commit(ctx context.Context, rec records.Record, actor records.ActorContext, opts Options) {
	meta := rec.GlobalMetadata
	if !ShouldPromote(actor, opts) || meta == nil {
		return
	}
	ctx = logging.WithBatch(ctx, meta.BatchID)

	changes := map[string]any{
		"isGlobal":     true,
		"version":      meta.Version,
		"context":      meta.Context,
		"isDraft":      meta.IsDraft,
		"qualityScore": meta.QualityScore,
	}
	if meta.BatchID != "" {
		changes["batchId"] = meta.BatchID
	}
	i.audit.Record(ctx, records.AuditEntry{
		Action:      records.ActionPromote,
		EntityType:  rec.Kind,
		EntityID:    rec.ID,
		TenantID:    actor.TenantID,
		PerformedBy: actor.ActorID,
		Timestamp:   meta.AddedAt,
		Changes:     changes,
		IsLive:      opts.LiveMode,
	})
	i.metrics.ObservePromotion(opts.LiveMode)
	logging.Ctx(ctx).Info().
		Str("record_id", rec.ID).
		Str("context", meta.Context).
		Msg("Promoted record")
}

const batchAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewBatchID returns "batch_<unixmillis>_<9 random base36 chars>". The
// suffix is not cryptographically random; it only separates batches
// started within the same millisecond.
func NewBatchID(at time.Time) string {
	suffix := make([]byte, 9)
	for n := range suffix {
		suffix[n] = batchAlphabet[rand.IntN(len(batchAlphabet))]
	}
	return constants.BatchIDPrefix + "_" + strconv.FormatInt(at.UnixMilli(), 10) + "_" + string(suffix)
}
