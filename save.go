package recordlink

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/agentstation/recordlink/pkg/errors"
	"github.com/agentstation/recordlink/pkg/logging"
	"github.com/agentstation/recordlink/pkg/promotion"
	"github.com/agentstation/recordlink/pkg/records"
)

// Save stores a new record for the actor's tenant. Missing id, tenant,
// creator and timestamps are filled before the promotion decision runs. A
// record naming another tenant is rejected. A promotion is recorded only
// once the record is stored.
func (l *linker) Save(ctx context.Context, actor records.ActorContext, rec records.Record, opts promotion.Options) (records.Record, error) {
	ctx = logging.WithActor(logging.WithTenant(l.withLogger(ctx), actor.TenantID), actor.ActorID)
	rec, err := l.prepare(actor, rec)
	if err != nil {
		return records.Record{}, err
	}
	rec, err = l.interceptor.Intercept(ctx, rec, actor, opts)
	if err != nil {
		return records.Record{}, err
	}
	if _, err := l.records.Add(ctx, rec); err != nil {
		return records.Record{}, err
	}
	l.interceptor.Commit(ctx, rec, actor, opts)
	l.hooks.saved(rec)
	return rec, nil
}

// SaveBatch stores recs as one import. Promoted records share the returned
// batch id. Records are added in order and the first failure stops the batch;
// records added before it stay stored, and only they have their promotion
// recorded.
func (l *linker) SaveBatch(ctx context.Context, actor records.ActorContext, recs []records.Record, opts promotion.Options) ([]records.Record, string, error) {
	ctx = logging.WithActor(logging.WithTenant(l.withLogger(ctx), actor.TenantID), actor.ActorID)
	prepared := make([]records.Record, len(recs))
	for i, rec := range recs {
		p, err := l.prepare(actor, rec)
		if err != nil {
			return nil, "", fmt.Errorf("record %d: %w", i, err)
		}
		prepared[i] = p
	}
	out, batchID, err := l.interceptor.InterceptBatch(ctx, prepared, actor, opts)
	if err != nil {
		return nil, "", err
	}
	for i, rec := range out {
		if _, err := l.records.Add(ctx, rec); err != nil {
			return out[:i], batchID, fmt.Errorf("record %d: %w", i, err)
		}
		l.interceptor.Commit(ctx, rec, actor, opts)
		l.hooks.saved(rec)
	}
	logging.Ctx(ctx).Info().
		Int("records", len(out)).
		Str("batch_id", batchID).
		Msg("Saved batch")
	return out, batchID, nil
}

func (l *linker) prepare(actor records.ActorContext, rec records.Record) (records.Record, error) {
	if !rec.Kind.Valid() {
		return rec, errors.NewValidationError("kind", rec.Kind, "record kind must be contact, company or publication")
	}
	if actor.TenantID == "" {
		return rec, errors.NewValidationError("tenantId", "", "actor has no tenant")
	}
	if rec.TenantID != "" && rec.TenantID != actor.TenantID {
		return rec, errors.NewValidationError("tenantId", rec.TenantID,
			fmt.Sprintf("record belongs to tenant %s, not %s", rec.TenantID, actor.TenantID))
	}
	rec.TenantID = actor.TenantID
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedBy == "" {
		rec.CreatedBy = actor.ActorID
	}
	now := l.now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}
	return rec, nil
}
