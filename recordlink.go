// Package recordlink matches incoming contact, company and publication data
// against a tenant's records, enriches the best match, and manages the
// shared global catalog that tenants can subscribe to.
//
// A Linker ties the pieces together over one document store:
//
//	store := memory.New()
//	linker, err := recordlink.New(store)
//	if err != nil {
//		return err
//	}
//	analysis, err := linker.Analyze(ctx, actor, variants, nil)
package recordlink

import (
	"context"
	"fmt"
	"time"

	"github.com/agentstation/recordlink/pkg/audit"
	"github.com/agentstation/recordlink/pkg/enrich"
	"github.com/agentstation/recordlink/pkg/logging"
	"github.com/agentstation/recordlink/pkg/promotion"
	"github.com/agentstation/recordlink/pkg/records"
	"github.com/agentstation/recordlink/pkg/references"
	"github.com/agentstation/recordlink/pkg/scanner"
	"github.com/agentstation/recordlink/pkg/signals"
	"github.com/agentstation/recordlink/pkg/store"
)

// Linker is the entry point to matching, enrichment and the global catalog
type Linker interface {
	// Analyze matches variants against the actor's records and enriches the best candidate
	Analyze(ctx context.Context, actor records.ActorContext, variants []records.Record, ownRecordIDs []string) (*Analysis, error)

	// AnalyzeBatch analyzes independent rows on a bounded worker pool
	AnalyzeBatch(ctx context.Context, actor records.ActorContext, rows []Row) ([]RowResult, error)

	// Save stores a new record, promoting it when the actor or options say so
	Save(ctx context.Context, actor records.ActorContext, rec records.Record, opts promotion.Options) (records.Record, error)

	// SaveBatch stores records that share one promotion batch
	SaveBatch(ctx context.Context, actor records.ActorContext, recs []records.Record, opts promotion.Options) ([]records.Record, string, error)

	// Record loads a record by id
	Record(ctx context.Context, id string) (*records.Record, error)

	// Subscribe creates a reference from the actor's tenant to a global record
	Subscribe(ctx context.Context, actor records.ActorContext, globalRecordID, notes string) (*records.Reference, error)

	// Unsubscribe removes one of the actor's tenant references
	Unsubscribe(ctx context.Context, actor records.ActorContext, referenceID string) error

	// References lists a tenant's active references without resolving them
	References(ctx context.Context, tenantID string) ([]records.Reference, error)

	// Visible returns private records plus resolved references
	Visible(ctx context.Context, tenantID string) ([]references.Entry, error)

	// Suggest returns the tenant's records whose name folds to the same key
	Suggest(ctx context.Context, tenantID, name string) ([]records.Record, error)

	// AuditTrail lists promotion and reference audit entries
	AuditTrail(ctx context.Context, filter audit.Filter) ([]records.AuditEntry, error)

	// EnrichmentHistory lists the enrichment log of a record
	EnrichmentHistory(ctx context.Context, recordID string) ([]records.EnrichmentLog, error)

	// OnRecordSaved registers a callback for stored records
	OnRecordSaved(RecordSavedHook)

	// OnRecordEnriched registers a callback for enriched records
	OnRecordEnriched(RecordEnrichedHook)
}

// linker is the internal implementation of the Linker interface
type linker struct {
	config *config
	*hooks

	records     *store.Records
	logs        *store.EnrichmentLogs
	extractor   *signals.Extractor
	scanner     *scanner.Scanner
	engine      *enrich.Engine
	refs        *references.Manager
	interceptor *promotion.Interceptor
	audit       *audit.Log
}

var _ Linker = (*linker)(nil)

// New creates a Linker over s with the given options
func New(s store.Store, opts ...Option) (Linker, error) {
	if s == nil {
		return nil, fmt.Errorf("store is required")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("applying options: %w", err)
		}
	}

	extractor, err := signals.NewExtractor(signals.WithIgnoredDomains(cfg.ignoredDomains...))
	if err != nil {
		return nil, fmt.Errorf("building signal extractor: %w", err)
	}

	trail := audit.New(s, audit.WithMetrics(cfg.metrics), audit.WithClock(cfg.now))
	recs := store.NewRecords(s)
	logs := store.NewEnrichmentLogs(s)

	return &linker{
		config:    cfg,
		hooks:     newHooks(),
		records:   recs,
		logs:      logs,
		extractor: extractor,
		scanner:   scanner.New(recs),
		engine: enrich.New(recs, logs,
			enrich.WithConflictResolver(cfg.resolver),
			enrich.WithMetrics(cfg.metrics),
			enrich.WithClock(cfg.now)),
		refs: references.New(s, trail,
			references.WithMetrics(cfg.metrics),
			references.WithClock(cfg.now)),
		interceptor: promotion.New(trail,
			promotion.WithMetrics(cfg.metrics),
			promotion.WithClock(cfg.now)),
		audit: trail,
	}, nil
}

// withLogger attaches the configured logger unless the caller already did
func (l *linker) withLogger(ctx context.Context) context.Context {
	if l.config.logger != nil && logging.FromContext(ctx) == logging.Default() {
		ctx = logging.WithLogger(ctx, l.config.logger)
	}
	return ctx
}

func (l *linker) now() time.Time { return l.config.now() }

// Record loads a record by id
func (l *linker) Record(ctx context.Context, id string) (*records.Record, error) {
	return l.records.Get(l.withLogger(ctx), id)
}

// Subscribe creates a reference from the actor's tenant to a global record
func (l *linker) Subscribe(ctx context.Context, actor records.ActorContext, globalRecordID, notes string) (*records.Reference, error) {
	ctx = logging.WithActor(l.withLogger(ctx), actor.ActorID)
	return l.refs.Create(ctx, globalRecordID, actor.TenantID, actor.ActorID, notes)
}

// Unsubscribe removes one of the actor's tenant references
func (l *linker) Unsubscribe(ctx context.Context, actor records.ActorContext, referenceID string) error {
	ctx = logging.WithActor(l.withLogger(ctx), actor.ActorID)
	return l.refs.Delete(ctx, actor.TenantID, referenceID, actor.ActorID)
}

// References lists a tenant's active references without resolving them
func (l *linker) References(ctx context.Context, tenantID string) ([]records.Reference, error) {
	return l.refs.List(l.withLogger(ctx), tenantID, true)
}

// Visible returns private records plus resolved references
func (l *linker) Visible(ctx context.Context, tenantID string) ([]references.Entry, error) {
	return l.refs.Visible(l.withLogger(ctx), tenantID)
}

// Suggest returns the tenant's records whose name or official name folds to
// the same key as name. Names are too ambiguous to score, so suggestions are
// only ever shown to a person.
func (l *linker) Suggest(ctx context.Context, tenantID, name string) ([]records.Record, error) {
	key := signals.NameKey(name)
	if key == "" {
		return nil, nil
	}
	owned, err := l.records.ListByTenant(l.withLogger(ctx), tenantID)
	if err != nil {
		return nil, err
	}
	var out []records.Record
	for _, rec := range owned {
		if signals.NameKey(rec.Name) == key || signals.NameKey(rec.OfficialName) == key {
			out = append(out, rec)
		}
	}
	return out, nil
}

// AuditTrail lists promotion and reference audit entries
func (l *linker) AuditTrail(ctx context.Context, filter audit.Filter) ([]records.AuditEntry, error) {
	return l.audit.List(l.withLogger(ctx), filter)
}

// EnrichmentHistory lists the enrichment log of a record
func (l *linker) EnrichmentHistory(ctx context.Context, recordID string) ([]records.EnrichmentLog, error) {
	return l.logs.List(l.withLogger(ctx), recordID)
}
