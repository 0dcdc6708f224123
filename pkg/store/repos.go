package store

import (
	"context"

	"github.com/agentstation/recordlink/pkg/constants"
	"github.com/agentstation/recordlink/pkg/errors"
	"github.com/agentstation/recordlink/pkg/records"
)

// Records is a typed view over the records collection.
type Records struct {
	s Store
}

// NewRecords wraps s.
func NewRecords(s Store) *Records {
	return &Records{s: s}
}

// Get loads one record.
func (r *Records) Get(ctx context.Context, id string) (*records.Record, error) {
	doc, err := r.s.Get(ctx, constants.CollectionRecords, id)
	if err != nil {
		return nil, errors.WrapStore("get", constants.CollectionRecords, id, err)
	}
	var rec records.Record
	if err := Decode(doc, &rec); err != nil {
		return nil, errors.NewStoreIOError("get", constants.CollectionRecords, id, err)
	}
	return &rec, nil
}

// Add inserts a record and returns its id.
func (r *Records) Add(ctx context.Context, rec records.Record) (string, error) {
	doc, err := Encode(rec)
	if err != nil {
		return "", errors.WrapValidation("record", err)
	}
	id, err := r.s.Add(ctx, constants.CollectionRecords, doc)
	if err != nil {
		if errors.IsAlreadyExists(err) {
			return "", err
		}
		return "", errors.WrapStore("add", constants.CollectionRecords, rec.ID, err)
	}
	return id, nil
}

// Update merges fields into a record.
func (r *Records) Update(ctx context.Context, id string, fields map[string]any) error {
	if err := r.s.Update(ctx, constants.CollectionRecords, id, fields); err != nil {
		return errors.WrapStore("update", constants.CollectionRecords, id, err)
	}
	return nil
}

// ListByTenant returns every record owned by the tenant, private or promoted.
func (r *Records) ListByTenant(ctx context.Context, tenantID string) ([]records.Record, error) {
	return r.query(ctx, Eq("tenantId", tenantID))
}

// ListPrivate returns the tenant's records that are not in the global catalog.
func (r *Records) ListPrivate(ctx context.Context, tenantID string) ([]records.Record, error) {
	return r.query(ctx, Eq("tenantId", tenantID), Eq("isGlobal", false))
}

// ListGlobal returns the global catalog.
func (r *Records) ListGlobal(ctx context.Context) ([]records.Record, error) {
	return r.query(ctx, Eq("isGlobal", true))
}

// ListGlobalPublications returns the global publications of a company.
func (r *Records) ListGlobalPublications(ctx context.Context, companyID string) ([]records.Record, error) {
	return r.query(ctx,
		Eq("isGlobal", true),
		Eq("kind", string(records.KindPublication)),
		Eq("companyId", companyID))
}

// All returns every record in the store.
func (r *Records) All(ctx context.Context) ([]records.Record, error) {
	return r.query(ctx)
}

func (r *Records) query(ctx context.Context, filters ...Filter) ([]records.Record, error) {
	docs, err := r.s.Query(ctx, constants.CollectionRecords, filters...)
	if err != nil {
		return nil, errors.WrapStore("query", constants.CollectionRecords, "", err)
	}
	out := make([]records.Record, 0, len(docs))
	for _, doc := range docs {
		var rec records.Record
		if err := Decode(doc, &rec); err != nil {
			return nil, errors.NewStoreIOError("query", constants.CollectionRecords, doc.ID(), err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// References is a typed view over the references collection.
type References struct {
	s Store
}

// NewReferences wraps s.
func NewReferences(s Store) *References {
	return &References{s: s}
}

// Get loads one reference.
func (r *References) Get(ctx context.Context, id string) (*records.Reference, error) {
	doc, err := r.s.Get(ctx, constants.CollectionReferences, id)
	if err != nil {
		return nil, errors.WrapStore("get", constants.CollectionReferences, id, err)
	}
	var ref records.Reference
	if err := Decode(doc, &ref); err != nil {
		return nil, errors.NewStoreIOError("get", constants.CollectionReferences, id, err)
	}
	return &ref, nil
}

// Add inserts a reference and returns its id.
func (r *References) Add(ctx context.Context, ref records.Reference) (string, error) {
	doc, err := Encode(ref)
	if err != nil {
		return "", errors.WrapValidation("reference", err)
	}
	id, err := r.s.Add(ctx, constants.CollectionReferences, doc)
	if err != nil {
		return "", errors.WrapStore("add", constants.CollectionReferences, ref.ID, err)
	}
	return id, nil
}

// Update merges fields into a reference.
func (r *References) Update(ctx context.Context, id string, fields map[string]any) error {
	if err := r.s.Update(ctx, constants.CollectionReferences, id, fields); err != nil {
		return errors.WrapStore("update", constants.CollectionReferences, id, err)
	}
	return nil
}

// ListByTenant returns the tenant's references, optionally only active ones.
func (r *References) ListByTenant(ctx context.Context, tenantID string, activeOnly bool) ([]records.Reference, error) {
	filters := []Filter{Eq("tenantId", tenantID)}
	if activeOnly {
		filters = append(filters, Eq("isActive", true))
	}
	return r.query(ctx, filters...)
}

// FindByLocalID returns the tenant's reference with the given local id.
func (r *References) FindByLocalID(ctx context.Context, tenantID, localID string) (*records.Reference, error) {
	refs, err := r.query(ctx, Eq("tenantId", tenantID), Eq("localId", localID))
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, errors.NewNotFoundError("reference", localID)
	}
	return &refs[0], nil
}

// FindActive returns the tenant's active references to a global record.
func (r *References) FindActive(ctx context.Context, tenantID, globalID string) ([]records.Reference, error) {
	return r.query(ctx, Eq("tenantId", tenantID), Eq("globalId", globalID), Eq("isActive", true))
}

func (r *References) query(ctx context.Context, filters ...Filter) ([]records.Reference, error) {
	docs, err := r.s.Query(ctx, constants.CollectionReferences, filters...)
	if err != nil {
		return nil, errors.WrapStore("query", constants.CollectionReferences, "", err)
	}
	out := make([]records.Reference, 0, len(docs))
	for _, doc := range docs {
		var ref records.Reference
		if err := Decode(doc, &ref); err != nil {
			return nil, errors.NewStoreIOError("query", constants.CollectionReferences, doc.ID(), err)
		}
		out = append(out, ref)
	}
	return out, nil
}

// AuditEntries is an append-only view over the audit log collection.
type AuditEntries struct {
	s Store
}

// NewAuditEntries wraps s.
func NewAuditEntries(s Store) *AuditEntries {
	return &AuditEntries{s: s}
}

// Append writes one entry.
func (a *AuditEntries) Append(ctx context.Context, entry records.AuditEntry) (string, error) {
	doc, err := Encode(entry)
	if err != nil {
		return "", errors.WrapValidation("audit entry", err)
	}
	id, err := a.s.Add(ctx, constants.CollectionAuditLog, doc)
	if err != nil {
		return "", errors.WrapStore("add", constants.CollectionAuditLog, entry.ID, err)
	}
	return id, nil
}

// List returns entries matching filters.
func (a *AuditEntries) List(ctx context.Context, filters ...Filter) ([]records.AuditEntry, error) {
	docs, err := a.s.Query(ctx, constants.CollectionAuditLog, filters...)
	if err != nil {
		return nil, errors.WrapStore("query", constants.CollectionAuditLog, "", err)
	}
	out := make([]records.AuditEntry, 0, len(docs))
	for _, doc := range docs {
		var e records.AuditEntry
		if err := Decode(doc, &e); err != nil {
			return nil, errors.NewStoreIOError("query", constants.CollectionAuditLog, doc.ID(), err)
		}
		out = append(out, e)
	}
	return out, nil
}

// EnrichmentLogs is an append-only view over the enrichment log collection.
type EnrichmentLogs struct {
	s Store
}

// NewEnrichmentLogs wraps s.
func NewEnrichmentLogs(s Store) *EnrichmentLogs {
	return &EnrichmentLogs{s: s}
}

// Append writes one entry.
func (l *EnrichmentLogs) Append(ctx context.Context, entry records.EnrichmentLog) (string, error) {
	doc, err := Encode(entry)
	if err != nil {
		return "", errors.WrapValidation("enrichment log", err)
	}
	id, err := l.s.Add(ctx, constants.CollectionEnrichmentLogs, doc)
	if err != nil {
		return "", errors.WrapStore("add", constants.CollectionEnrichmentLogs, entry.ID, err)
	}
	return id, nil
}

// List returns the enrichment history of one record.
func (l *EnrichmentLogs) List(ctx context.Context, entityID string) ([]records.EnrichmentLog, error) {
	docs, err := l.s.Query(ctx, constants.CollectionEnrichmentLogs, Eq("entityId", entityID))
	if err != nil {
		return nil, errors.WrapStore("query", constants.CollectionEnrichmentLogs, "", err)
	}
	out := make([]records.EnrichmentLog, 0, len(docs))
	for _, doc := range docs {
		var e records.EnrichmentLog
		if err := Decode(doc, &e); err != nil {
			return nil, errors.NewStoreIOError("query", constants.CollectionEnrichmentLogs, doc.ID(), err)
		}
		out = append(out, e)
	}
	return out, nil
}
