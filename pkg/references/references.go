// Package references lets a tenant subscribe to global catalog records
// instead of copying them.
//
// A Reference is only a pointer plus tenant-local notes and tags. Names,
// emails and phones are never copied into it; they are joined from the
// global record every time the reference is read, so an edit to a global
// record is visible to every subscriber immediately.
package references

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/recordlink/pkg/audit"
	"github.com/agentstation/recordlink/pkg/constants"
	"github.com/agentstation/recordlink/pkg/errors"
	"github.com/agentstation/recordlink/pkg/logging"
	"github.com/agentstation/recordlink/pkg/metrics"
	"github.com/agentstation/recordlink/pkg/records"
	"github.com/agentstation/recordlink/pkg/store"
)

// Entry is one item of a tenant's visible set. Reference is nil for the
// tenant's own private records.
type Entry struct {
	Record    records.Record     `json:"record" yaml:"record"`
	Reference *records.Reference `json:"reference,omitempty" yaml:"reference,omitempty"`
}

// Subscribed reports whether the entry comes from the global catalog.
func (e Entry) Subscribed() bool { return e.Reference != nil }

// Manager creates, removes and resolves references.
type Manager struct {
	records *store.Records
	refs    *store.References
	audit   audit.Recorder
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithMetrics enables instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(mgr *Manager) { mgr.metrics = m }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(mgr *Manager) { mgr.now = now }
}

// New creates a Manager over s that records every mutation on trail.
func New(s store.Store, trail audit.Recorder, opts ...Option) *Manager {
	m := &Manager{
		records: store.NewRecords(s),
		refs:    store.NewReferences(s),
		audit:   trail,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create subscribes tenantID to a global record.
//
// It fails with NotFoundError when the record does not exist, NotGlobalError
// when it is not in the global catalog, and AlreadyExistsError when the
// tenant already holds an active reference to it.
//
// A contact reference also subscribes the tenant to the contact's company and
// publications. Active references the tenant already holds are reused, and
// related records that are missing or not global are skipped.
func (m *Manager) Create(ctx context.Context, globalRecordID, tenantID, actorID, notes string) (*records.Reference, error) {
	if strings.TrimSpace(globalRecordID) == "" {
		return nil, errors.NewValidationError("globalRecordId", globalRecordID, "global record id is required")
	}
	if strings.TrimSpace(tenantID) == "" {
		return nil, errors.NewValidationError("tenantId", tenantID, "tenant id is required")
	}
	ctx = logging.WithTenant(ctx, tenantID)

	global, err := m.records.Get(ctx, globalRecordID)
	if err != nil {
		return nil, err
	}
	if !global.IsGlobal {
		return nil, errors.NewNotGlobalError(globalRecordID)
	}
	existing, err := m.refs.FindActive(ctx, tenantID, globalRecordID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, errors.NewAlreadyExistsError("reference", existing[0].ID,
			fmt.Sprintf("tenant %s already references %s", tenantID, globalRecordID))
	}

	ref := m.newReference(global, tenantID, actorID)
	ref.LocalNotes = notes

	var created []records.Reference
	if global.Kind == records.KindContact {
		created, err = m.linkRelated(ctx, &ref, global, actorID)
		if err != nil {
			m.release(ctx, created, actorID, ref.ID)
			return nil, err
		}
	}
	if err := m.add(ctx, ref, ""); err != nil {
		m.release(ctx, created, actorID, ref.ID)
		return nil, err
	}
	return &ref, nil
}

// linkRelated points ref at the tenant's references to the contact's company
// and publications, creating those that do not exist yet. It returns the
// references it created.
func (m *Manager) linkRelated(ctx context.Context, ref *records.Reference, contact *records.Record, actorID string) ([]records.Reference, error) {
	var created []records.Reference
	if contact.CompanyID != "" {
		dep, isNew, err := m.ensure(ctx, contact.CompanyID, ref.TenantID, actorID, ref.ID)
		if err != nil {
			return created, err
		}
		if isNew {
			created = append(created, *dep)
		}
		if dep != nil {
			ref.CompanyReferenceID = dep.ID
		}
	}

	pubIDs := contact.PublicationIDs
	if len(pubIDs) == 0 && contact.CompanyID != "" {
		pubs, err := m.records.ListGlobalPublications(ctx, contact.CompanyID)
		if err != nil {
			return created, err
		}
		for _, p := range pubs {
			pubIDs = append(pubIDs, p.ID)
		}
	}
	for _, id := range pubIDs {
		dep, isNew, err := m.ensure(ctx, id, ref.TenantID, actorID, ref.ID)
		if err != nil {
			return created, err
		}
		if isNew {
			created = append(created, *dep)
		}
		if dep != nil && !slices.Contains(ref.PublicationReferenceIDs, dep.ID) {
			ref.PublicationReferenceIDs = append(ref.PublicationReferenceIDs, dep.ID)
		}
	}
	return created, nil
}

// ensure returns the tenant's active reference to globalID, creating it when
// absent. A nil reference means the record is missing or not global.
func (m *Manager) ensure(ctx context.Context, globalID, tenantID, actorID, parentID string) (*records.Reference, bool, error) {
	existing, err := m.refs.FindActive(ctx, tenantID, globalID)
	if err != nil {
		return nil, false, err
	}
	if len(existing) > 0 {
		return &existing[0], false, nil
	}
	rec, err := m.records.Get(ctx, globalID)
	if err != nil && !errors.IsNotFound(err) {
		return nil, false, err
	}
	if rec == nil || !rec.IsGlobal {
		logging.Ctx(ctx).Debug().
			Str("global_id", globalID).
			Msg("Related record is not in the global catalog")
		return nil, false, nil
	}
	dep := m.newReference(rec, tenantID, actorID)
	if err := m.add(ctx, dep, parentID); err != nil {
		return nil, false, err
	}
	return &dep, true, nil
}

func (m *Manager) newReference(global *records.Record, tenantID, actorID string) records.Reference {
	return records.Reference{
		ID:        uuid.NewString(),
		LocalID:   LocalID(global.Kind),
		GlobalID:  global.ID,
		TenantID:  tenantID,
		Kind:      global.Kind,
		IsActive:  true,
		CreatedBy: actorID,
		CreatedAt: m.now(),
	}
}

// add stores ref and records it. parentID names the contact reference that
// caused a related reference to be created.
func (m *Manager) add(ctx context.Context, ref records.Reference, parentID string) error {
	if _, err := m.refs.Add(ctx, ref); err != nil {
		return err
	}
	changes := map[string]any{"globalId": ref.GlobalID, "localId": ref.LocalID}
	if parentID != "" {
		changes["dependencyOf"] = parentID
	}
	m.audit.Record(ctx, records.AuditEntry{
		Action:      records.ActionReferenceCreate,
		EntityType:  ref.Kind,
		EntityID:    ref.ID,
		TenantID:    ref.TenantID,
		PerformedBy: ref.CreatedBy,
		Timestamp:   ref.CreatedAt,
		Changes:     changes,
	})
	m.metrics.ObserveReferenceOp("create")
	logging.Ctx(ctx).Info().
		Str("reference_id", ref.ID).
		Str("global_id", ref.GlobalID).
		Msg("Created reference")
	return nil
}

// release deactivates related references created for a contact reference
// that could not be stored.
func (m *Manager) release(ctx context.Context, created []records.Reference, actorID, parentID string) {
	for _, ref := range created {
		if err := m.deactivate(ctx, ref, actorID, parentID); err != nil {
			logging.Ctx(ctx).Warn().Err(err).
				Str("reference_id", ref.ID).
				Msg("Could not release related reference")
		}
	}
}

// Delete deactivates the tenant's reference. The global record is untouched
// and the reference stays stored with IsActive false and RemovedAt set.
// Company and publication references created with a contact reference are
// deactivated too once no other active reference depends on them.
//
// A reference owned by another tenant, or one already removed, is reported
// as not found.
func (m *Manager) Delete(ctx context.Context, tenantID, referenceID, actorID string) error {
	ctx = logging.WithTenant(ctx, tenantID)
	ref, err := m.refs.Get(ctx, referenceID)
	if err != nil {
		return err
	}
	if ref.TenantID != tenantID || !ref.IsActive {
		return errors.NewNotFoundError("reference", referenceID)
	}
	if err := m.deactivate(ctx, *ref, actorID, ""); err != nil {
		return err
	}
	if ref.CompanyReferenceID == "" && len(ref.PublicationReferenceIDs) == 0 {
		return nil
	}

	active, err := m.refs.ListByTenant(ctx, tenantID, true)
	if err != nil {
		return err
	}
	deps := append([]string{ref.CompanyReferenceID}, ref.PublicationReferenceIDs...)
	for _, id := range deps {
		dep, ok := findReference(active, id)
		if !ok || stillUsed(active, id) {
			continue
		}
		if err := m.deactivate(ctx, dep, actorID, ref.ID); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) deactivate(ctx context.Context, ref records.Reference, actorID, parentID string) error {
	now := m.now()
	if err := m.refs.Update(ctx, ref.ID, map[string]any{"isActive": false, "removedAt": now}); err != nil {
		return err
	}
	changes := map[string]any{"globalId": ref.GlobalID, "localId": ref.LocalID}
	if parentID != "" {
		changes["dependencyOf"] = parentID
	}
	m.audit.Record(ctx, records.AuditEntry{
		Action:      records.ActionReferenceDelete,
		EntityType:  ref.Kind,
		EntityID:    ref.ID,
		TenantID:    ref.TenantID,
		PerformedBy: actorID,
		Timestamp:   now,
		Changes:     changes,
	})
	m.metrics.ObserveReferenceOp("delete")
	logging.Ctx(ctx).Info().Str("reference_id", ref.ID).Msg("Removed reference")
	return nil
}

func findReference(refs []records.Reference, id string) (records.Reference, bool) {
	for _, r := range refs {
		if r.ID == id {
			return r, true
		}
	}
	return records.Reference{}, false
}

// stillUsed reports whether another active reference depends on id.
func stillUsed(active []records.Reference, id string) bool {
	for i := range active {
		if active[i].ID != id && active[i].DependsOn(id) {
			return true
		}
	}
	return false
}

// Resolve joins one reference, by its local id, with its global record.
func (m *Manager) Resolve(ctx context.Context, tenantID, localID string) (*Entry, error) {
	ref, err := m.refs.FindByLocalID(ctx, tenantID, localID)
	if err != nil {
		return nil, err
	}
	if !ref.IsActive {
		return nil, errors.NewNotFoundError("reference", localID)
	}
	rec, err := m.resolve(ctx, *ref)
	if err != nil {
		return nil, err
	}
	return &Entry{Record: *rec, Reference: ref}, nil
}

// List returns the tenant's references without resolving them.
func (m *Manager) List(ctx context.Context, tenantID string, activeOnly bool) ([]records.Reference, error) {
	return m.refs.ListByTenant(ctx, tenantID, activeOnly)
}

// Visible returns the tenant's private records followed by its active
// references joined with the current global records. References whose
// target has been deleted or withdrawn from the catalog are skipped.
func (m *Manager) Visible(ctx context.Context, tenantID string) ([]Entry, error) {
	ctx = logging.WithTenant(ctx, tenantID)
	private, err := m.records.ListPrivate(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	refs, err := m.refs.ListByTenant(ctx, tenantID, true)
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(private)+len(refs))
	for _, rec := range private {
		out = append(out, Entry{Record: rec})
	}
	for i := range refs {
		ref := refs[i]
		rec, err := m.resolve(ctx, ref)
		if err != nil {
			if errors.IsNotFound(err) {
				logging.Ctx(ctx).Warn().
					Str("reference_id", ref.ID).
					Str("global_id", ref.GlobalID).
					Msg("Skipping dangling reference")
				continue
			}
			return nil, err
		}
		out = append(out, Entry{Record: *rec, Reference: &ref})
	}
	return out, nil
}

// resolve loads the global record behind ref. A record that is gone or no
// longer global is reported as not found.
func (m *Manager) resolve(ctx context.Context, ref records.Reference) (*records.Record, error) {
	rec, err := m.records.Get(ctx, ref.GlobalID)
	if err != nil {
		return nil, err
	}
	if !rec.IsGlobal {
		return nil, errors.NewNotFoundError("global record", ref.GlobalID)
	}
	return rec, nil
}

// LocalID generates a tenant-local reference id such as
// "local-ref-company-3f2a...".
func LocalID(kind records.EntityKind) string {
	return fmt.Sprintf("%s-%s-%s", constants.LocalReferencePrefix, kind, uuid.NewString())
}
