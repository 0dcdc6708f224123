// Package audit provides the append-only trail for promotions and reference
// mutations. Entries can be appended and listed; nothing can be changed or
// removed through this package.
package audit

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/recordlink/pkg/constants"
	"github.com/agentstation/recordlink/pkg/errors"
	"github.com/agentstation/recordlink/pkg/logging"
	"github.com/agentstation/recordlink/pkg/metrics"
	"github.com/agentstation/recordlink/pkg/records"
	"github.com/agentstation/recordlink/pkg/store"
)

// Recorder writes audit entries without ever failing the caller.
type Recorder interface {
	Record(ctx context.Context, entry records.AuditEntry)
}

// Log is the append-only audit trail.
type Log struct {
	entries *store.AuditEntries
	metrics *metrics.Metrics
	now     func() time.Time
}

var _ Recorder = (*Log)(nil)

// Option configures a Log.
type Option func(*Log)

// WithMetrics counts swallowed write failures.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Log) { l.metrics = m }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// New creates a Log persisting to s.
func New(s store.Store, opts ...Option) *Log {
	l := &Log{
		entries: store.NewAuditEntries(s),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append writes one entry synchronously. Missing ID and Timestamp are filled.
// A failure is returned as an AuditWriteError.
func (l *Log) Append(ctx context.Context, entry records.AuditEntry) (records.AuditEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now()
	}
	if _, err := l.entries.Append(ctx, entry); err != nil {
		return entry, errors.NewAuditWriteError(constants.CollectionAuditLog, entry.Action, entry.EntityID, err)
	}
	return entry, nil
}

// Record appends entry and logs instead of returning a failure. The trail is
// advisory; a lost entry never rolls back the mutation it describes.
func (l *Log) Record(ctx context.Context, entry records.AuditEntry) {
	if _, err := l.Append(ctx, entry); err != nil {
		l.metrics.ObserveAuditFailure(constants.CollectionAuditLog)
		logging.Ctx(ctx).Warn().
			Err(err).
			Str("action", entry.Action).
			Str("entity_id", entry.EntityID).
			Msg("Audit entry lost")
	}
}

// Filter selects audit entries. Empty fields match everything.
type Filter struct {
	TenantID    string
	EntityID    string
	Action      string
	PerformedBy string
}

// List returns matching entries oldest first.
func (l *Log) List(ctx context.Context, f Filter) ([]records.AuditEntry, error) {
	var filters []store.Filter
	if f.TenantID != "" {
		filters = append(filters, store.Eq("tenantId", f.TenantID))
	}
	if f.EntityID != "" {
		filters = append(filters, store.Eq("entityId", f.EntityID))
	}
	if f.Action != "" {
		filters = append(filters, store.Eq("action", f.Action))
	}
	if f.PerformedBy != "" {
		filters = append(filters, store.Eq("performedBy", f.PerformedBy))
	}
	entries, err := l.entries.List(ctx, filters...)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries, nil
}
