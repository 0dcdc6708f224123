// Package scanner finds and weighs candidate matches inside one tenant's
// own record set.
//
// Only records owned by the invoking tenant are ever scored or returned.
// Data from other tenants is consulted solely through Prevalence, which
// yields aggregate counts and never record contents.
package scanner

import (
	"context"
	"sort"
	"time"

	"github.com/agentstation/recordlink/pkg/constants"
	"github.com/agentstation/recordlink/pkg/logging"
	"github.com/agentstation/recordlink/pkg/records"
	"github.com/agentstation/recordlink/pkg/signals"
)

// Weights per signal occurrence.
var Weights = map[signals.Kind]float64{
	signals.EmailDomain: constants.EmailDomainWeight,
	signals.Website:     constants.WebsiteWeight,
	signals.CompanyID:   constants.CompanyIDWeight,
}

// MatchCandidate is one scored record from a scan.
type MatchCandidate struct {
	RecordID         string    `json:"recordId" yaml:"recordId"`
	WeightedScore    float64   `json:"weightedScore" yaml:"weightedScore"`
	TotalOccurrences int       `json:"totalOccurrences" yaml:"totalOccurrences"`
	CreatedAt        time.Time `json:"createdAt" yaml:"createdAt"`
}

// Result is the ranked output of one scan.
type Result struct {
	// Candidates ordered best first.
	Candidates []MatchCandidate `json:"candidates" yaml:"candidates"`

	// OwnedCount is how many records were eligible for scoring.
	OwnedCount int `json:"ownedCount" yaml:"ownedCount"`
}

// Best returns the top candidate.
func (r *Result) Best() (MatchCandidate, bool) {
	if r == nil || len(r.Candidates) == 0 {
		return MatchCandidate{}, false
	}
	return r.Candidates[0], true
}

// SoleCandidate reports whether exactly one candidate exists, so no
// alternative record could compete for the incoming data.
func (r *Result) SoleCandidate() bool {
	return r != nil && len(r.Candidates) == 1
}

// Source provides record sets to the scanner.
type Source interface {
	// ListByTenant returns every record owned by the tenant.
	ListByTenant(ctx context.Context, tenantID string) ([]records.Record, error)
	// All returns every record across tenants.
	All(ctx context.Context) ([]records.Record, error)
}

// Scanner ranks candidates within a tenant.
type Scanner struct {
	source Source
}

// New creates a Scanner over source.
func New(source Source) *Scanner {
	return &Scanner{source: source}
}

// Scan scores the tenant's records against sigs. When ownRecordIDs is nil
// every record the tenant owns is eligible; otherwise only the listed ones
// that the tenant also owns.
func (s *Scanner) Scan(ctx context.Context, sigs []signals.Signal, ownRecordIDs []string, tenantID string) (*Result, error) {
	for _, sig := range sigs {
		if err := signals.Validate(sig); err != nil {
			return nil, err
		}
	}
	if len(sigs) == 0 {
		return &Result{}, nil
	}

	owned, err := s.source.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	eligible := filterOwned(owned, ownRecordIDs, tenantID)

	result := ScanRecords(sigs, eligible)
	logging.Ctx(ctx).Debug().
		Str("tenant_id", tenantID).
		Int("signals", len(sigs)).
		Int("eligible", len(eligible)).
		Int("candidates", len(result.Candidates)).
		Msg("Scanned candidates")
	return result, nil
}

// ScanRecords scores recs against sigs without any I/O. The caller is
// responsible for passing only records the tenant owns.
func ScanRecords(sigs []signals.Signal, recs []records.Record) *Result {
	idx := NewSignalIndex(recs)
	tallies := make(map[string]*MatchCandidate)
	for _, sig := range sigs {
		w := Weights[sig.Kind]
		for _, id := range idx.Lookup(sig) {
			c, ok := tallies[id]
			if !ok {
				rec, _ := idx.Record(id)
				c = &MatchCandidate{RecordID: id, CreatedAt: rec.CreatedAt}
				tallies[id] = c
			}
			c.WeightedScore += w
			c.TotalOccurrences++
		}
	}

	out := make([]MatchCandidate, 0, len(tallies))
	for _, c := range tallies {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.WeightedScore != b.WeightedScore {
			return a.WeightedScore > b.WeightedScore
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.RecordID < b.RecordID
	})
	return &Result{Candidates: out, OwnedCount: idx.Len()}
}

func filterOwned(owned []records.Record, ownRecordIDs []string, tenantID string) []records.Record {
	var allow map[string]bool
	if ownRecordIDs != nil {
		allow = make(map[string]bool, len(ownRecordIDs))
		for _, id := range ownRecordIDs {
			allow[id] = true
		}
	}
	out := make([]records.Record, 0, len(owned))
	for _, rec := range owned {
		if rec.TenantID != tenantID {
			continue
		}
		if allow != nil && !allow[rec.ID] {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Prevalence counts how widely a signal is held across the whole store.
type Prevalence struct {
	Tenants int `json:"tenants" yaml:"tenants"`
	Records int `json:"records" yaml:"records"`
}

// Prevalence returns aggregate counts per distinct signal across all tenants.
// No record ids or contents leave this method.
func (s *Scanner) Prevalence(ctx context.Context, sigs []signals.Signal) (map[signals.Signal]Prevalence, error) {
	out := make(map[signals.Signal]Prevalence)
	if len(sigs) == 0 {
		return out, nil
	}
	all, err := s.source.All(ctx)
	if err != nil {
		return nil, err
	}
	idx := NewSignalIndex(all)
	for _, sig := range sigs {
		if _, done := out[sig]; done {
			continue
		}
		ids := idx.Lookup(sig)
		tenants := make(map[string]bool)
		for _, id := range ids {
			rec, _ := idx.Record(id)
			tenants[rec.TenantID] = true
		}
		out[sig] = Prevalence{Tenants: len(tenants), Records: len(ids)}
	}
	return out, nil
}
