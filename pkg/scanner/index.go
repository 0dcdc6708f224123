package scanner

import (
	"sort"

	"github.com/agentstation/recordlink/pkg/records"
	"github.com/agentstation/recordlink/pkg/signals"
)

// SignalIndex maps signal keys to the records that carry them.
// It is built once per scan so that a multiset of signals can be tallied
// without rescanning the candidate set for every signal.
type SignalIndex struct {
	postings map[string][]string
	records  map[string]records.Record
}

// NewSignalIndex indexes recs. A record is posted under:
//   - emailDomain:<d> for each of its email domains and for its website,
//     so a variant's mail domain matches a company's site;
//   - website:<w> for its website;
//   - companyId:<c> for its CompanyID and, for companies, its own ID.
func NewSignalIndex(recs []records.Record) *SignalIndex {
	idx := &SignalIndex{
		postings: make(map[string][]string),
		records:  make(map[string]records.Record, len(recs)),
	}
	for _, rec := range recs {
		idx.records[rec.ID] = rec
		keys := make(map[string]bool)
		for _, s := range signals.Extract(rec) {
			keys[s.Key()] = true
			if s.Kind == signals.Website {
				keys[signals.Signal{Kind: signals.EmailDomain, Value: s.Value}.Key()] = true
			}
		}
		if rec.Kind == records.KindCompany && rec.ID != "" {
			keys[signals.Signal{Kind: signals.CompanyID, Value: rec.ID}.Key()] = true
		}
		for k := range keys {
			idx.postings[k] = append(idx.postings[k], rec.ID)
		}
	}
	for k := range idx.postings {
		sort.Strings(idx.postings[k])
	}
	return idx
}

// Lookup returns the ids of records carrying s.
func (idx *SignalIndex) Lookup(s signals.Signal) []string {
	return idx.postings[s.Key()]
}

// Record returns an indexed record.
func (idx *SignalIndex) Record(id string) (records.Record, bool) {
	rec, ok := idx.records[id]
	return rec, ok
}

// Len returns the number of indexed records.
func (idx *SignalIndex) Len() int {
	return len(idx.records)
}
