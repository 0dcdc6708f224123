// Package signals extracts normalized matching tokens from records.
//
// Extraction is pure: it performs no I/O and never fails. Malformed input
// (an email without a domain, an unparsable website) simply yields no signal.
package signals

import (
	"fmt"
	"strings"

	"golang.org/x/net/idna"

	"github.com/agentstation/recordlink/internal/matcher"
	"github.com/agentstation/recordlink/pkg/errors"
	"github.com/agentstation/recordlink/pkg/records"
)

// Kind is the type of a matching signal.
type Kind string

// Signal kinds.
const (
	EmailDomain Kind = "emailDomain"
	Website     Kind = "website"
	CompanyID   Kind = "companyId"
)

// Valid reports whether k is a known signal kind.
func (k Kind) Valid() bool {
	switch k {
	case EmailDomain, Website, CompanyID:
		return true
	}
	return false
}

// Signal is a normalized matching token derived from a record.
type Signal struct {
	Kind  Kind   `json:"kind" yaml:"kind"`
	Value string `json:"value" yaml:"value"`
}

// Key returns the index key "<kind>:<value>".
func (s Signal) Key() string {
	return string(s.Kind) + ":" + s.Value
}

// String implements fmt.Stringer.
func (s Signal) String() string {
	return s.Key()
}

// Validate returns a ValidationError for an unknown kind or an empty value.
func Validate(s Signal) error {
	if !s.Kind.Valid() {
		return errors.NewValidationError("kind", s.Kind, fmt.Sprintf("unknown signal kind %q", s.Kind))
	}
	if strings.TrimSpace(s.Value) == "" {
		return errors.NewValidationError("value", s.Value, "signal value is empty")
	}
	return nil
}

// Extractor extracts signals, optionally skipping ignored email domains.
type Extractor struct {
	ignored *matcher.Set
}

// Option configures an Extractor.
type Option func(*Extractor) error

// WithIgnoredDomains excludes email domains matching any glob or regex pattern.
func WithIgnoredDomains(patterns ...string) Option {
	return func(e *Extractor) error {
		set, err := matcher.NewSet(patterns...)
		if err != nil {
			return errors.WrapValidation("ignored domains", err)
		}
		e.ignored = set
		return nil
	}
}

// NewExtractor creates an Extractor.
func NewExtractor(opts ...Option) (*Extractor, error) {
	e := &Extractor{}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

var defaultExtractor = &Extractor{}

// Extract returns the signals of rec using no ignore list.
func Extract(rec records.Record) []Signal {
	return defaultExtractor.Extract(rec)
}

// Extract returns one emailDomain signal per unique domain in first-seen
// order, then at most one website signal, then at most one companyId signal.
func (e *Extractor) Extract(rec records.Record) []Signal {
	var out []Signal
	seen := make(map[string]bool)
	for _, email := range rec.Emails {
		domain := EmailDomainOf(email)
		if domain == "" || seen[domain] || e.ignored.Match(domain) {
			continue
		}
		seen[domain] = true
		out = append(out, Signal{Kind: EmailDomain, Value: domain})
	}
	if site := NormalizeWebsite(rec.Website); site != "" {
		out = append(out, Signal{Kind: Website, Value: site})
	}
	if id := strings.TrimSpace(rec.CompanyID); id != "" {
		out = append(out, Signal{Kind: CompanyID, Value: id})
	}
	return out
}

// ExtractAll concatenates the signals of every record. The result is a
// multiset: a domain shared by three variants appears three times.
func (e *Extractor) ExtractAll(recs []records.Record) []Signal {
	var out []Signal
	for _, rec := range recs {
		out = append(out, e.Extract(rec)...)
	}
	return out
}

// ExtractAll is Extractor.ExtractAll using no ignore list.
func ExtractAll(recs []records.Record) []Signal {
	return defaultExtractor.ExtractAll(recs)
}

// EmailDomainOf returns the normalized domain of an email address.
func EmailDomainOf(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return ""
	}
	return NormalizeDomain(email[at+1:])
}

// NormalizeDomain lower-cases a host name, converts it to its ASCII (punycode)
// form and trims a trailing dot. Invalid names yield "".
func NormalizeDomain(host string) string {
	host = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
	if host == "" {
		return ""
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return ""
	}
	return ascii
}

// NormalizeWebsite strips scheme, "www.", port, path, query and fragment,
// then normalizes the remaining host.
func NormalizeWebsite(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, "@"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[:i]
	}
	s = strings.ToLower(s)
	s = strings.TrimPrefix(s, "www.")
	return NormalizeDomain(s)
}
