package enrich

import (
	"sort"
	"strings"

	"github.com/agentstation/recordlink/pkg/records"
	"github.com/agentstation/recordlink/pkg/signals"
)

// field describes one enrichable attribute.
type field struct {
	name   string // reported name, also the completeness checklist entry
	column string // document key written to the store
	// soleCandidate fields may be filled from a single variant when the
	// target was the only candidate of its scan.
	soleCandidate bool

	values  func(r *records.Record) []any // non-empty values in stored order
	key     func(v any) string            // equality key, "" for empty
	fill    func(r *records.Record, v any)
	replace func(r *records.Record, v any)
	stored  func(r *records.Record) any
}

// keyed is a field value with its equality key.
type keyed struct {
	key   string
	value any
}

// keyed returns the distinct non-empty values of f on r in stored order.
func (f field) keyed(r *records.Record) []keyed {
	var out []keyed
	seen := make(map[string]bool)
	for _, v := range f.values(r) {
		k := f.key(v)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, keyed{key: k, value: v})
	}
	return out
}

func stringField(name, column string, sole bool, key func(v any) string, ptr func(r *records.Record) *string) field {
	set := func(r *records.Record, v any) { *ptr(r) = v.(string) }
	return field{
		name:          name,
		column:        column,
		soleCandidate: sole,
		values: func(r *records.Record) []any {
			if s := strings.TrimSpace(*ptr(r)); s != "" {
				return []any{s}
			}
			return nil
		},
		key:     key,
		fill:    set,
		replace: set,
		stored:  func(r *records.Record) any { return strings.TrimSpace(*ptr(r)) },
	}
}

// listField enriches a multi-valued attribute. Every entry takes part in
// matching; an update replaces only the first non-empty entry.
func listField(name, column string, key func(v any) string, ptr func(r *records.Record) *[]string) field {
	return field{
		name:   name,
		column: column,
		values: func(r *records.Record) []any {
			var out []any
			for _, s := range *ptr(r) {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
			return out
		},
		key:  key,
		fill: func(r *records.Record, v any) { *ptr(r) = []string{v.(string)} },
		replace: func(r *records.Record, v any) {
			list := append([]string(nil), *ptr(r)...)
			for i, s := range list {
				if strings.TrimSpace(s) != "" {
					list[i] = v.(string)
					*ptr(r) = list
					return
				}
			}
			*ptr(r) = append(list, v.(string))
		},
		stored: func(r *records.Record) any { return *ptr(r) },
	}
}

var socialMediaField = field{
	name:   "socialMedia",
	column: "socialMedia",
	values: func(r *records.Record) []any {
		out := make(map[string]string, len(r.SocialMedia))
		for k, v := range r.SocialMedia {
			if v = strings.TrimSpace(v); v != "" {
				out[k] = v
			}
		}
		if len(out) == 0 {
			return nil
		}
		return []any{out}
	},
	key:     mapKey,
	fill:    setSocialMedia,
	replace: setSocialMedia,
	stored:  func(r *records.Record) any { return r.SocialMedia },
}

func setSocialMedia(r *records.Record, v any) { r.SocialMedia = v.(map[string]string) }

// fields in checklist order, minus name which is never enriched.
var fields = []field{
	stringField("officialName", "officialName", false, foldKey, func(r *records.Record) *string { return &r.OfficialName }),
	stringField("website", "website", true, websiteKey, func(r *records.Record) *string { return &r.Website }),
	listField("phone", "phones", foldKey, func(r *records.Record) *[]string { return &r.Phones }),
	stringField("address", "address", false, foldKey, func(r *records.Record) *string { return &r.Address }),
	listField("email", "emails", foldKey, func(r *records.Record) *[]string { return &r.Emails }),
	stringField("logo", "logo", true, foldKey, func(r *records.Record) *string { return &r.Logo }),
	socialMediaField,
	stringField("description", "description", false, foldKey, func(r *records.Record) *string { return &r.Description }),
}

// IsField reports whether name is an enrichable field.
func IsField(name string) bool {
	for _, f := range fields {
		if f.name == name {
			return true
		}
	}
	return false
}

// FieldNames lists the enrichable fields.
func FieldNames() []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.name
	}
	return out
}

// foldKey lower-cases and trims a string value.
func foldKey(v any) string {
	s, _ := v.(string)
	return strings.ToLower(strings.TrimSpace(s))
}

// websiteKey compares sites by host, so "https://www.spiegel.de/" equals
// "spiegel.de". Values that do not parse as a host fall back to foldKey.
func websiteKey(v any) string {
	s, _ := v.(string)
	if host := signals.NormalizeWebsite(s); host != "" {
		return host
	}
	return foldKey(v)
}

func mapKey(v any) string {
	m, _ := v.(map[string]string)
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(strings.ToLower(k))
		sb.WriteByte('=')
		sb.WriteString(strings.ToLower(m[k]))
		sb.WriteByte(';')
	}
	return sb.String()
}

// candidate is the majority value of a field across the variants.
type candidate struct {
	key   string
	value any
	count int // number of variants holding the value
}

// majority returns the value held by the most variants. A variant counts at
// most once per value, whichever position the value has in it. Ties go to the
// value seen first.
func majority(f field, variants []records.Record) (candidate, bool) {
	var order []string
	tally := make(map[string]*candidate)
	for i := range variants {
		for _, kv := range f.keyed(&variants[i]) {
			c, ok := tally[kv.key]
			if !ok {
				c = &candidate{key: kv.key, value: kv.value}
				tally[kv.key] = c
				order = append(order, kv.key)
			}
			c.count++
		}
	}
	var best *candidate
	for _, key := range order {
		if c := tally[key]; best == nil || c.count > best.count {
			best = c
		}
	}
	if best == nil {
		return candidate{}, false
	}
	return *best, true
}

// holds reports whether key is among vals.
func holds(vals []keyed, key string) bool {
	for _, kv := range vals {
		if kv.key == key {
			return true
		}
	}
	return false
}
