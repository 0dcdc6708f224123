package signals_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/recordlink/pkg/errors"
	"github.com/agentstation/recordlink/pkg/records"
	"github.com/agentstation/recordlink/pkg/signals"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		rec  records.Record
		want []signals.Signal
	}{
		{
			name: "empty record",
			rec:  records.Record{},
			want: nil,
		},
		{
			name: "one signal per unique domain",
			rec: records.Record{Emails: []string{
				"anna@Spiegel.de", "redaktion@spiegel.de", "a@zeit.de",
			}},
			want: []signals.Signal{
				{Kind: signals.EmailDomain, Value: "spiegel.de"},
				{Kind: signals.EmailDomain, Value: "zeit.de"},
			},
		},
		{
			name: "malformed emails are skipped",
			rec:  records.Record{Emails: []string{"nobody", "@spiegel.de", "x@", ""}},
			want: nil,
		},
		{
			name: "website normalized",
			rec:  records.Record{Website: "HTTPS://www.Spiegel.de/politik?x=1"},
			want: []signals.Signal{{Kind: signals.Website, Value: "spiegel.de"}},
		},
		{
			name: "all kinds in order",
			rec: records.Record{
				Emails:    []string{"a@spiegel.de"},
				Website:   "spiegel.de",
				CompanyID: "co-1",
			},
			want: []signals.Signal{
				{Kind: signals.EmailDomain, Value: "spiegel.de"},
				{Kind: signals.Website, Value: "spiegel.de"},
				{Kind: signals.CompanyID, Value: "co-1"},
			},
		},
		{
			name: "idna domain",
			rec:  records.Record{Emails: []string{"info@München.de"}},
			want: []signals.Signal{{Kind: signals.EmailDomain, Value: "xn--mnchen-3ya.de"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := signals.Extract(tt.rec)
			assert.Equal(t, tt.want, got)
			// pure: same input, same output
			assert.Equal(t, got, signals.Extract(tt.rec))
		})
	}
}

func TestExtractAllIsMultiset(t *testing.T) {
	variants := []records.Record{
		{Emails: []string{"a@spiegel.de"}},
		{Emails: []string{"b@spiegel.de"}},
		{Emails: []string{"c@spiegel.de"}, CompanyID: "co-1"},
	}
	got := signals.ExtractAll(variants)
	require.Len(t, got, 4)
	assert.Equal(t, 3, count(got, signals.Signal{Kind: signals.EmailDomain, Value: "spiegel.de"}))
}

func TestExtractorIgnoredDomains(t *testing.T) {
	e, err := signals.NewExtractor(signals.WithIgnoredDomains("gmail.com", `(web|gmx)\.de`))
	require.NoError(t, err)

	got := e.Extract(records.Record{Emails: []string{"a@gmail.com", "b@gmx.de", "c@spiegel.de"}})
	assert.Equal(t, []signals.Signal{{Kind: signals.EmailDomain, Value: "spiegel.de"}}, got)

	_, err = signals.NewExtractor(signals.WithIgnoredDomains("["))
	assert.True(t, errors.IsValidationError(err))
}

func TestNormalizeWebsite(t *testing.T) {
	tests := map[string]string{
		"":                               "",
		"spiegel.de":                     "spiegel.de",
		"http://www.spiegel.de":          "spiegel.de",
		"https://spiegel.de:8443/a/b":    "spiegel.de",
		"www.Zeit.DE.":                   "zeit.de",
		"https://user@www.faz.net#top":   "faz.net",
		"   https://www.sz.de/?page=2   ": "sz.de",
	}
	for in, want := range tests {
		assert.Equal(t, want, signals.NormalizeWebsite(in), in)
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, signals.Validate(signals.Signal{Kind: signals.Website, Value: "spiegel.de"}))
	assert.True(t, errors.IsValidationError(signals.Validate(signals.Signal{Kind: "name", Value: "x"})))
	assert.True(t, errors.IsValidationError(signals.Validate(signals.Signal{Kind: signals.CompanyID, Value: " "})))
}

func TestNameKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Jürgen Müller", "jurgen muller"},
		{"  JÜRGEN   müller ", "jurgen muller"},
		{"Anne-Sophie Ménard", "anne sophie menard"},
		{"Der Spiegel GmbH.", "der spiegel gmbh"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, signals.NameKey(tt.in))
		})
	}
}

func TestSignalKey(t *testing.T) {
	s := signals.Signal{Kind: signals.CompanyID, Value: "co-1"}
	assert.Equal(t, "companyId:co-1", s.Key())
	assert.Equal(t, s.Key(), s.String())
}

func count(sigs []signals.Signal, want signals.Signal) int {
	n := 0
	for _, s := range sigs {
		if s == want {
			n++
		}
	}
	return n
}
