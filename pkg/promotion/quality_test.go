package promotion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/recordlink/pkg/records"
)

func TestStrategyWeights(t *testing.T) {
	want := map[records.EntityKind]map[string]int{
		records.KindContact:     {"basic": 40, "professional": 40, "verification": 20},
		records.KindCompany:     {"basic": 40, "contact": 30, "profile": 30},
		records.KindPublication: {"basic": 40, "profile": 40, "contact": 20},
	}
	for kind, groups := range want {
		s, ok := StrategyFor(kind)
		require.True(t, ok, kind)
		total := 0
		for _, g := range s.Groups {
			assert.Equal(t, groups[g.Name], g.Weight(), "%s/%s", kind, g.Name)
			total += g.Weight()
		}
		assert.Equal(t, 100, total, kind)
	}
}

func TestQualityScore(t *testing.T) {
	tests := []struct {
		name string
		rec  records.Record
		want int
	}{
		{"unknown kind", records.Record{Name: "x"}, 0},
		{"empty contact", records.Record{Kind: records.KindContact}, 0},
		{"full contact", records.Record{
			Kind: records.KindContact, Name: "Anna", Emails: []string{"a@b.de"}, Phones: []string{"1"},
			Position: "Editor", CompanyID: "co", Beats: []string{"tech"}, PublicationIDs: []string{"p"},
			Verification: records.Verification{Email: true, Phone: true},
		}, 100},
		{"company basics", records.Record{
			Kind: records.KindCompany, Name: "Zeit", Website: "zeit.de", Address: "Hamburg",
		}, 40},
		{"publication", records.Record{
			Kind: records.KindPublication, Name: "Spiegel", Website: "spiegel.de", CompanyID: "co",
			SocialMedia: map[string]string{"x": "@spiegel"},
		}, 70},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QualityScore(&tt.rec))
		})
	}
}
