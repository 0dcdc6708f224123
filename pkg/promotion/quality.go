package promotion

import (
	"strings"

	"github.com/agentstation/recordlink/pkg/constants"
	"github.com/agentstation/recordlink/pkg/records"
)

// Criterion awards Points when Has reports the field as present.
type Criterion struct {
	Field  string
	Points int
	Has    func(r *records.Record) bool
}

// Group is a weighted set of criteria.
type Group struct {
	Name     string
	Criteria []Criterion
}

// Weight is the maximum a group contributes.
func (g Group) Weight() int {
	w := 0
	for _, c := range g.Criteria {
		w += c.Points
	}
	return w
}

// Strategy scores the data quality of one entity kind.
type Strategy struct {
	Kind   records.EntityKind
	Groups []Group
}

// Score returns the quality score of r, from 0 to 100.
func (s Strategy) Score(r *records.Record) int {
	score := 0
	for _, g := range s.Groups {
		for _, c := range g.Criteria {
			if c.Has(r) {
				score += c.Points
			}
		}
	}
	return min(score, constants.MaxQualityScore)
}

var strategies = map[records.EntityKind]Strategy{
	records.KindContact: {
		Kind: records.KindContact,
		Groups: []Group{
			{Name: "basic", Criteria: []Criterion{
				{"name", 15, hasName},
				{"email", 15, hasEmail},
				{"phone", 10, hasPhone},
			}},
			{Name: "professional", Criteria: []Criterion{
				{"position", 10, func(r *records.Record) bool { return filled(r.Position) }},
				{"company", 10, hasCompany},
				{"beats", 10, func(r *records.Record) bool { return len(r.Beats) > 0 }},
				{"publications", 10, func(r *records.Record) bool { return len(r.PublicationIDs) > 0 }},
			}},
			{Name: "verification", Criteria: []Criterion{
				{"emailVerified", 10, func(r *records.Record) bool { return r.Verification.Email }},
				{"phoneVerified", 10, func(r *records.Record) bool { return r.Verification.Phone }},
			}},
		},
	},
	records.KindCompany: {
		Kind: records.KindCompany,
		Groups: []Group{
			{Name: "basic", Criteria: []Criterion{
				{"name", 15, hasName},
				{"website", 15, hasWebsite},
				{"address", 10, func(r *records.Record) bool { return filled(r.Address) }},
			}},
			{Name: "contact", Criteria: []Criterion{
				{"email", 10, hasEmail},
				{"phone", 10, hasPhone},
				{"social", 10, hasSocial},
			}},
			{Name: "profile", Criteria: []Criterion{
				{"officialName", 10, func(r *records.Record) bool { return filled(r.OfficialName) }},
				{"description", 10, hasDescription},
				{"logo", 10, func(r *records.Record) bool { return filled(r.Logo) }},
			}},
		},
	},
	records.KindPublication: {
		Kind: records.KindPublication,
		Groups: []Group{
			{Name: "basic", Criteria: []Criterion{
				{"name", 20, hasName},
				{"website", 20, hasWebsite},
			}},
			{Name: "profile", Criteria: []Criterion{
				{"company", 20, hasCompany},
				{"description", 10, hasDescription},
				{"mediaTypes", 10, func(r *records.Record) bool { return len(r.MediaTypes) > 0 }},
			}},
			{Name: "contact", Criteria: []Criterion{
				{"email", 10, hasEmail},
				{"social", 10, hasSocial},
			}},
		},
	},
}

// StrategyFor returns the quality strategy for kind.
func StrategyFor(kind records.EntityKind) (Strategy, bool) {
	s, ok := strategies[kind]
	return s, ok
}

// QualityScore scores r with the strategy of its kind. Unknown kinds score 0.
func QualityScore(r *records.Record) int {
	s, ok := StrategyFor(r.Kind)
	if !ok {
		return 0
	}
	return s.Score(r)
}

func filled(s string) bool { return strings.TrimSpace(s) != "" }

func hasName(r *records.Record) bool        { return filled(r.Name) }
func hasEmail(r *records.Record) bool       { return filled(r.PrimaryEmail()) }
func hasPhone(r *records.Record) bool       { return filled(r.PrimaryPhone()) }
func hasWebsite(r *records.Record) bool     { return filled(r.Website) }
func hasCompany(r *records.Record) bool     { return filled(r.CompanyID) }
func hasDescription(r *records.Record) bool { return filled(r.Description) }
func hasSocial(r *records.Record) bool      { return len(r.SocialMedia) > 0 }
