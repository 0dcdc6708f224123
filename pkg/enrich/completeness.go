package enrich

import (
	"strings"

	"github.com/agentstation/recordlink/pkg/records"
)

var checklist = []func(r *records.Record) bool{
	func(r *records.Record) bool { return strings.TrimSpace(r.Name) != "" },
	func(r *records.Record) bool { return strings.TrimSpace(r.OfficialName) != "" },
	func(r *records.Record) bool { return strings.TrimSpace(r.Website) != "" },
	func(r *records.Record) bool { return anyNonEmpty(r.Phones) },
	func(r *records.Record) bool { return strings.TrimSpace(r.Address) != "" },
	func(r *records.Record) bool { return anyNonEmpty(r.Emails) },
	func(r *records.Record) bool { return strings.TrimSpace(r.Logo) != "" },
	func(r *records.Record) bool {
		for _, v := range r.SocialMedia {
			if strings.TrimSpace(v) != "" {
				return true
			}
		}
		return false
	},
	func(r *records.Record) bool { return strings.TrimSpace(r.Description) != "" },
}

// Completeness returns the share of the profile checklist that is filled, as
// a whole percentage rounded down. The checklist is name, officialName,
// website, phone, address, email, logo, socialMedia and description.
func Completeness(r *records.Record) int {
	if r == nil {
		return 0
	}
	filled := 0
	for _, ok := range checklist {
		if ok(r) {
			filled++
		}
	}
	return filled * 100 / len(checklist)
}

func anyNonEmpty(ss []string) bool {
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			return true
		}
	}
	return false
}
