// Package records defines the entity shapes shared by every recordlink component:
// contact, company and publication records, their global catalog metadata,
// tenant references, and the audit and enrichment trails.
package records

import (
	"fmt"
	"strings"
	"time"
)

// EntityKind tags which variant a Record represents.
type EntityKind string

// Supported entity kinds.
const (
	KindContact     EntityKind = "contact"
	KindCompany     EntityKind = "company"
	KindPublication EntityKind = "publication"
)

// Kinds lists every supported kind in a stable order.
var Kinds = []EntityKind{KindContact, KindCompany, KindPublication}

// String returns the string representation of the kind.
func (k EntityKind) String() string {
	return string(k)
}

// Valid reports whether k is a supported kind.
func (k EntityKind) Valid() bool {
	switch k {
	case KindContact, KindCompany, KindPublication:
		return true
	}
	return false
}

// ParseEntityKind parses a kind name case-insensitively.
func ParseEntityKind(s string) (EntityKind, error) {
	k := EntityKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown entity kind %q", s)
	}
	return k, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *EntityKind) UnmarshalText(text []byte) error {
	parsed, err := ParseEntityKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (k EntityKind) MarshalText() ([]byte, error) {
	return []byte(k), nil
}

// Verification holds the verification flags of a contact.
type Verification struct {
	Email bool `json:"email,omitempty" yaml:"email,omitempty"`
	Phone bool `json:"phone,omitempty" yaml:"phone,omitempty"`
}

// Record is a tenant-scoped contact, company or publication.
// A record is owned by TenantID unless IsGlobal is set, in which case it
// belongs to the platform and is readable by every tenant.
type Record struct {
	ID       string     `json:"id" yaml:"id"`
	TenantID string     `json:"tenantId" yaml:"tenantId"`
	Kind     EntityKind `json:"kind" yaml:"kind"`

	Name         string            `json:"name,omitempty" yaml:"name,omitempty"`
	OfficialName string            `json:"officialName,omitempty" yaml:"officialName,omitempty"`
	Emails       []string          `json:"emails,omitempty" yaml:"emails,omitempty"`
	Phones       []string          `json:"phones,omitempty" yaml:"phones,omitempty"`
	Website      string            `json:"website,omitempty" yaml:"website,omitempty"`
	Address      string            `json:"address,omitempty" yaml:"address,omitempty"`
	Logo         string            `json:"logo,omitempty" yaml:"logo,omitempty"`
	SocialMedia  map[string]string `json:"socialMedia,omitempty" yaml:"socialMedia,omitempty"`
	Description  string            `json:"description,omitempty" yaml:"description,omitempty"`

	// CompanyID is the foreign key to the company a contact or publication belongs to.
	CompanyID string `json:"companyId,omitempty" yaml:"companyId,omitempty"`

	// Contact fields
	Position       string   `json:"position,omitempty" yaml:"position,omitempty"`
	Department     string   `json:"department,omitempty" yaml:"department,omitempty"`
	Beats          []string `json:"beats,omitempty" yaml:"beats,omitempty"`
	PublicationIDs []string `json:"publicationIds,omitempty" yaml:"publicationIds,omitempty"`

	// Publication fields
	MediaTypes []string `json:"mediaTypes,omitempty" yaml:"mediaTypes,omitempty"`

	Verification Verification `json:"verification,omitzero" yaml:"verification,omitempty"`

	IsGlobal       bool            `json:"isGlobal" yaml:"isGlobal,omitempty"`
	GlobalMetadata *GlobalMetadata `json:"globalMetadata,omitempty" yaml:"globalMetadata,omitempty"`
	SourceType     string          `json:"sourceType,omitempty" yaml:"sourceType,omitempty"`

	CreatedAt  time.Time  `json:"createdAt" yaml:"createdAt,omitempty"`
	UpdatedAt  time.Time  `json:"updatedAt" yaml:"updatedAt,omitempty"`
	CreatedBy  string     `json:"createdBy,omitempty" yaml:"createdBy,omitempty"`
	EnrichedBy string     `json:"enrichedBy,omitempty" yaml:"enrichedBy,omitempty"`
	EnrichedAt *time.Time `json:"enrichedAt,omitempty" yaml:"enrichedAt,omitempty"`
}

// PrimaryEmail returns the first email or an empty string.
func (r *Record) PrimaryEmail() string {
	if len(r.Emails) == 0 {
		return ""
	}
	return r.Emails[0]
}

// PrimaryPhone returns the first phone or an empty string.
func (r *Record) PrimaryPhone() string {
	if len(r.Phones) == 0 {
		return ""
	}
	return r.Phones[0]
}

// Version returns the global catalog version, or 0 when never promoted.
func (r *Record) Version() int {
	if r.GlobalMetadata == nil {
		return 0
	}
	return r.GlobalMetadata.Version
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	c := r
	c.Emails = cloneStrings(r.Emails)
	c.Phones = cloneStrings(r.Phones)
	c.Beats = cloneStrings(r.Beats)
	c.PublicationIDs = cloneStrings(r.PublicationIDs)
	c.MediaTypes = cloneStrings(r.MediaTypes)
	if r.SocialMedia != nil {
		c.SocialMedia = make(map[string]string, len(r.SocialMedia))
		for k, v := range r.SocialMedia {
			c.SocialMedia[k] = v
		}
	}
	if r.GlobalMetadata != nil {
		gm := *r.GlobalMetadata
		c.GlobalMetadata = &gm
	}
	if r.EnrichedAt != nil {
		t := *r.EnrichedAt
		c.EnrichedAt = &t
	}
	return c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// GlobalMetadata is stamped on a record when it is promoted to the global catalog.
type GlobalMetadata struct {
	AddedBy      string     `json:"addedBy" yaml:"addedBy"`
	AddedAt      time.Time  `json:"addedAt" yaml:"addedAt"`
	AutoPromoted bool       `json:"autoPromoted" yaml:"autoPromoted"`
	Context      string     `json:"context,omitempty" yaml:"context,omitempty"`
	Version      int        `json:"version" yaml:"version"`
	IsDraft      bool       `json:"isDraft" yaml:"isDraft"`
	ReviewedBy   string     `json:"reviewedBy,omitempty" yaml:"reviewedBy,omitempty"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty" yaml:"publishedAt,omitempty"`
	QualityScore int        `json:"qualityScore" yaml:"qualityScore"`
	BatchID      string     `json:"batchId,omitempty" yaml:"batchId,omitempty"`
}

// ActorContext identifies who performs an operation and for which tenant.
type ActorContext struct {
	ActorID            string `json:"actorId" yaml:"actorId"`
	TenantID           string `json:"tenantId" yaml:"tenantId"`
	AutoGlobalEligible bool   `json:"autoGlobalEligible" yaml:"autoGlobalEligible"`
}
