package records

import "time"

// Reference is a tenant-local pointer to a global record.
// It carries no personal data; name, email and phone are resolved from the
// global record each time the reference is read.
type Reference struct {
	ID         string     `json:"id" yaml:"id"`
	LocalID    string     `json:"localId" yaml:"localId"`
	GlobalID   string     `json:"globalId" yaml:"globalId"`
	TenantID   string     `json:"tenantId" yaml:"tenantId"`
	Kind       EntityKind `json:"kind" yaml:"kind"`
	IsActive   bool       `json:"isActive" yaml:"isActive"`
	LocalNotes string     `json:"localNotes,omitempty" yaml:"localNotes,omitempty"`
	LocalTags  []string   `json:"localTags,omitempty" yaml:"localTags,omitempty"`
	CreatedBy  string     `json:"createdBy" yaml:"createdBy"`
	CreatedAt  time.Time  `json:"createdAt" yaml:"createdAt"`
	RemovedAt  *time.Time `json:"removedAt,omitempty" yaml:"removedAt,omitempty"`

	// CompanyReferenceID and PublicationReferenceIDs point at the tenant's
	// references to the contact's company and publications, created along
	// with a contact reference.
	CompanyReferenceID      string   `json:"companyReferenceId,omitempty" yaml:"companyReferenceId,omitempty"`
	PublicationReferenceIDs []string `json:"publicationReferenceIds,omitempty" yaml:"publicationReferenceIds,omitempty"`
}

// DependsOn reports whether r was created with the reference id as its
// company or one of its publications.
func (r *Reference) DependsOn(id string) bool {
	if r.CompanyReferenceID == id {
		return true
	}
	for _, p := range r.PublicationReferenceIDs {
		if p == id {
			return true
		}
	}
	return false
}

// Audit actions.
const (
	ActionPromote         = "promote"
	ActionReferenceCreate = "reference.create"
	ActionReferenceDelete = "reference.delete"
)

// AuditEntry is one append-only trail row for a promotion or reference mutation.
type AuditEntry struct {
	ID          string         `json:"id" yaml:"id"`
	Action      string         `json:"action" yaml:"action"`
	EntityType  EntityKind     `json:"entityType" yaml:"entityType"`
	EntityID    string         `json:"entityId" yaml:"entityId"`
	TenantID    string         `json:"tenantId,omitempty" yaml:"tenantId,omitempty"`
	PerformedBy string         `json:"performedBy" yaml:"performedBy"`
	Timestamp   time.Time      `json:"timestamp" yaml:"timestamp"`
	Changes     map[string]any `json:"changes,omitempty" yaml:"changes,omitempty"`
	IsLive      bool           `json:"isLive" yaml:"isLive"`
}

// EnrichmentLog records one successful enrichment of a record.
type EnrichmentLog struct {
	ID            string     `json:"id" yaml:"id"`
	EntityType    EntityKind `json:"entityType" yaml:"entityType"`
	EntityID      string     `json:"entityId" yaml:"entityId"`
	TenantID      string     `json:"tenantId,omitempty" yaml:"tenantId,omitempty"`
	FieldsAdded   []string   `json:"fieldsAdded" yaml:"fieldsAdded"`
	FieldsUpdated []string   `json:"fieldsUpdated" yaml:"fieldsUpdated"`
	Conflicts     int        `json:"conflicts" yaml:"conflicts"`
	Confidence    float64    `json:"confidence" yaml:"confidence"`
	ActorID       string     `json:"actorId" yaml:"actorId"`
	Timestamp     time.Time  `json:"timestamp" yaml:"timestamp"`
}
