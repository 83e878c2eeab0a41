package domain

import (
	"encoding/json"
	"time"
)

// Relationship is a typed, directed edge between two entities of the same
// organization.
type Relationship struct {
	ID               string          `json:"id"`
	OrganizationID   string          `json:"organization_id"`
	FromEntityID     string          `json:"from_entity_id"`
	ToEntityID       string          `json:"to_entity_id"`
	RelationshipType string          `json:"relationship_type"`
	RelationshipData json.RawMessage `json:"relationship_data,omitempty"`
	EffectiveDate    *time.Time      `json:"effective_date,omitempty"`
	ExpirationDate   *time.Time      `json:"expiration_date,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// IsEffective reports whether the edge is live at the reference time.
func (r *Relationship) IsEffective(reference time.Time) bool {
	if r == nil {
		return false
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	if r.EffectiveDate != nil && reference.Before(*r.EffectiveDate) {
		return false
	}
	if r.ExpirationDate != nil && !reference.Before(*r.ExpirationDate) {
		return false
	}
	return true
}
