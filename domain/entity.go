package domain

import (
	"encoding/json"
	"time"
)

// Entity is a generic business object (customer, product, table, vendor, ...)
// typed by a string tag and a smart code rather than a dedicated table.
type Entity struct {
	ID             string          `json:"id"`
	OrganizationID string          `json:"organization_id"`
	EntityType     string          `json:"entity_type"`
	EntityName     string          `json:"entity_name"`
	EntityCode     string          `json:"entity_code,omitempty"`
	SmartCode      string          `json:"smart_code,omitempty"`
	Status         string          `json:"status"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (e *Entity) IsActive() bool {
	return e != nil && e.Status == "active"
}

// DynamicField is a typed key/value extension attached to an Entity.
// Exactly one of the value columns is expected to be set per field.
type DynamicField struct {
	ID             string          `json:"id"`
	OrganizationID string          `json:"organization_id"`
	EntityID       string          `json:"entity_id"`
	FieldName      string          `json:"field_name"`
	ValueText      *string         `json:"value_text,omitempty"`
	ValueNumber    *float64        `json:"value_number,omitempty"`
	ValueBoolean   *bool           `json:"value_boolean,omitempty"`
	ValueJSON      json.RawMessage `json:"value_json,omitempty"`
	SmartCode      string          `json:"smart_code,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Value returns whichever typed column is populated.
func (f *DynamicField) Value() interface{} {
	switch {
	case f == nil:
		return nil
	case f.ValueText != nil:
		return *f.ValueText
	case f.ValueNumber != nil:
		return *f.ValueNumber
	case f.ValueBoolean != nil:
		return *f.ValueBoolean
	case len(f.ValueJSON) > 0:
		return f.ValueJSON
	default:
		return nil
	}
}
