package domain

import (
	"encoding/json"
	"time"
)

// Organization is the tenant boundary. Every other row in the universal
// schema carries its organization's id; nothing crosses it.
type Organization struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Code      string          `json:"code"`
	Type      string          `json:"type,omitempty"`
	Status    string          `json:"status"`
	Settings  json.RawMessage `json:"settings,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (o *Organization) IsActive() bool {
	return o != nil && o.Status == "active"
}
