package transport

import "encoding/json"

// InvokeRequest is the wire shape of a procedure invocation.
type InvokeRequest struct {
	SmartCode string                 `json:"smart_code"`
	Payload   map[string]interface{} `json:"payload"`
	Options   InvokeOptions          `json:"options"`
}

type InvokeOptions struct {
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	CorrelationID  string `json:"correlation_id,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`
	TimeoutMs      int    `json:"timeout_ms,omitempty"`
}

type OrganizationRequest struct {
	ID       string          `json:"id,omitempty"`
	Name     string          `json:"name"`
	Code     string          `json:"code"`
	Type     string          `json:"type,omitempty"`
	Status   string          `json:"status,omitempty"`
	Settings json.RawMessage `json:"settings,omitempty"`
}
