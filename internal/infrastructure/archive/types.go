package archive

import (
	"encoding/json"
	"time"
)

// Record is one archived ledger entry. Archived records keep enough of the
// original row to answer audit questions; they are no longer consulted on
// the invoke hot path.
type Record struct {
	OrganizationID string          `json:"organization_id"`
	SmartCode      string          `json:"smart_code"`
	IdempotencyKey string          `json:"idempotency_key"`
	PayloadHash    string          `json:"payload_hash"`
	CorrelationID  string          `json:"correlation_id,omitempty"`
	Result         json.RawMessage `json:"result"`
	ExecutedAt     time.Time       `json:"executed_at"`
	ArchivedAt     time.Time       `json:"archived_at"`
}

// Key is the bucket key for a record: tenant, procedure and idempotency key
// joined so archived entries stay unique the same way the hot table was.
func (r Record) Key() []byte {
	return []byte(r.OrganizationID + "|" + r.SmartCode + "|" + r.IdempotencyKey)
}
