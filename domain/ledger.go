package domain

import (
	"encoding/json"
	"time"
)

// LedgerEntry records one completed procedure execution. Entries are
// append-only; a retried call with the same idempotency key replays the
// stored result instead of re-executing.
type LedgerEntry struct {
	ID             string          `json:"id"`
	OrganizationID string          `json:"organization_id"`
	SmartCode      string          `json:"smart_code"`
	IdempotencyKey string          `json:"idempotency_key"`
	PayloadHash    string          `json:"payload_hash"`
	CorrelationID  string          `json:"correlation_id,omitempty"`
	Result         json.RawMessage `json:"result"`
	CreatedAt      time.Time       `json:"created_at"`
}
