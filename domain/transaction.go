package domain

import (
	"encoding/json"
	"time"
)

// Transaction status vocabulary. Transitions move left to right; approved
// and rejected fork after submitted, completed and cancelled are terminal.
const (
	TxnStatusDraft      = "draft"
	TxnStatusSubmitted  = "submitted"
	TxnStatusApproved   = "approved"
	TxnStatusRejected   = "rejected"
	TxnStatusProcessing = "processing"
	TxnStatusCompleted  = "completed"
	TxnStatusCancelled  = "cancelled"
)

var txnTransitions = map[string][]string{
	TxnStatusDraft:      {TxnStatusSubmitted, TxnStatusCancelled},
	TxnStatusSubmitted:  {TxnStatusApproved, TxnStatusRejected, TxnStatusCancelled},
	TxnStatusApproved:   {TxnStatusProcessing, TxnStatusCancelled},
	TxnStatusRejected:   {},
	TxnStatusProcessing: {TxnStatusCompleted, TxnStatusCancelled},
	TxnStatusCompleted:  {},
	TxnStatusCancelled:  {},
}

// CanTransition reports whether a transaction status change is allowed.
func CanTransition(from, to string) bool {
	for _, next := range txnTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transaction is a generic business event: an order, reservation, journal
// entry, purchase order. Lines are attached separately.
type Transaction struct {
	ID              string          `json:"id"`
	OrganizationID  string          `json:"organization_id"`
	TransactionType string          `json:"transaction_type"`
	TransactionCode string          `json:"transaction_code,omitempty"`
	TransactionDate time.Time       `json:"transaction_date"`
	SmartCode       string          `json:"smart_code,omitempty"`
	TotalAmount     float64         `json:"total_amount"`
	Status          string          `json:"status"`
	Metadata        json.RawMessage `json:"metadata,omitempty"`
	SourceEntityID  string          `json:"source_entity_id,omitempty"`
	TargetEntityID  string          `json:"target_entity_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (t *Transaction) IsTerminal() bool {
	if t == nil {
		return false
	}
	return len(txnTransitions[t.Status]) == 0 && t.Status != ""
}

// TransactionLine is one line within a transaction. LineAmount tracks
// Quantity×UnitAmount unless the line carries a manual override.
type TransactionLine struct {
	ID             string          `json:"id"`
	OrganizationID string          `json:"organization_id"`
	TransactionID  string          `json:"transaction_id"`
	LineNumber     int             `json:"line_number"`
	EntityID       string          `json:"entity_id,omitempty"`
	Quantity       float64         `json:"quantity"`
	UnitAmount     float64         `json:"unit_amount"`
	LineAmount     float64         `json:"line_amount"`
	LineData       json.RawMessage `json:"line_data,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Recalculate refreshes LineAmount from quantity and unit amount.
func (l *TransactionLine) Recalculate() {
	if l == nil {
		return
	}
	l.LineAmount = l.Quantity * l.UnitAmount
}
