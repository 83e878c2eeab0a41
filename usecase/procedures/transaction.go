package procedures

import (
	"context"
	"encoding/json"
	"time"

	"github.com/heracore/backend/domain"
	"github.com/heracore/backend/repository"
	"github.com/heracore/backend/usecase/invoke"
)

type headerCreateRequest struct {
	HeaderSmartCode string          `json:"header_smart_code"`
	TransactionType string          `json:"transaction_type"`
	TransactionCode string          `json:"transaction_code"`
	TransactionDate *time.Time      `json:"transaction_date"`
	SourceEntityID  string          `json:"source_entity_id"`
	TargetEntityID  string          `json:"target_entity_id"`
	Metadata        json.RawMessage `json:"metadata"`
}

// CreateTransactionHeader creates a transaction in draft status. The
// transaction type comes from the payload or is derived from the header
// smart code family; new headers start with metadata.state ACTIVE.
func (s *Service) CreateTransactionHeader(ctx context.Context, req invoke.Request) (interface{}, error) {
	var body headerCreateRequest
	if err := json.Unmarshal(req.Payload, &body); err != nil {
		return nil, domain.WrapError(domain.ErrCodeValidationFailed, "malformed header payload", err)
	}
	if body.HeaderSmartCode == "" {
		return nil, domain.NewError(domain.ErrCodeValidationFailed, "header_smart_code is required")
	}

	headerCode, err := domain.ParseSmartCode(body.HeaderSmartCode)
	if err != nil {
		return nil, err
	}

	txnType := body.TransactionType
	if txnType == "" {
		txnType = deriveTransactionType(headerCode)
	}

	metadata, err := withDefaultState(body.Metadata, "ACTIVE")
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeValidationFailed, "malformed metadata", err)
	}

	txn := &domain.Transaction{
		OrganizationID:  req.OrganizationID,
		TransactionType: txnType,
		TransactionCode: body.TransactionCode,
		SmartCode:       headerCode.Canonical,
		Status:          domain.TxnStatusDraft,
		Metadata:        metadata,
		SourceEntityID:  body.SourceEntityID,
		TargetEntityID:  body.TargetEntityID,
	}
	if body.TransactionDate != nil {
		txn.TransactionDate = *body.TransactionDate
	}

	return s.txns.Create(ctx, txn)
}

type statusRequest struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

// TransitionTransactionStatus moves a transaction through the status
// vocabulary; transitions outside it are rejected.
func (s *Service) TransitionTransactionStatus(ctx context.Context, req invoke.Request) (interface{}, error) {
	var body statusRequest
	if err := json.Unmarshal(req.Payload, &body); err != nil {
		return nil, domain.WrapError(domain.ErrCodeValidationFailed, "malformed status payload", err)
	}
	if body.TransactionID == "" || body.Status == "" {
		return nil, domain.NewError(domain.ErrCodeValidationFailed, "transaction_id and status are required")
	}

	txn, err := s.txns.GetByID(ctx, req.OrganizationID, body.TransactionID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(txn.Status, body.Status) {
		return nil, domain.Errorf(domain.ErrCodeValidationFailed,
			"cannot transition transaction from %q to %q", txn.Status, body.Status)
	}

	if err := s.txns.SetStatus(ctx, req.OrganizationID, body.TransactionID, body.Status); err != nil {
		return nil, err
	}
	txn.Status = body.Status
	return txn, nil
}

type lineAddRequest struct {
	TransactionID string          `json:"transaction_id"`
	EntityID      string          `json:"entity_id"`
	Quantity      float64         `json:"quantity"`
	UnitAmount    float64         `json:"unit_amount"`
	LineAmount    *float64        `json:"line_amount"`
	ManualAmount  bool            `json:"manual_amount"`
	LineData      json.RawMessage `json:"line_data"`
}

// AddTransactionLine appends a line; line_number assignment is serialized
// at the storage layer. line_amount is quantity×unit_amount unless the
// payload carries an explicit manual amount.
func (s *Service) AddTransactionLine(ctx context.Context, req invoke.Request) (interface{}, error) {
	var body lineAddRequest
	if err := json.Unmarshal(req.Payload, &body); err != nil {
		return nil, domain.WrapError(domain.ErrCodeValidationFailed, "malformed line payload", err)
	}
	if body.TransactionID == "" {
		return nil, domain.NewError(domain.ErrCodeValidationFailed, "transaction_id is required")
	}
	if body.Quantity < 0 {
		return nil, domain.NewError(domain.ErrCodeValidationFailed, "quantity must not be negative")
	}

	if _, err := s.txns.GetByID(ctx, req.OrganizationID, body.TransactionID); err != nil {
		return nil, err
	}

	line := &domain.TransactionLine{
		OrganizationID: req.OrganizationID,
		TransactionID:  body.TransactionID,
		EntityID:       body.EntityID,
		Quantity:       body.Quantity,
		UnitAmount:     body.UnitAmount,
		LineData:       body.LineData,
	}
	if body.ManualAmount && body.LineAmount != nil {
		line.LineAmount = *body.LineAmount
	} else {
		line.Recalculate()
	}

	return s.txns.AddLine(ctx, line)
}

type lineUpdateRequest struct {
	TransactionID string          `json:"transaction_id"`
	LineID        string          `json:"line_id"`
	Quantity      *float64        `json:"quantity"`
	UnitAmount    *float64        `json:"unit_amount"`
	LineAmount    *float64        `json:"line_amount"`
	ManualAmount  bool            `json:"manual_amount"`
	EntityID      *string         `json:"entity_id"`
	LineData      json.RawMessage `json:"line_data"`
}

// UpdateTransactionLine patches a line. When only one of quantity or unit
// amount is supplied, the persisted value of the other is used for the
// recalculation.
func (s *Service) UpdateTransactionLine(ctx context.Context, req invoke.Request) (interface{}, error) {
	var body lineUpdateRequest
	if err := json.Unmarshal(req.Payload, &body); err != nil {
		return nil, domain.WrapError(domain.ErrCodeValidationFailed, "malformed line payload", err)
	}
	if body.TransactionID == "" || body.LineID == "" {
		return nil, domain.NewError(domain.ErrCodeValidationFailed, "transaction_id and line_id are required")
	}
	if body.Quantity != nil && *body.Quantity < 0 {
		return nil, domain.NewError(domain.ErrCodeValidationFailed, "quantity must not be negative")
	}

	patch := repository.LinePatch{
		Quantity:     body.Quantity,
		UnitAmount:   body.UnitAmount,
		LineAmount:   body.LineAmount,
		ManualAmount: body.ManualAmount && body.LineAmount != nil,
		EntityID:     body.EntityID,
		LineData:     body.LineData,
	}

	return s.txns.UpdateLine(ctx, req.OrganizationID, body.TransactionID, body.LineID, patch)
}

type lineRemoveRequest struct {
	TransactionID string `json:"transaction_id"`
	LineID        string `json:"line_id"`
}

// RemoveTransactionLine hard-deletes one line. Remaining lines are not
// renumbered.
func (s *Service) RemoveTransactionLine(ctx context.Context, req invoke.Request) (interface{}, error) {
	var body lineRemoveRequest
	if err := json.Unmarshal(req.Payload, &body); err != nil {
		return nil, domain.WrapError(domain.ErrCodeValidationFailed, "malformed line payload", err)
	}
	if body.TransactionID == "" || body.LineID == "" {
		return nil, domain.NewError(domain.ErrCodeValidationFailed, "transaction_id and line_id are required")
	}

	if err := s.txns.RemoveLine(ctx, req.OrganizationID, body.TransactionID, body.LineID); err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"transaction_id": body.TransactionID,
		"line_id":        body.LineID,
		"removed":        true,
	}, nil
}

type txnReadRequest struct {
	TransactionID string `json:"transaction_id"`
}

// ReadTransaction returns a header with its lines.
func (s *Service) ReadTransaction(ctx context.Context, req invoke.Request) (interface{}, error) {
	var body txnReadRequest
	if err := json.Unmarshal(req.Payload, &body); err != nil {
		return nil, domain.WrapError(domain.ErrCodeValidationFailed, "malformed read payload", err)
	}
	if body.TransactionID == "" {
		return nil, domain.NewError(domain.ErrCodeValidationFailed, "transaction_id is required")
	}

	txn, err := s.txns.GetByID(ctx, req.OrganizationID, body.TransactionID)
	if err != nil {
		return nil, err
	}
	lines, err := s.txns.ListLines(ctx, req.OrganizationID, body.TransactionID)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"transaction": txn,
		"lines":       lines,
	}, nil
}

// deriveTransactionType maps a header smart code family onto the small
// transaction type vocabulary the universal schema uses.
func deriveTransactionType(code *domain.SmartCode) string {
	switch {
	case code.HasSegment("CART"), code.HasSegment("SALE"), code.HasSegment("POS"):
		return "sale"
	case code.HasSegment("PO"), code.HasSegment("PURCHASE"):
		return "purchase_order"
	case code.HasSegment("RES"), code.HasSegment("RESERVATION"):
		return "reservation"
	case code.HasSegment("GL"), code.HasSegment("JOURNAL"):
		return "journal_entry"
	default:
		return "transaction"
	}
}

// withDefaultState merges a state marker into header metadata unless the
// caller already supplied one.
func withDefaultState(metadata json.RawMessage, state string) (json.RawMessage, error) {
	values := map[string]interface{}{}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &values); err != nil {
			return nil, err
		}
	}
	if _, ok := values["state"]; !ok {
		values["state"] = state
	}
	return json.Marshal(values)
}
