package repository

import (
	"context"

	"github.com/heracore/backend/domain"
)

type TransactionFilter struct {
	TransactionType string
	Status          string
	SourceEntityID  string
	Limit           int
	Offset          int
}

// LinePatch carries a partial line update. Nil fields keep the persisted
// value; LineAmount is only honored together with ManualAmount.
type LinePatch struct {
	Quantity     *float64
	UnitAmount   *float64
	LineAmount   *float64
	ManualAmount bool
	EntityID     *string
	LineData     []byte
}

// TransactionRepository persists transaction headers and their lines.
// AddLine assigns line numbers inside the insert statement so concurrent
// additions to the same transaction serialize at the storage layer.
type TransactionRepository interface {
	GetByID(ctx context.Context, organizationID, id string) (*domain.Transaction, error)
	List(ctx context.Context, organizationID string, filter TransactionFilter) ([]domain.Transaction, error)
	Create(ctx context.Context, txn *domain.Transaction) (*domain.Transaction, error)
	SetStatus(ctx context.Context, organizationID, id, status string) error
	UpdateMetadata(ctx context.Context, organizationID, id string, metadata []byte) error

	AddLine(ctx context.Context, line *domain.TransactionLine) (*domain.TransactionLine, error)
	GetLine(ctx context.Context, organizationID, transactionID, lineID string) (*domain.TransactionLine, error)
	ListLines(ctx context.Context, organizationID, transactionID string) ([]domain.TransactionLine, error)
	UpdateLine(ctx context.Context, organizationID, transactionID, lineID string, patch LinePatch) (*domain.TransactionLine, error)
	RemoveLine(ctx context.Context, organizationID, transactionID, lineID string) error
}
