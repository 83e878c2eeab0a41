package repository

import (
	"context"
	"time"

	"github.com/heracore/backend/domain"
)

// LedgerRepository is the durable record of completed procedure executions.
// Record is get-or-insert: when a concurrent call with the same key wins
// the insert race, the previously stored entry is returned instead and the
// caller replays it. Entries are never mutated.
type LedgerRepository interface {
	Record(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error)
	Lookup(ctx context.Context, organizationID, smartCode, idempotencyKey string) (*domain.LedgerEntry, error)
	PruneBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.LedgerEntry, error)
}
