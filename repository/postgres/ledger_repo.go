package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heracore/backend/domain"
	"github.com/heracore/backend/repository"
)

type ledgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository returns a Postgres-backed implementation of LedgerRepository.
// The (organization_id, smart_code, idempotency_key) unique index is the
// arbiter for concurrent duplicate requests.
func NewLedgerRepository(pool *pgxpool.Pool) repository.LedgerRepository {
	return &ledgerRepository{pool: pool}
}

// Record is get-or-insert: ON CONFLICT DO NOTHING keeps the ledger
// append-only, and losing the insert race returns the stored entry.
func (r *ledgerRepository) Record(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	if entry == nil || entry.OrganizationID == "" || entry.SmartCode == "" || entry.IdempotencyKey == "" {
		return nil, domain.ErrInvalidPayload
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO idempotency_ledger (id, organization_id, smart_code, idempotency_key, payload_hash, correlation_id, result)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (organization_id, smart_code, idempotency_key) DO NOTHING
	RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query,
		entry.ID,
		entry.OrganizationID,
		entry.SmartCode,
		entry.IdempotencyKey,
		entry.PayloadHash,
		nullString(entry.CorrelationID),
		nullJSON(entry.Result),
	).Scan(&entry.CreatedAt)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// a concurrent call won the insert; hand back its entry
	return r.Lookup(ctx, entry.OrganizationID, entry.SmartCode, entry.IdempotencyKey)
}

func (r *ledgerRepository) Lookup(ctx context.Context, organizationID, smartCode, idempotencyKey string) (*domain.LedgerEntry, error) {
	const query = `
	SELECT id, organization_id, smart_code, idempotency_key, payload_hash, correlation_id, result, created_at
	FROM idempotency_ledger
	WHERE organization_id = $1 AND smart_code = $2 AND idempotency_key = $3
	`
	row := r.pool.QueryRow(ctx, query, organizationID, smartCode, idempotencyKey)
	return scanLedgerEntry(row)
}

// PruneBefore deletes up to limit entries older than the cutoff and returns
// them so the archiver can persist them elsewhere first.
func (r *ledgerRepository) PruneBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	const query = `
	DELETE FROM idempotency_ledger
	WHERE id IN (
		SELECT id FROM idempotency_ledger
		WHERE created_at < $1
		ORDER BY created_at
		LIMIT $2
	)
	RETURNING id, organization_id, smart_code, idempotency_key, payload_hash, correlation_id, result, created_at
	`
	rows, err := r.pool.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func scanLedgerEntry(row interface {
	Scan(dest ...interface{}) error
}) (*domain.LedgerEntry, error) {
	var entry domain.LedgerEntry
	var (
		correlationID *string
		result        []byte
	)

	if err := row.Scan(
		&entry.ID,
		&entry.OrganizationID,
		&entry.SmartCode,
		&entry.IdempotencyKey,
		&entry.PayloadHash,
		&correlationID,
		&result,
		&entry.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLedgerEntryNotFound
		}
		return nil, err
	}

	if correlationID != nil {
		entry.CorrelationID = *correlationID
	}
	entry.Result = append([]byte(nil), result...)

	return &entry, nil
}
