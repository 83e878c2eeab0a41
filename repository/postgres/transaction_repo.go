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

type transactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository returns a Postgres-backed implementation of TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) repository.TransactionRepository {
	return &transactionRepository{pool: pool}
}

func (r *transactionRepository) GetByID(ctx context.Context, organizationID, id string) (*domain.Transaction, error) {
	const query = `
	SELECT id, organization_id, transaction_type, transaction_code, transaction_date, smart_code, total_amount, status, metadata, source_entity_id, target_entity_id, created_at, updated_at
	FROM transactions
	WHERE organization_id = $1 AND id = $2
	`
	row := r.pool.QueryRow(ctx, query, organizationID, id)
	return scanTransaction(row)
}

func (r *transactionRepository) List(ctx context.Context, organizationID string, filter repository.TransactionFilter) ([]domain.Transaction, error) {
	const query = `
	SELECT id, organization_id, transaction_type, transaction_code, transaction_date, smart_code, total_amount, status, metadata, source_entity_id, target_entity_id, created_at, updated_at
	FROM transactions
	WHERE organization_id = $1
	  AND ($2 = '' OR transaction_type = $2)
	  AND ($3 = '' OR status = $3)
	  AND ($4 = '' OR source_entity_id = $4)
	ORDER BY transaction_date DESC
	LIMIT $5 OFFSET $6
	`
	rows, err := r.pool.Query(ctx, query, organizationID,
		filter.TransactionType, filter.Status, filter.SourceEntityID,
		clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, *txn)
	}
	return txns, rows.Err()
}

func (r *transactionRepository) Create(ctx context.Context, txn *domain.Transaction) (*domain.Transaction, error) {
	if txn == nil || txn.OrganizationID == "" || txn.TransactionType == "" {
		return nil, domain.ErrInvalidPayload
	}
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	if txn.Status == "" {
		txn.Status = domain.TxnStatusDraft
	}
	if txn.TransactionDate.IsZero() {
		txn.TransactionDate = time.Now().UTC()
	}

	const query = `
	INSERT INTO transactions (id, organization_id, transaction_type, transaction_code, transaction_date, smart_code, total_amount, status, metadata, source_entity_id, target_entity_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		txn.ID,
		txn.OrganizationID,
		txn.TransactionType,
		nullString(txn.TransactionCode),
		txn.TransactionDate,
		nullString(txn.SmartCode),
		txn.TotalAmount,
		txn.Status,
		nullJSON(txn.Metadata),
		nullString(txn.SourceEntityID),
		nullString(txn.TargetEntityID),
	).Scan(&txn.CreatedAt, &txn.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.Errorf(domain.ErrCodeValidationFailed,
				"transaction code %q already exists", txn.TransactionCode)
		}
		return nil, err
	}

	return txn, nil
}

func (r *transactionRepository) SetStatus(ctx context.Context, organizationID, id, status string) error {
	const query = `
	UPDATE transactions
	SET status = $3, updated_at = NOW()
	WHERE organization_id = $1 AND id = $2
	`
	tag, err := r.pool.Exec(ctx, query, organizationID, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

func (r *transactionRepository) UpdateMetadata(ctx context.Context, organizationID, id string, metadata []byte) error {
	const query = `
	UPDATE transactions
	SET metadata = $3, updated_at = NOW()
	WHERE organization_id = $1 AND id = $2
	`
	tag, err := r.pool.Exec(ctx, query, organizationID, id, nullJSON(metadata))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// AddLine assigns line_number inside the insert so concurrent additions to
// the same transaction serialize on the (transaction_id, line_number)
// unique index instead of racing an application-level read-max.
func (r *transactionRepository) AddLine(ctx context.Context, line *domain.TransactionLine) (*domain.TransactionLine, error) {
	if line == nil || line.OrganizationID == "" || line.TransactionID == "" {
		return nil, domain.ErrInvalidPayload
	}
	if line.ID == "" {
		line.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO transaction_lines (id, organization_id, transaction_id, line_number, entity_id, quantity, unit_amount, line_amount, line_data)
	SELECT $1, $2, $3, COALESCE(MAX(line_number), 0) + 1, $4, $5, $6, $7, $8
	FROM transaction_lines
	WHERE transaction_id = $3 AND organization_id = $2
	RETURNING line_number, created_at, updated_at
	`

	// retry once on a line-number collision; the unique index is the arbiter
	for attempt := 0; attempt < 3; attempt++ {
		err := r.pool.QueryRow(ctx, query,
			line.ID,
			line.OrganizationID,
			line.TransactionID,
			nullString(line.EntityID),
			line.Quantity,
			line.UnitAmount,
			line.LineAmount,
			nullJSON(line.LineData),
		).Scan(&line.LineNumber, &line.CreatedAt, &line.UpdatedAt)
		if err == nil {
			break
		}
		if isUniqueViolation(err) {
			continue
		}
		return nil, err
	}
	if line.LineNumber == 0 {
		return nil, domain.NewError(domain.ErrCodeExecutionError, "could not assign a line number")
	}

	return line, r.refreshTotal(ctx, line.OrganizationID, line.TransactionID)
}

func (r *transactionRepository) GetLine(ctx context.Context, organizationID, transactionID, lineID string) (*domain.TransactionLine, error) {
	const query = `
	SELECT id, organization_id, transaction_id, line_number, entity_id, quantity, unit_amount, line_amount, line_data, created_at, updated_at
	FROM transaction_lines
	WHERE organization_id = $1 AND transaction_id = $2 AND id = $3
	`
	row := r.pool.QueryRow(ctx, query, organizationID, transactionID, lineID)
	return scanLine(row)
}

func (r *transactionRepository) ListLines(ctx context.Context, organizationID, transactionID string) ([]domain.TransactionLine, error) {
	const query = `
	SELECT id, organization_id, transaction_id, line_number, entity_id, quantity, unit_amount, line_amount, line_data, created_at, updated_at
	FROM transaction_lines
	WHERE organization_id = $1 AND transaction_id = $2
	ORDER BY line_number
	`
	rows, err := r.pool.Query(ctx, query, organizationID, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.TransactionLine
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *line)
	}
	return lines, rows.Err()
}

// UpdateLine patches quantity/unit amount and recomputes line_amount from
// the persisted value of whichever field the patch omits. A manual amount
// overrides the product.
func (r *transactionRepository) UpdateLine(ctx context.Context, organizationID, transactionID, lineID string, patch repository.LinePatch) (*domain.TransactionLine, error) {
	const query = `
	UPDATE transaction_lines
	SET quantity = COALESCE($4, quantity),
		unit_amount = COALESCE($5, unit_amount),
		line_amount = CASE
			WHEN $6 THEN COALESCE($7, line_amount)
			ELSE COALESCE($4, quantity) * COALESCE($5, unit_amount)
		END,
		entity_id = COALESCE($8, entity_id),
		line_data = COALESCE($9, line_data),
		updated_at = NOW()
	WHERE organization_id = $1 AND transaction_id = $2 AND id = $3
	RETURNING id, organization_id, transaction_id, line_number, entity_id, quantity, unit_amount, line_amount, line_data, created_at, updated_at
	`

	row := r.pool.QueryRow(ctx, query,
		organizationID,
		transactionID,
		lineID,
		patch.Quantity,
		patch.UnitAmount,
		patch.ManualAmount,
		patch.LineAmount,
		patch.EntityID,
		nullJSON(patch.LineData),
	)
	line, err := scanLine(row)
	if err != nil {
		return nil, err
	}

	return line, r.refreshTotal(ctx, organizationID, transactionID)
}

// RemoveLine hard-deletes the line; remaining lines keep their numbers,
// gaps are permitted.
func (r *transactionRepository) RemoveLine(ctx context.Context, organizationID, transactionID, lineID string) error {
	const query = `
	DELETE FROM transaction_lines
	WHERE organization_id = $1 AND transaction_id = $2 AND id = $3
	`
	tag, err := r.pool.Exec(ctx, query, organizationID, transactionID, lineID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLineNotFound
	}
	return r.refreshTotal(ctx, organizationID, transactionID)
}

func (r *transactionRepository) refreshTotal(ctx context.Context, organizationID, transactionID string) error {
	const query = `
	UPDATE transactions
	SET total_amount = (
		SELECT COALESCE(SUM(line_amount), 0)
		FROM transaction_lines
		WHERE organization_id = $1 AND transaction_id = $2
	),
	updated_at = NOW()
	WHERE organization_id = $1 AND id = $2
	`
	_, err := r.pool.Exec(ctx, query, organizationID, transactionID)
	return err
}

func scanTransaction(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Transaction, error) {
	var txn domain.Transaction
	var (
		code     *string
		smart    *string
		metadata []byte
		source   *string
		target   *string
	)

	if err := row.Scan(
		&txn.ID,
		&txn.OrganizationID,
		&txn.TransactionType,
		&code,
		&txn.TransactionDate,
		&smart,
		&txn.TotalAmount,
		&txn.Status,
		&metadata,
		&source,
		&target,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}

	if code != nil {
		txn.TransactionCode = *code
	}
	if smart != nil {
		txn.SmartCode = *smart
	}
	if source != nil {
		txn.SourceEntityID = *source
	}
	if target != nil {
		txn.TargetEntityID = *target
	}
	txn.Metadata = append([]byte(nil), metadata...)

	return &txn, nil
}

func scanLine(row interface {
	Scan(dest ...interface{}) error
}) (*domain.TransactionLine, error) {
	var line domain.TransactionLine
	var (
		entityID *string
		lineData []byte
	)

	if err := row.Scan(
		&line.ID,
		&line.OrganizationID,
		&line.TransactionID,
		&line.LineNumber,
		&entityID,
		&line.Quantity,
		&line.UnitAmount,
		&line.LineAmount,
		&lineData,
		&line.CreatedAt,
		&line.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLineNotFound
		}
		return nil, err
	}

	if entityID != nil {
		line.EntityID = *entityID
	}
	line.LineData = append([]byte(nil), lineData...)

	return &line, nil
}
