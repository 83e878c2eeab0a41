package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heracore/backend/domain"
	"github.com/heracore/backend/repository"
)

type fieldRepository struct {
	pool *pgxpool.Pool
}

// NewFieldRepository returns a Postgres-backed implementation of FieldRepository.
func NewFieldRepository(pool *pgxpool.Pool) repository.FieldRepository {
	return &fieldRepository{pool: pool}
}

func (r *fieldRepository) Get(ctx context.Context, organizationID, entityID, fieldName string) (*domain.DynamicField, error) {
	const query = `
	SELECT id, organization_id, entity_id, field_name, value_text, value_number, value_boolean, value_json, smart_code, created_at, updated_at
	FROM dynamic_fields
	WHERE organization_id = $1 AND entity_id = $2 AND field_name = $3
	`
	row := r.pool.QueryRow(ctx, query, organizationID, entityID, fieldName)
	return scanField(row)
}

func (r *fieldRepository) ListByEntity(ctx context.Context, organizationID, entityID string) ([]domain.DynamicField, error) {
	const query = `
	SELECT id, organization_id, entity_id, field_name, value_text, value_number, value_boolean, value_json, smart_code, created_at, updated_at
	FROM dynamic_fields
	WHERE organization_id = $1 AND entity_id = $2
	ORDER BY field_name
	`
	rows, err := r.pool.Query(ctx, query, organizationID, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fields []domain.DynamicField
	for rows.Next() {
		field, err := scanField(rows)
		if err != nil {
			return nil, err
		}
		fields = append(fields, *field)
	}
	return fields, rows.Err()
}

// Upsert is last-write-wins on (organization, entity, field_name).
func (r *fieldRepository) Upsert(ctx context.Context, field *domain.DynamicField) (*domain.DynamicField, error) {
	if field == nil || field.OrganizationID == "" || field.EntityID == "" || field.FieldName == "" {
		return nil, domain.ErrInvalidPayload
	}
	if field.ID == "" {
		field.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO dynamic_fields (id, organization_id, entity_id, field_name, value_text, value_number, value_boolean, value_json, smart_code)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (organization_id, entity_id, field_name) DO UPDATE
	SET value_text = EXCLUDED.value_text,
		value_number = EXCLUDED.value_number,
		value_boolean = EXCLUDED.value_boolean,
		value_json = EXCLUDED.value_json,
		smart_code = EXCLUDED.smart_code,
		updated_at = NOW()
	RETURNING id, created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		field.ID,
		field.OrganizationID,
		field.EntityID,
		field.FieldName,
		field.ValueText,
		field.ValueNumber,
		field.ValueBoolean,
		nullJSON(field.ValueJSON),
		nullString(field.SmartCode),
	).Scan(&field.ID, &field.CreatedAt, &field.UpdatedAt); err != nil {
		return nil, err
	}

	return field, nil
}

func (r *fieldRepository) Delete(ctx context.Context, organizationID, entityID, fieldName string) error {
	const query = `
	DELETE FROM dynamic_fields
	WHERE organization_id = $1 AND entity_id = $2 AND field_name = $3
	`
	tag, err := r.pool.Exec(ctx, query, organizationID, entityID, fieldName)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrFieldNotFound
	}
	return nil
}

func scanField(row interface {
	Scan(dest ...interface{}) error
}) (*domain.DynamicField, error) {
	var field domain.DynamicField
	var (
		valueJSON []byte
		smartCode *string
	)

	if err := row.Scan(
		&field.ID,
		&field.OrganizationID,
		&field.EntityID,
		&field.FieldName,
		&field.ValueText,
		&field.ValueNumber,
		&field.ValueBoolean,
		&valueJSON,
		&smartCode,
		&field.CreatedAt,
		&field.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFieldNotFound
		}
		return nil, err
	}

	field.ValueJSON = append([]byte(nil), valueJSON...)
	if smartCode != nil {
		field.SmartCode = *smartCode
	}

	return &field, nil
}
