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

type entityRepository struct {
	pool *pgxpool.Pool
}

// NewEntityRepository returns a Postgres-backed implementation of EntityRepository.
func NewEntityRepository(pool *pgxpool.Pool) repository.EntityRepository {
	return &entityRepository{pool: pool}
}

func (r *entityRepository) GetByID(ctx context.Context, organizationID, id string) (*domain.Entity, error) {
	const query = `
	SELECT id, organization_id, entity_type, entity_name, entity_code, smart_code, status, metadata, created_at, updated_at
	FROM entities
	WHERE organization_id = $1 AND id = $2
	`
	row := r.pool.QueryRow(ctx, query, organizationID, id)
	return scanEntity(row)
}

func (r *entityRepository) GetByCode(ctx context.Context, organizationID, entityType, entityCode string) (*domain.Entity, error) {
	const query = `
	SELECT id, organization_id, entity_type, entity_name, entity_code, smart_code, status, metadata, created_at, updated_at
	FROM entities
	WHERE organization_id = $1 AND entity_type = $2 AND entity_code = $3
	`
	row := r.pool.QueryRow(ctx, query, organizationID, entityType, entityCode)
	return scanEntity(row)
}

func (r *entityRepository) List(ctx context.Context, organizationID string, filter repository.EntityFilter) ([]domain.Entity, error) {
	const query = `
	SELECT id, organization_id, entity_type, entity_name, entity_code, smart_code, status, metadata, created_at, updated_at
	FROM entities
	WHERE organization_id = $1
	  AND ($2 = '' OR entity_type = $2)
	  AND ($3 = '' OR status = $3)
	ORDER BY updated_at DESC
	LIMIT $4 OFFSET $5
	`
	rows, err := r.pool.Query(ctx, query, organizationID, filter.EntityType, filter.Status, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []domain.Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, *entity)
	}
	return entities, rows.Err()
}

func (r *entityRepository) Create(ctx context.Context, entity *domain.Entity) (*domain.Entity, error) {
	if entity == nil || entity.OrganizationID == "" || entity.EntityType == "" || entity.EntityName == "" {
		return nil, domain.ErrInvalidPayload
	}
	if entity.ID == "" {
		entity.ID = uuid.NewString()
	}
	if entity.Status == "" {
		entity.Status = "active"
	}

	const query = `
	INSERT INTO entities (id, organization_id, entity_type, entity_name, entity_code, smart_code, status, metadata)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		entity.ID,
		entity.OrganizationID,
		entity.EntityType,
		entity.EntityName,
		nullString(entity.EntityCode),
		nullString(entity.SmartCode),
		entity.Status,
		nullJSON(entity.Metadata),
	).Scan(&entity.CreatedAt, &entity.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.Errorf(domain.ErrCodeValidationFailed,
				"entity code %q already exists for type %q", entity.EntityCode, entity.EntityType)
		}
		return nil, err
	}

	return entity, nil
}

func (r *entityRepository) Update(ctx context.Context, entity *domain.Entity) error {
	if entity == nil || entity.ID == "" || entity.OrganizationID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE entities
	SET entity_name = $3,
		smart_code = $4,
		status = $5,
		metadata = $6,
		updated_at = NOW()
	WHERE organization_id = $1 AND id = $2
	RETURNING updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		entity.OrganizationID,
		entity.ID,
		entity.EntityName,
		nullString(entity.SmartCode),
		entity.Status,
		nullJSON(entity.Metadata),
	).Scan(&entity.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrEntityNotFound
		}
		return err
	}

	return nil
}

func (r *entityRepository) SetStatus(ctx context.Context, organizationID, id, status string) error {
	const query = `
	UPDATE entities
	SET status = $3, updated_at = NOW()
	WHERE organization_id = $1 AND id = $2
	`
	tag, err := r.pool.Exec(ctx, query, organizationID, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntityNotFound
	}
	return nil
}

func scanEntity(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Entity, error) {
	var entity domain.Entity
	var (
		entityCode *string
		smartCode  *string
		metadata   []byte
	)

	if err := row.Scan(
		&entity.ID,
		&entity.OrganizationID,
		&entity.EntityType,
		&entity.EntityName,
		&entityCode,
		&smartCode,
		&entity.Status,
		&metadata,
		&entity.CreatedAt,
		&entity.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntityNotFound
		}
		return nil, err
	}

	if entityCode != nil {
		entity.EntityCode = *entityCode
	}
	if smartCode != nil {
		entity.SmartCode = *smartCode
	}
	entity.Metadata = append([]byte(nil), metadata...)

	return &entity, nil
}
