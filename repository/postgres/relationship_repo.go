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

type relationshipRepository struct {
	pool *pgxpool.Pool
}

// NewRelationshipRepository returns a Postgres-backed implementation of RelationshipRepository.
func NewRelationshipRepository(pool *pgxpool.Pool) repository.RelationshipRepository {
	return &relationshipRepository{pool: pool}
}

func (r *relationshipRepository) GetByID(ctx context.Context, organizationID, id string) (*domain.Relationship, error) {
	const query = `
	SELECT id, organization_id, from_entity_id, to_entity_id, relationship_type, relationship_data, effective_date, expiration_date, created_at, updated_at
	FROM relationships
	WHERE organization_id = $1 AND id = $2
	`
	row := r.pool.QueryRow(ctx, query, organizationID, id)
	return scanRelationship(row)
}

func (r *relationshipRepository) List(ctx context.Context, organizationID string, filter repository.RelationshipFilter) ([]domain.Relationship, error) {
	const query = `
	SELECT id, organization_id, from_entity_id, to_entity_id, relationship_type, relationship_data, effective_date, expiration_date, created_at, updated_at
	FROM relationships
	WHERE organization_id = $1
	  AND ($2 = '' OR from_entity_id = $2)
	  AND ($3 = '' OR to_entity_id = $3)
	  AND ($4 = '' OR relationship_type = $4)
	ORDER BY created_at DESC
	LIMIT $5 OFFSET $6
	`
	rows, err := r.pool.Query(ctx, query, organizationID,
		filter.FromEntityID, filter.ToEntityID, filter.RelationshipType,
		clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rels []domain.Relationship
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, err
		}
		rels = append(rels, *rel)
	}
	return rels, rows.Err()
}

// Create verifies both endpoints belong to the relationship's organization
// inside the insert statement itself.
func (r *relationshipRepository) Create(ctx context.Context, rel *domain.Relationship) (*domain.Relationship, error) {
	if rel == nil || rel.OrganizationID == "" || rel.FromEntityID == "" || rel.ToEntityID == "" || rel.RelationshipType == "" {
		return nil, domain.ErrInvalidPayload
	}
	if rel.ID == "" {
		rel.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO relationships (id, organization_id, from_entity_id, to_entity_id, relationship_type, relationship_data, effective_date, expiration_date)
	SELECT $1, $2, $3, $4, $5, $6, $7, $8
	WHERE EXISTS (SELECT 1 FROM entities WHERE id = $3 AND organization_id = $2)
	  AND EXISTS (SELECT 1 FROM entities WHERE id = $4 AND organization_id = $2)
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		rel.ID,
		rel.OrganizationID,
		rel.FromEntityID,
		rel.ToEntityID,
		rel.RelationshipType,
		nullJSON(rel.RelationshipData),
		rel.EffectiveDate,
		rel.ExpirationDate,
	).Scan(&rel.CreatedAt, &rel.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewError(domain.ErrCodeValidationFailed, "relationship endpoints must belong to the organization")
		}
		return nil, err
	}

	return rel, nil
}

func (r *relationshipRepository) Delete(ctx context.Context, organizationID, id string) error {
	const query = `DELETE FROM relationships WHERE organization_id = $1 AND id = $2`
	tag, err := r.pool.Exec(ctx, query, organizationID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NewError(domain.ErrCodeNotFound, "relationship not found")
	}
	return nil
}

func scanRelationship(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Relationship, error) {
	var rel domain.Relationship
	var data []byte

	if err := row.Scan(
		&rel.ID,
		&rel.OrganizationID,
		&rel.FromEntityID,
		&rel.ToEntityID,
		&rel.RelationshipType,
		&data,
		&rel.EffectiveDate,
		&rel.ExpirationDate,
		&rel.CreatedAt,
		&rel.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewError(domain.ErrCodeNotFound, "relationship not found")
		}
		return nil, err
	}

	rel.RelationshipData = append([]byte(nil), data...)

	return &rel, nil
}
