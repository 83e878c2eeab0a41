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

type organizationRepository struct {
	pool *pgxpool.Pool
}

// NewOrganizationRepository returns a Postgres-backed implementation of OrganizationRepository.
func NewOrganizationRepository(pool *pgxpool.Pool) repository.OrganizationRepository {
	return &organizationRepository{pool: pool}
}

func (r *organizationRepository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	const query = `
	SELECT id, name, code, type, status, settings, created_at, updated_at
	FROM organizations
	WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	return scanOrganization(row)
}

func (r *organizationRepository) GetByCode(ctx context.Context, code string) (*domain.Organization, error) {
	const query = `
	SELECT id, name, code, type, status, settings, created_at, updated_at
	FROM organizations
	WHERE code = $1
	`
	row := r.pool.QueryRow(ctx, query, code)
	return scanOrganization(row)
}

func (r *organizationRepository) Create(ctx context.Context, org *domain.Organization) (*domain.Organization, error) {
	if org == nil || org.Name == "" || org.Code == "" {
		return nil, domain.ErrInvalidPayload
	}
	if org.ID == "" {
		org.ID = uuid.NewString()
	}
	if org.Status == "" {
		org.Status = "active"
	}

	const query = `
	INSERT INTO organizations (id, name, code, type, status, settings)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		org.ID,
		org.Name,
		org.Code,
		nullString(org.Type),
		org.Status,
		nullJSON(org.Settings),
	).Scan(&org.CreatedAt, &org.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.Errorf(domain.ErrCodeValidationFailed, "organization code %q already exists", org.Code)
		}
		return nil, err
	}

	return org, nil
}

func (r *organizationRepository) Update(ctx context.Context, org *domain.Organization) error {
	if org == nil || org.ID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE organizations
	SET name = $2,
		type = $3,
		status = $4,
		settings = $5,
		updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		org.ID,
		org.Name,
		nullString(org.Type),
		org.Status,
		nullJSON(org.Settings),
	).Scan(&org.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrOrganizationNotFound
		}
		return err
	}

	return nil
}

func scanOrganization(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Organization, error) {
	var org domain.Organization
	var (
		orgType  *string
		settings []byte
	)

	if err := row.Scan(
		&org.ID,
		&org.Name,
		&org.Code,
		&orgType,
		&org.Status,
		&settings,
		&org.CreatedAt,
		&org.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrganizationNotFound
		}
		return nil, err
	}

	if orgType != nil {
		org.Type = *orgType
	}
	org.Settings = append([]byte(nil), settings...)

	return &org, nil
}
