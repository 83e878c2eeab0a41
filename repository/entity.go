package repository

import (
	"context"

	"github.com/heracore/backend/domain"
)

type EntityFilter struct {
	EntityType string
	Status     string
	Limit      int
	Offset     int
}

// EntityRepository persists generic business objects. Every method is
// scoped by organization id; rows from other tenants are never visible.
type EntityRepository interface {
	GetByID(ctx context.Context, organizationID, id string) (*domain.Entity, error)
	GetByCode(ctx context.Context, organizationID, entityType, entityCode string) (*domain.Entity, error)
	List(ctx context.Context, organizationID string, filter EntityFilter) ([]domain.Entity, error)
	Create(ctx context.Context, entity *domain.Entity) (*domain.Entity, error)
	Update(ctx context.Context, entity *domain.Entity) error
	SetStatus(ctx context.Context, organizationID, id, status string) error
}

// FieldRepository persists dynamic fields. Upsert is last-write-wins on
// (organization, entity, field_name).
type FieldRepository interface {
	Get(ctx context.Context, organizationID, entityID, fieldName string) (*domain.DynamicField, error)
	ListByEntity(ctx context.Context, organizationID, entityID string) ([]domain.DynamicField, error)
	Upsert(ctx context.Context, field *domain.DynamicField) (*domain.DynamicField, error)
	Delete(ctx context.Context, organizationID, entityID, fieldName string) error
}
