package repository

import (
	"context"

	"github.com/heracore/backend/domain"
)

type RelationshipFilter struct {
	FromEntityID     string
	ToEntityID       string
	RelationshipType string
	Limit            int
	Offset           int
}

type RelationshipRepository interface {
	GetByID(ctx context.Context, organizationID, id string) (*domain.Relationship, error)
	List(ctx context.Context, organizationID string, filter RelationshipFilter) ([]domain.Relationship, error)
	Create(ctx context.Context, rel *domain.Relationship) (*domain.Relationship, error)
	Delete(ctx context.Context, organizationID, id string) error
}
