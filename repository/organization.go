package repository

import (
	"context"

	"github.com/heracore/backend/domain"
)

type OrganizationRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Organization, error)
	GetByCode(ctx context.Context, code string) (*domain.Organization, error)
	Create(ctx context.Context, org *domain.Organization) (*domain.Organization, error)
	Update(ctx context.Context, org *domain.Organization) error
}
