package repositories

import (
	"context"

	"catalog/internal/models"
)

// ProductFilter narrows a listing. Nil fields are not applied.
type ProductFilter struct {
	Category *models.Category
	Active   *bool
}

// ProductRepository defines the interface for product data access.
//
// GetByID returns (nil, nil) when the ID is unknown; absence is not an error
// at this layer. ReserveStock must check sufficiency and decrement as one
// atomic store operation, never as a read followed by a write.
type ProductRepository interface {
	GetAll(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	Activate(ctx context.Context, id string) error
	ReserveStock(ctx context.Context, id string, qty int) error
}
