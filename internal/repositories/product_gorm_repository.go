package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"catalog/internal/models"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves products, applying the optional category and active
// filters. Results come back in storage order.
func (r *GORMProductRepository) GetAll(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID, regardless of active state.
// A missing ID yields (nil, nil).
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create persists a new product. The ID is assigned here and the product
// always starts active.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	product.Active = true
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("create product %q: %w", product.Name, ErrDuplicateName)
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update replaces every field except the ID and the active flag. The active
// flag only changes through Delete and Activate.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		return ErrMissingID
	}

	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", product.ID).
		Select("name", "description", "price", "category", "stock").
		Updates(map[string]interface{}{
			"name":        product.Name,
			"description": product.Description,
			"price":       product.Price,
			"category":    product.Category,
			"stock":       product.Stock,
		})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("update product %s: %w", product.ID, ErrDuplicateName)
		}
		return fmt.Errorf("failed to update product %s: %w", product.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update product %s: %w", product.ID, ErrProductNotFound)
	}
	return nil
}

// Delete marks a product inactive. The record is never physically removed,
// and deleting a missing or already inactive product is a no-op.
func (r *GORMProductRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Update("active", false).Error
	if err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	return nil
}

// Activate marks a product active again after a soft delete.
func (r *GORMProductRepository) Activate(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Update("active", true)
	if res.Error != nil {
		return fmt.Errorf("failed to activate product %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("activate product %s: %w", id, ErrProductNotFound)
	}
	return nil
}

// ReserveStock decrements stock by qty only if the product is active and has
// at least qty units left. The guard and the decrement run as a single
// conditional UPDATE, so concurrent reservations against the same row
// serialize inside the database and stock can never go negative.
//
// Zero rows affected means the precondition failed. Which clause failed is
// not diagnosed with a second query, since its answer could already be stale
// when it returns.
func (r *GORMProductRepository) ReserveStock(ctx context.Context, id string, qty int) error {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND active = ? AND stock >= ?", id, true, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return fmt.Errorf("failed to reserve stock for product %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("reserve %d of product %s: %w", qty, id, ErrInsufficientStock)
	}
	return nil
}
