package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/pkg/rabbitmq"
)

// ProductPatch carries a partial update. Nil fields keep their current
// value. The active flag is intentionally absent: soft delete and
// reactivation go through their own operations, never through an update.
type ProductPatch struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *float64         `json:"price"`
	Category    *models.Category `json:"category"`
	Stock       *int             `json:"stock"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo     repositories.ProductRepository
	mqClient *rabbitmq.Client // optional, nil disables event publishing
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, mqClient *rabbitmq.Client) *ProductService {
	return &ProductService{
		repo:     repo,
		mqClient: mqClient,
	}
}

// ListProducts retrieves products matching the filter.
func (s *ProductService) ListProducts(ctx context.Context, filter repositories.ProductFilter) ([]models.Product, error) {
	return s.repo.GetAll(ctx, filter)
}

// GetProductByID retrieves a single product by its ID, in any activation
// state. A missing ID surfaces as ErrProductNotFound.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("product %s: %w", id, repositories.ErrProductNotFound)
	}
	return product, nil
}

// CreateProduct validates and persists a new product. The store assigns the
// ID and the product starts active.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.Price < 0 {
		return ErrNegativePrice
	}
	if product.Stock < 0 {
		return ErrNegativeStock
	}
	if !product.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, product.Category)
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return err
	}

	s.publish("product.created", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
		"category":   product.Category,
		"stock":      product.Stock,
	})
	return nil
}

// UpdateProduct loads the current product, applies the patch to a copy and
// persists the result. Identity and the active flag are never touched.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (*models.Product, error) {
	current, err := s.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *current
	if patch.Name != nil {
		updated.Name = *patch.Name
	}
	if patch.Description != nil {
		updated.Description = *patch.Description
	}
	if patch.Price != nil {
		if *patch.Price < 0 {
			return nil, ErrNegativePrice
		}
		updated.Price = *patch.Price
	}
	if patch.Category != nil {
		if !patch.Category.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, *patch.Category)
		}
		updated.Category = *patch.Category
	}
	if patch.Stock != nil {
		if *patch.Stock < 0 {
			return nil, ErrNegativeStock
		}
		updated.Stock = *patch.Stock
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteProduct soft-deletes a product. Only existence gates the delete;
// stock level and current activation state do not.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if _, err := s.GetProductByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// ActivateProduct reactivates a soft-deleted product and returns the
// refreshed record.
func (s *ProductService) ActivateProduct(ctx context.Context, id string) (*models.Product, error) {
	if err := s.repo.Activate(ctx, id); err != nil {
		return nil, err
	}
	return s.GetProductByID(ctx, id)
}

// ReserveStock reserves qty units of a product. Non-positive quantities are
// rejected before any store access; everything else is decided by the
// repository's atomic conditional decrement. A failed reservation is never
// retried here.
func (s *ProductService) ReserveStock(ctx context.Context, id string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w, got %d", ErrInvalidQuantity, qty)
	}
	if err := s.repo.ReserveStock(ctx, id, qty); err != nil {
		return err
	}

	s.publish("stock.reserved", map[string]interface{}{
		"product_id": id,
		"qty":        qty,
	})
	return nil
}

// CategoryBreakdown aggregates inventory figures for one category.
type CategoryBreakdown struct {
	Count     int     `json:"count"`
	Stock     int     `json:"stock"`
	Active    int     `json:"active"`
	Inactive  int     `json:"inactive"`
	Valuation float64 `json:"valuation"`
}

// InventorySummary aggregates inventory figures across the whole catalog.
type InventorySummary struct {
	TotalProducts    int                                   `json:"total_products"`
	ActiveProducts   int                                   `json:"active_products"`
	InactiveProducts int                                   `json:"inactive_products"`
	TotalStock       int                                   `json:"total_stock"`
	TotalValuation   float64                               `json:"total_valuation"`
	ByCategory       map[models.Category]CategoryBreakdown `json:"by_category"`
}

// Summary computes inventory statistics over every product, active or not.
func (s *ProductService) Summary(ctx context.Context) (*InventorySummary, error) {
	products, err := s.repo.GetAll(ctx, repositories.ProductFilter{})
	if err != nil {
		return nil, err
	}

	summary := &InventorySummary{
		ByCategory: make(map[models.Category]CategoryBreakdown),
	}
	for _, p := range products {
		valuation := p.Price * float64(p.Stock)

		summary.TotalProducts++
		summary.TotalStock += p.Stock
		summary.TotalValuation += valuation
		if p.Active {
			summary.ActiveProducts++
		} else {
			summary.InactiveProducts++
		}

		breakdown := summary.ByCategory[p.Category]
		breakdown.Count++
		breakdown.Stock += p.Stock
		breakdown.Valuation += valuation
		if p.Active {
			breakdown.Active++
		} else {
			breakdown.Inactive++
		}
		summary.ByCategory[p.Category] = breakdown
	}
	return summary, nil
}

// publish sends a catalog event, best effort. Reservation and creation have
// already committed by the time this runs, so a broker failure only logs.
func (s *ProductService) publish(routingKey string, payload map[string]interface{}) {
	if s.mqClient == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", routingKey, err)
		return
	}
	if err := s.mqClient.Publish(routingKey, body); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", routingKey, err)
	}
}
