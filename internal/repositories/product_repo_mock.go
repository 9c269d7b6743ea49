package repositories

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"catalog/internal/models"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
// The mutex stands in for the database's per-row atomicity: ReserveStock
// checks and decrements under one critical section, mirroring the single
// conditional UPDATE of the GORM implementation.
type MockProductRepository struct {
	products map[string]models.Product
	names    map[string]string // name -> id, for the uniqueness constraint
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[string]models.Product),
		names:    make(map[string]string),
	}
}

// GetAll returns products matching the filter.
func (r *MockProductRepository) GetAll(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if filter.Category != nil && p.Category != *filter.Category {
			continue
		}
		if filter.Active != nil && p.Active != *filter.Active {
			continue
		}
		productList = append(productList, p)
	}
	return productList, nil
}

// GetByID returns a product by its ID, or (nil, nil) when absent.
func (r *MockProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	return &product, nil
}

// Create adds a new product.
func (r *MockProductRepository) Create(ctx context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, taken := r.names[product.Name]; taken && owner != product.ID {
		return ErrDuplicateName
	}
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	product.Active = true
	r.products[product.ID] = *product
	r.names[product.Name] = product.ID
	return nil
}

// Update modifies an existing product, preserving its active flag.
func (r *MockProductRepository) Update(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		return ErrMissingID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.products[product.ID]
	if !ok {
		return ErrProductNotFound
	}
	if owner, taken := r.names[product.Name]; taken && owner != product.ID {
		return ErrDuplicateName
	}

	delete(r.names, current.Name)
	updated := *product
	updated.Active = current.Active
	r.products[updated.ID] = updated
	r.names[updated.Name] = updated.ID
	return nil
}

// Delete marks a product inactive; unknown IDs are ignored.
func (r *MockProductRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil
	}
	product.Active = false
	r.products[id] = product
	return nil
}

// Activate marks a product active again.
func (r *MockProductRepository) Activate(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return ErrProductNotFound
	}
	product.Active = true
	r.products[id] = product
	return nil
}

// ReserveStock decrements stock when the product is active and sufficiently
// stocked, atomically with respect to other callers.
func (r *MockProductRepository) ReserveStock(ctx context.Context, id string, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok || !product.Active || product.Stock < qty {
		return ErrInsufficientStock
	}
	product.Stock -= qty
	r.products[id] = product
	return nil
}
