package models

import "time"

// Product represents a catalog item. Active implements soft deletion: an
// inactive product stays addressable by ID but is excluded from active-only
// listings and from stock reservation. The flag is persisted, not part of
// the product's public shape, so it never serializes.
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string    `json:"name" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Description string    `json:"description" gorm:"type:varchar(500)" validate:"omitempty,max=500"`
	Price       float64   `json:"price" validate:"gte=0"`
	Category    Category  `json:"category" gorm:"type:varchar(32);index:idx_products_category_active" validate:"required"`
	Stock       int       `json:"stock" validate:"gte=0"`
	Active      bool      `json:"-" gorm:"index:idx_products_category_active"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}
