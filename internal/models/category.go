package models

// Category classifies a product. The set is fixed; anything outside it is
// rejected at the service boundary.
type Category string

const (
	CategoryLunch   Category = "Lanche"
	CategorySides   Category = "Acompanhamento"
	CategoryDrink   Category = "Bebida"
	CategoryDessert Category = "Sobremesa"
)

// Categories lists every valid category.
func Categories() []Category {
	return []Category{CategoryLunch, CategorySides, CategoryDrink, CategoryDessert}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryLunch, CategorySides, CategoryDrink, CategoryDessert:
		return true
	}
	return false
}
