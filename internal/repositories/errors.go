package repositories

import "errors"

var (
	// ErrProductNotFound is returned when an operation targets an ID that
	// does not exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrInsufficientStock is returned when a reservation's conditional
	// decrement matched no row. The product is missing, inactive, or short
	// on stock; the cases are deliberately not distinguished because a
	// follow-up lookup would race against concurrent reservations.
	ErrInsufficientStock = errors.New("insufficient stock or product inactive")

	// ErrDuplicateName is returned when a create or update violates the
	// unique product name constraint.
	ErrDuplicateName = errors.New("product name already taken")

	// ErrMissingID is returned when an update is attempted on a product
	// that has no identity yet.
	ErrMissingID = errors.New("product id required")
)
