package services

import "errors"

var (
	// ErrInvalidQuantity rejects a reservation for a quantity below one. The
	// repository is never contacted in that case.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrNegativePrice rejects a create or update carrying a negative price.
	ErrNegativePrice = errors.New("price cannot be negative")

	// ErrNegativeStock rejects a create or update carrying a negative stock
	// level. Stock only decreases through reservations, which guard it.
	ErrNegativeStock = errors.New("stock cannot be negative")

	// ErrInvalidCategory rejects a category outside the fixed enumeration.
	ErrInvalidCategory = errors.New("unknown product category")

	// ErrInvalidCredentials is returned on a failed login. It deliberately
	// does not reveal whether the username exists.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUsernameTaken and ErrEmailTaken signal registration conflicts.
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already registered")
)
