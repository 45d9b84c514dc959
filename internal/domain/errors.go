package domain

import "errors"

var (
	ErrOutletNotFound       = errors.New("outlet not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
)
