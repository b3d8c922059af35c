package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a unique key is already taken.
	ErrAlreadyExists = errors.New("already exists")
	// ErrEmptyCart is returned when checkout is attempted on a cart without items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrPackageNotFound indicates a cart line references a package that left the catalog.
	ErrPackageNotFound = errors.New("package not found")
	// ErrInvalidInput marks payloads that fail validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidTransition is returned for order status changes that move backwards or leave a terminal state.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// PackageNotFoundError names the package code that could not be resolved.
type PackageNotFoundError struct {
	Code string
}

func (e *PackageNotFoundError) Error() string {
	return fmt.Sprintf("package not found: %s", e.Code)
}

func (e *PackageNotFoundError) Unwrap() error {
	return ErrPackageNotFound
}
