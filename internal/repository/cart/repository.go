package cart

import (
	"context"

	"esim-storefront/internal/domain"
)

// Repository stores one cart per session.
type Repository interface {
	// GetBySession returns domain.ErrNotFound when the session has no cart.
	GetBySession(ctx context.Context, sessionID string) (*domain.Cart, error)
	// Create returns domain.ErrAlreadyExists when a cart for the session exists.
	Create(ctx context.Context, sessionID string, items []domain.CartItem) (*domain.Cart, error)
	// SaveItems replaces the line items of an existing cart.
	SaveItems(ctx context.Context, sessionID string, items []domain.CartItem) error
	// LinkUser reports whether a cart existed for the session.
	LinkUser(ctx context.Context, sessionID, userID string) (bool, error)
}
