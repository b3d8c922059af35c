package order

import (
	"context"

	"esim-storefront/internal/domain"
)

// StatusCheck validates a transition away from the stored status. It runs
// while the order row is locked.
type StatusCheck func(current domain.OrderStatus) error

type Repository interface {
	// Create returns domain.ErrAlreadyExists when the transaction id is taken.
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	// CreateFromCart inserts the order and empties the session's cart in one transaction.
	CreateFromCart(ctx context.Context, o domain.Order, sessionID string) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.Order, error)
	GetByStripeSessionID(ctx context.Context, sessionID string) (*domain.Order, error)
	// ListByUser returns the user's orders newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, patch domain.OrderStatusPatch, check StatusCheck) (*domain.Order, error)
}
