package user

import (
	"context"

	"esim-storefront/internal/domain"
)

// Repository persists users. Emails are stored lower-cased.
type Repository interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByClerkID(ctx context.Context, clerkID string) (*domain.User, error)
	// AttachIdentity links an external identity to an existing user. An empty
	// name keeps the stored one.
	AttachIdentity(ctx context.Context, id, clerkID, name string) (*domain.User, error)
}
