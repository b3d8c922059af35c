package esim

import (
	"context"

	"esim-storefront/internal/domain"
)

type Repository interface {
	// Create returns domain.ErrAlreadyExists when the ICCID is already recorded.
	Create(ctx context.Context, e domain.Esim) (*domain.Esim, error)
	GetByID(ctx context.Context, id string) (*domain.Esim, error)
	GetByICCID(ctx context.Context, iccid string) (*domain.Esim, error)
	ListByOrder(ctx context.Context, orderID string) ([]domain.Esim, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Esim, error)
	UpdateUsage(ctx context.Context, iccid string, patch domain.EsimUsagePatch) (*domain.Esim, error)
}
