package cart

import (
	"context"
	"errors"

	"esim-storefront/internal/db"
	"esim-storefront/internal/domain"
	"esim-storefront/internal/logging"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

func (r *postgresRepo) GetBySession(ctx context.Context, sessionID string) (*domain.Cart, error) {
	const q = `
SELECT id::text, session_id, user_id::text, items, updated_at
FROM carts
WHERE session_id = $1
`
	var c domain.Cart
	err := r.pool.QueryRow(ctx, q, sessionID).Scan(&c.ID, &c.SessionID, &c.UserID, &c.Items, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("cart repo: get", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}
	if c.Items == nil {
		c.Items = []domain.CartItem{}
	}
	return &c, nil
}

func (r *postgresRepo) Create(ctx context.Context, sessionID string, items []domain.CartItem) (*domain.Cart, error) {
	const q = `
INSERT INTO carts (id, session_id, items, updated_at)
VALUES ($1, $2, $3, now())
RETURNING id::text, session_id, user_id::text, items, updated_at
`
	if items == nil {
		items = []domain.CartItem{}
	}
	var c domain.Cart
	err := r.pool.QueryRow(ctx, q, uuid.NewString(), sessionID, items).Scan(&c.ID, &c.SessionID, &c.UserID, &c.Items, &c.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Error("cart repo: create", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("cart repo: created", zap.String("session_id", sessionID), zap.String("id", c.ID))
	return &c, nil
}

func (r *postgresRepo) SaveItems(ctx context.Context, sessionID string, items []domain.CartItem) error {
	const q = `
UPDATE carts
SET items = $1, updated_at = now()
WHERE session_id = $2
`
	if items == nil {
		items = []domain.CartItem{}
	}
	cmd, err := r.pool.Exec(ctx, q, items, sessionID)
	if err != nil {
		r.logger.Error("cart repo: save items", zap.String("session_id", sessionID), zap.Error(err))
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) LinkUser(ctx context.Context, sessionID, userID string) (bool, error) {
	const q = `
UPDATE carts
SET user_id = $1, updated_at = now()
WHERE session_id = $2
`
	cmd, err := r.pool.Exec(ctx, q, userID, sessionID)
	if err != nil {
		r.logger.Error("cart repo: link user", zap.String("session_id", sessionID), zap.String("user_id", userID), zap.Error(err))
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
