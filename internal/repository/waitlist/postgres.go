package waitlist

import (
	"context"
	"errors"

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

func (r *postgresRepo) Add(ctx context.Context, email string) (bool, error) {
	const q = `
INSERT INTO waitlist (id, email)
VALUES ($1, $2)
ON CONFLICT (email) DO NOTHING
RETURNING id::text
`
	var id string
	err := r.pool.QueryRow(ctx, q, uuid.NewString(), email).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		r.logger.Error("waitlist repo: add", zap.Error(err))
		return false, err
	}
	return true, nil
}

func (r *postgresRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM waitlist`).Scan(&n); err != nil {
		r.logger.Error("waitlist repo: count", zap.Error(err))
		return 0, err
	}
	return n, nil
}
