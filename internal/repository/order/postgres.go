package order

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

const columns = `id::text, user_id::text, order_no, transaction_id, status, total_amount,
stripe_session_id, stripe_payment_intent_id, items, customer_email, created_at, updated_at`

const insertSQL = `
INSERT INTO orders (id, user_id, order_no, transaction_id, status, total_amount, stripe_session_id, stripe_payment_intent_id, items, customer_email, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
RETURNING ` + columns

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	out, err := scanOrder(r.pool.QueryRow(ctx, insertSQL, insertArgs(o)...))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Error("order repo: create", zap.String("transaction_id", o.TransactionID), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("order repo: created", zap.String("id", out.ID), zap.String("transaction_id", out.TransactionID))
	return out, nil
}

func (r *postgresRepo) CreateFromCart(ctx context.Context, o domain.Order, sessionID string) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	out, err := scanOrder(tx.QueryRow(ctx, insertSQL, insertArgs(o)...))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Error("order repo: create from cart", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	if _, err := tx.Exec(ctx, `UPDATE carts SET items = '[]'::jsonb, updated_at = now() WHERE session_id = $1`, sessionID); err != nil {
		r.logger.Error("order repo: clear cart", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Debug("order repo: created from cart", zap.String("id", out.ID), zap.String("session_id", sessionID))
	return out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.get(ctx, `SELECT `+columns+` FROM orders WHERE id = $1`, id)
}

func (r *postgresRepo) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Order, error) {
	return r.get(ctx, `SELECT `+columns+` FROM orders WHERE transaction_id = $1`, transactionID)
}

func (r *postgresRepo) GetByStripeSessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	return r.get(ctx, `SELECT `+columns+` FROM orders WHERE stripe_session_id = $1`, sessionID)
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		r.logger.Error("order repo: list by user", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	result := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, patch domain.OrderStatusPatch, check StatusCheck) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var current domain.OrderStatus
	if err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if check != nil {
		if err := check(current); err != nil {
			return nil, err
		}
	}

	q := `
UPDATE orders
SET status = $1,
    order_no = COALESCE($2, order_no),
    stripe_payment_intent_id = COALESCE($3, stripe_payment_intent_id),
    updated_at = now()
WHERE id = $4
RETURNING ` + columns
	out, err := scanOrder(tx.QueryRow(ctx, q, patch.Status, patch.OrderNo, patch.StripePaymentIntentID, id))
	if err != nil {
		r.logger.Error("order repo: update status", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Debug("order repo: status updated", zap.String("id", id), zap.String("from", string(current)), zap.String("to", string(out.Status)))
	return out, nil
}

func (r *postgresRepo) get(ctx context.Context, q string, arg string) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, q, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("order repo: get", zap.String("key", arg), zap.Error(err))
		return nil, err
	}
	return o, nil
}

func insertArgs(o domain.Order) []any {
	items := o.Items
	if items == nil {
		items = []domain.OrderItem{}
	}
	return []any{
		uuid.NewString(),
		o.UserID,
		o.OrderNo,
		o.TransactionID,
		o.Status,
		o.TotalAmount,
		o.StripeSessionID,
		o.StripePaymentIntentID,
		items,
		o.CustomerEmail,
	}
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	if err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.OrderNo,
		&o.TransactionID,
		&o.Status,
		&o.TotalAmount,
		&o.StripeSessionID,
		&o.StripePaymentIntentID,
		&o.Items,
		&o.CustomerEmail,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &o, nil
}
