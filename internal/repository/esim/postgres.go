package esim

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

const columns = `id::text, order_id::text, user_id::text, iccid, COALESCE(imsi, ''), activation_code,
COALESCE(qr_code_url, ''), COALESCE(smdp_address, ''), status, package_code, package_name, location_name,
data_used, data_total, duration, activated_at, expires_at, created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

func (r *postgresRepo) Create(ctx context.Context, e domain.Esim) (*domain.Esim, error) {
	q := `
INSERT INTO esims (id, order_id, user_id, iccid, imsi, activation_code, qr_code_url, smdp_address, status,
                   package_code, package_name, location_name, data_used, data_total, duration, activated_at, expires_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, NULLIF($7, ''), NULLIF($8, ''), $9, $10, $11, $12, $13, $14, $15, $16, $17)
RETURNING ` + columns
	out, err := scanEsim(r.pool.QueryRow(ctx, q,
		uuid.NewString(),
		e.OrderID,
		e.UserID,
		e.ICCID,
		e.IMSI,
		e.ActivationCode,
		e.QRCodeURL,
		e.SMDPAddress,
		e.Status,
		e.PackageCode,
		e.PackageName,
		e.LocationName,
		e.DataUsed,
		e.DataTotal,
		e.Duration,
		e.ActivatedAt,
		e.ExpiresAt,
	))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Error("esim repo: create", zap.String("iccid", e.ICCID), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("esim repo: created", zap.String("iccid", out.ICCID), zap.String("order_id", out.OrderID))
	return out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Esim, error) {
	return r.get(ctx, `SELECT `+columns+` FROM esims WHERE id = $1`, id)
}

func (r *postgresRepo) GetByICCID(ctx context.Context, iccid string) (*domain.Esim, error) {
	return r.get(ctx, `SELECT `+columns+` FROM esims WHERE iccid = $1`, iccid)
}

func (r *postgresRepo) ListByOrder(ctx context.Context, orderID string) ([]domain.Esim, error) {
	return r.list(ctx, `SELECT `+columns+` FROM esims WHERE order_id = $1 ORDER BY created_at ASC`, orderID)
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Esim, error) {
	return r.list(ctx, `SELECT `+columns+` FROM esims WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *postgresRepo) UpdateUsage(ctx context.Context, iccid string, patch domain.EsimUsagePatch) (*domain.Esim, error) {
	q := `
UPDATE esims
SET status = $1,
    data_used = COALESCE($2, data_used),
    activated_at = COALESCE($3, activated_at),
    expires_at = COALESCE($4, expires_at)
WHERE iccid = $5
RETURNING ` + columns
	out, err := r.get(ctx, q, patch.Status, patch.DataUsed, patch.ActivatedAt, patch.ExpiresAt, iccid)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("esim repo: usage updated", zap.String("iccid", iccid), zap.String("status", string(out.Status)))
	return out, nil
}

func (r *postgresRepo) get(ctx context.Context, q string, args ...any) (*domain.Esim, error) {
	e, err := scanEsim(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("esim repo: get", zap.Error(err))
		return nil, err
	}
	return e, nil
}

func (r *postgresRepo) list(ctx context.Context, q string, arg string) ([]domain.Esim, error) {
	rows, err := r.pool.Query(ctx, q, arg)
	if err != nil {
		r.logger.Error("esim repo: list", zap.String("key", arg), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	result := []domain.Esim{}
	for rows.Next() {
		e, err := scanEsim(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}

func scanEsim(row pgx.Row) (*domain.Esim, error) {
	var e domain.Esim
	if err := row.Scan(
		&e.ID,
		&e.OrderID,
		&e.UserID,
		&e.ICCID,
		&e.IMSI,
		&e.ActivationCode,
		&e.QRCodeURL,
		&e.SMDPAddress,
		&e.Status,
		&e.PackageCode,
		&e.PackageName,
		&e.LocationName,
		&e.DataUsed,
		&e.DataTotal,
		&e.Duration,
		&e.ActivatedAt,
		&e.ExpiresAt,
		&e.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &e, nil
}
