package user

import (
	"context"
	"errors"
	"strings"

	"esim-storefront/internal/db"
	"esim-storefront/internal/domain"
	"esim-storefront/internal/logging"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const columns = `id::text, email, COALESCE(name, ''), clerk_id, role, created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

func (r *postgresRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	role := u.Role
	if role == "" {
		role = domain.RoleUser
	}
	q := `
INSERT INTO users (id, email, name, clerk_id, role)
VALUES ($1, $2, NULLIF($3, ''), $4, $5)
RETURNING ` + columns
	out, err := r.scan(r.pool.QueryRow(ctx, q, uuid.NewString(), strings.ToLower(strings.TrimSpace(u.Email)), u.Name, u.ClerkID, role))
	if err != nil {
		return nil, err
	}
	r.logger.Debug("user repo: created", zap.String("id", out.ID), zap.Bool("guest", out.ClerkID == nil))
	return out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM users WHERE id = $1`, id))
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM users WHERE email = lower($1)`, strings.TrimSpace(email)))
}

func (r *postgresRepo) GetByClerkID(ctx context.Context, clerkID string) (*domain.User, error) {
	return r.scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM users WHERE clerk_id = $1`, clerkID))
}

func (r *postgresRepo) AttachIdentity(ctx context.Context, id, clerkID, name string) (*domain.User, error) {
	q := `
UPDATE users
SET clerk_id = $1, name = COALESCE(NULLIF($2, ''), name)
WHERE id = $3
RETURNING ` + columns
	return r.scan(r.pool.QueryRow(ctx, q, clerkID, name, id))
}

func (r *postgresRepo) scan(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.ClerkID, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if db.IsUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Error("user repo: scan", zap.Error(err))
		return nil, err
	}
	return &u, nil
}
