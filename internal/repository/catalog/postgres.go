package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"esim-storefront/internal/domain"
	"esim-storefront/internal/logging"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const countryColumns = `id::text, code, name, region, flag_emoji, min_price, package_count, popular,
COALESCE(custom_name, ''), COALESCE(slug, ''), included_countries, COALESCE(description, ''), created_at`

const packageColumns = `id::text, package_code, name, location_code, location_name, wholesale_price, retail_price,
currency, volume, duration, active_type, COALESCE(description, ''), last_synced_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

func (r *postgresRepo) ListCountries(ctx context.Context) ([]domain.Country, error) {
	q := `SELECT ` + countryColumns + ` FROM countries ORDER BY name ASC`
	return r.queryCountries(ctx, q)
}

func (r *postgresRepo) ListCountriesByRegion(ctx context.Context, region string) ([]domain.Country, error) {
	q := `SELECT ` + countryColumns + ` FROM countries WHERE region = $1 ORDER BY name ASC`
	return r.queryCountries(ctx, q, region)
}

func (r *postgresRepo) GetCountryByCode(ctx context.Context, code string) (*domain.Country, error) {
	q := `SELECT ` + countryColumns + ` FROM countries WHERE code = $1`
	return r.queryCountry(ctx, q, code)
}

func (r *postgresRepo) GetCountryBySlug(ctx context.Context, slug string) (*domain.Country, error) {
	q := `SELECT ` + countryColumns + ` FROM countries WHERE slug = $1`
	return r.queryCountry(ctx, q, slug)
}

func (r *postgresRepo) UpsertCountry(ctx context.Context, c domain.Country) (*domain.Country, error) {
	const q = `
INSERT INTO countries (id, code, name, region, flag_emoji, min_price, package_count, popular, custom_name, slug, included_countries, description)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''), $11, NULLIF($12, ''))
ON CONFLICT (code) DO UPDATE SET
    name = EXCLUDED.name,
    region = EXCLUDED.region,
    flag_emoji = EXCLUDED.flag_emoji,
    min_price = EXCLUDED.min_price,
    package_count = EXCLUDED.package_count,
    popular = EXCLUDED.popular,
    custom_name = EXCLUDED.custom_name,
    slug = EXCLUDED.slug,
    included_countries = EXCLUDED.included_countries,
    description = EXCLUDED.description
RETURNING ` + countryColumns
	out, err := scanCountry(r.pool.QueryRow(ctx, q, countryArgs(c)...))
	if err != nil {
		r.logger.Error("catalog repo: upsert country", zap.String("code", c.Code), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("catalog repo: upserted country", zap.String("code", out.Code), zap.String("id", out.ID))
	return out, nil
}

// UpsertCountries refreshes the sync-owned columns of existing rows and leaves
// bundle presentation fields (custom name, slug, included countries,
// description) untouched. New rows are inserted with whatever the batch carries.
func (r *postgresRepo) UpsertCountries(ctx context.Context, countries []domain.Country) (int, error) {
	const q = `
INSERT INTO countries (id, code, name, region, flag_emoji, min_price, package_count, popular, custom_name, slug, included_countries, description)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''), $11, NULLIF($12, ''))
ON CONFLICT (code) DO UPDATE SET
    name = EXCLUDED.name,
    region = EXCLUDED.region,
    flag_emoji = EXCLUDED.flag_emoji,
    min_price = EXCLUDED.min_price,
    package_count = EXCLUDED.package_count,
    popular = EXCLUDED.popular
`
	if len(countries) == 0 {
		return 0, nil
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, c := range countries {
		batch.Queue(q, countryArgs(c)...)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		r.logger.Error("catalog repo: upsert countries batch", zap.Int("size", len(countries)), zap.Error(err))
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	r.logger.Debug("catalog repo: upserted countries", zap.Int("count", len(countries)))
	return len(countries), nil
}

func (r *postgresRepo) ListPackages(ctx context.Context) ([]domain.Package, error) {
	q := `SELECT ` + packageColumns + ` FROM packages ORDER BY package_code ASC`
	return r.queryPackages(ctx, q)
}

func (r *postgresRepo) ListPackagesByLocation(ctx context.Context, locationCode string) ([]domain.Package, error) {
	q := `SELECT ` + packageColumns + ` FROM packages WHERE location_code = $1 ORDER BY volume ASC, duration ASC`
	return r.queryPackages(ctx, q, locationCode)
}

func (r *postgresRepo) GetPackageByCode(ctx context.Context, code string) (*domain.Package, error) {
	q := `SELECT ` + packageColumns + ` FROM packages WHERE package_code = $1`
	p, err := scanPackage(r.pool.QueryRow(ctx, q, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("catalog repo: get package", zap.String("package_code", code), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) GetPackagesByCodes(ctx context.Context, codes []string) ([]domain.Package, error) {
	if len(codes) == 0 {
		return []domain.Package{}, nil
	}
	q := `SELECT ` + packageColumns + ` FROM packages WHERE package_code = ANY($1) ORDER BY package_code ASC`
	return r.queryPackages(ctx, q, codes)
}

func (r *postgresRepo) SearchPackages(ctx context.Context, text string, limit int) ([]domain.Package, error) {
	q := `SELECT ` + packageColumns + `
FROM packages
WHERE location_name ILIKE $1 ESCAPE '\' OR name ILIKE $1 ESCAPE '\'
ORDER BY location_name ASC, name ASC
LIMIT $2`
	return r.queryPackages(ctx, q, "%"+escapeLike(text)+"%", limit)
}

func (r *postgresRepo) UpsertPackage(ctx context.Context, p domain.Package) (*domain.Package, error) {
	q := packageUpsertSQL + ` RETURNING ` + packageColumns
	out, err := scanPackage(r.pool.QueryRow(ctx, q, packageArgs(p)...))
	if err != nil {
		r.logger.Error("catalog repo: upsert package", zap.String("package_code", p.PackageCode), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("catalog repo: upserted package", zap.String("package_code", out.PackageCode), zap.String("id", out.ID))
	return out, nil
}

func (r *postgresRepo) UpsertPackages(ctx context.Context, packages []domain.Package) (int, error) {
	if len(packages) == 0 {
		return 0, nil
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, p := range packages {
		batch.Queue(packageUpsertSQL, packageArgs(p)...)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		r.logger.Error("catalog repo: upsert packages batch", zap.Int("size", len(packages)), zap.Error(err))
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	r.logger.Debug("catalog repo: upserted packages", zap.Int("count", len(packages)))
	return len(packages), nil
}

const packageUpsertSQL = `
INSERT INTO packages (id, package_code, name, location_code, location_name, wholesale_price, retail_price, currency, volume, duration, active_type, description, last_synced_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULLIF($12, ''), $13)
ON CONFLICT (package_code) DO UPDATE SET
    name = EXCLUDED.name,
    location_code = EXCLUDED.location_code,
    location_name = EXCLUDED.location_name,
    wholesale_price = EXCLUDED.wholesale_price,
    retail_price = EXCLUDED.retail_price,
    currency = EXCLUDED.currency,
    volume = EXCLUDED.volume,
    duration = EXCLUDED.duration,
    active_type = EXCLUDED.active_type,
    description = EXCLUDED.description,
    last_synced_at = EXCLUDED.last_synced_at
`

func packageArgs(p domain.Package) []any {
	synced := p.LastSyncedAt
	if synced.IsZero() {
		synced = time.Now().UTC()
	}
	return []any{
		uuid.NewString(),
		p.PackageCode,
		p.Name,
		p.LocationCode,
		p.LocationName,
		p.WholesalePrice,
		p.RetailPrice,
		p.Currency,
		p.Volume,
		p.Duration,
		p.ActiveType,
		p.Description,
		synced,
	}
}

func countryArgs(c domain.Country) []any {
	return []any{
		uuid.NewString(),
		c.Code,
		c.Name,
		c.Region,
		c.FlagEmoji,
		c.MinPrice,
		c.PackageCount,
		c.Popular,
		c.CustomName,
		c.Slug,
		c.IncludedCountries,
		c.Description,
	}
}

func (r *postgresRepo) queryCountry(ctx context.Context, q string, args ...any) (*domain.Country, error) {
	c, err := scanCountry(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("catalog repo: get country", zap.Any("args", args), zap.Error(err))
		return nil, err
	}
	return c, nil
}

func (r *postgresRepo) queryCountries(ctx context.Context, q string, args ...any) ([]domain.Country, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Error("catalog repo: list countries", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	result := []domain.Country{}
	for rows.Next() {
		c, err := scanCountry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("catalog repo: list countries rows", zap.Error(err))
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) queryPackages(ctx context.Context, q string, args ...any) ([]domain.Package, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Error("catalog repo: list packages", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	result := []domain.Package{}
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("catalog repo: list packages rows", zap.Error(err))
		return nil, err
	}
	return result, nil
}

func scanCountry(row pgx.Row) (*domain.Country, error) {
	var c domain.Country
	if err := row.Scan(
		&c.ID,
		&c.Code,
		&c.Name,
		&c.Region,
		&c.FlagEmoji,
		&c.MinPrice,
		&c.PackageCount,
		&c.Popular,
		&c.CustomName,
		&c.Slug,
		&c.IncludedCountries,
		&c.Description,
		&c.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanPackage(row pgx.Row) (*domain.Package, error) {
	var p domain.Package
	if err := row.Scan(
		&p.ID,
		&p.PackageCode,
		&p.Name,
		&p.LocationCode,
		&p.LocationName,
		&p.WholesalePrice,
		&p.RetailPrice,
		&p.Currency,
		&p.Volume,
		&p.Duration,
		&p.ActiveType,
		&p.Description,
		&p.LastSyncedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
