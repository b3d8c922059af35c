package catalog

import (
	"context"

	"esim-storefront/internal/domain"
)

// Repository persists countries, bundles and packages. Lookups that miss
// return domain.ErrNotFound.
type Repository interface {
	ListCountries(ctx context.Context) ([]domain.Country, error)
	ListCountriesByRegion(ctx context.Context, region string) ([]domain.Country, error)
	GetCountryByCode(ctx context.Context, code string) (*domain.Country, error)
	GetCountryBySlug(ctx context.Context, slug string) (*domain.Country, error)
	UpsertCountry(ctx context.Context, c domain.Country) (*domain.Country, error)
	UpsertCountries(ctx context.Context, countries []domain.Country) (int, error)

	ListPackages(ctx context.Context) ([]domain.Package, error)
	ListPackagesByLocation(ctx context.Context, locationCode string) ([]domain.Package, error)
	GetPackageByCode(ctx context.Context, code string) (*domain.Package, error)
	GetPackagesByCodes(ctx context.Context, codes []string) ([]domain.Package, error)
	SearchPackages(ctx context.Context, text string, limit int) ([]domain.Package, error)
	UpsertPackage(ctx context.Context, p domain.Package) (*domain.Package, error)
	UpsertPackages(ctx context.Context, packages []domain.Package) (int, error)
}
