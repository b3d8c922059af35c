// Package seed loads a small demo catalog for local development.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"io"
	"time"

	"esim-storefront/internal/domain"
	"esim-storefront/internal/logging"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

const megabyte = 1 << 20

// CatalogWriter is the subset of the catalog service seeding needs.
type CatalogWriter interface {
	UpsertCountries(ctx context.Context, countries []domain.Country) (int, error)
	UpsertCountry(ctx context.Context, c domain.Country) (*domain.Country, error)
	UpsertPackages(ctx context.Context, packages []domain.Package) (int, error)
	RefreshCountryStats(ctx context.Context) (int, error)
}

// Catalog is the on-disk seed format.
type Catalog struct {
	Countries []countryEntry `yaml:"countries"`
	Bundles   []bundleEntry  `yaml:"bundles"`
	Packages  []packageEntry `yaml:"packages"`
}

type countryEntry struct {
	Code    string `yaml:"code"`
	Name    string `yaml:"name"`
	Region  string `yaml:"region"`
	Popular bool   `yaml:"popular"`
}

type bundleEntry struct {
	Code              string   `yaml:"code"`
	Name              string   `yaml:"name"`
	CustomName        string   `yaml:"custom_name"`
	Slug              string   `yaml:"slug"`
	IncludedCountries []string `yaml:"included_countries"`
	Description       string   `yaml:"description"`
}

type packageEntry struct {
	Code         string `yaml:"code"`
	Name         string `yaml:"name"`
	Location     string `yaml:"location"`
	LocationName string `yaml:"location_name"`
	Wholesale    int64  `yaml:"wholesale"`
	Retail       int64  `yaml:"retail"`
	Currency     string `yaml:"currency"`
	VolumeMB     int64  `yaml:"volume_mb"`
	Days         int    `yaml:"days"`
	ActiveType   int    `yaml:"active_type"`
}

// Load parses a seed catalog.
func Load(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, errors.Wrap(err, "decode seed catalog")
	}
	return &c, nil
}

// Default returns the embedded demo catalog.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

// Apply writes the catalog through w. It is idempotent: rows are matched by
// country and package code.
func Apply(ctx context.Context, w CatalogWriter, c *Catalog, logger *zap.Logger) error {
	logger = logging.OrNop(logger)
	now := time.Now().UTC()

	countries := make([]domain.Country, 0, len(c.Countries))
	for _, e := range c.Countries {
		countries = append(countries, domain.Country{Code: e.Code, Name: e.Name, Region: e.Region, Popular: e.Popular})
	}
	if _, err := w.UpsertCountries(ctx, countries); err != nil {
		return errors.Wrap(err, "seed countries")
	}

	for _, b := range c.Bundles {
		_, err := w.UpsertCountry(ctx, domain.Country{
			Code:              b.Code,
			Name:              b.Name,
			Region:            domain.RegionBundle,
			FlagEmoji:         "🌍",
			CustomName:        b.CustomName,
			Slug:              b.Slug,
			IncludedCountries: b.IncludedCountries,
			Description:       b.Description,
		})
		if err != nil {
			return errors.Wrapf(err, "seed bundle %s", b.Code)
		}
	}

	packages := make([]domain.Package, 0, len(c.Packages))
	for _, p := range c.Packages {
		currency := p.Currency
		if currency == "" {
			currency = "USD"
		}
		packages = append(packages, domain.Package{
			PackageCode:    p.Code,
			Name:           p.Name,
			LocationCode:   p.Location,
			LocationName:   p.LocationName,
			WholesalePrice: p.Wholesale,
			RetailPrice:    p.Retail,
			Currency:       currency,
			Volume:         p.VolumeMB * megabyte,
			Duration:       p.Days,
			ActiveType:     p.ActiveType,
			LastSyncedAt:   now,
		})
	}
	if _, err := w.UpsertPackages(ctx, packages); err != nil {
		return errors.Wrap(err, "seed packages")
	}

	n, err := w.RefreshCountryStats(ctx)
	if err != nil {
		return errors.Wrap(err, "refresh country stats")
	}
	logger.Info("seed: catalog applied",
		zap.Int("countries", len(countries)),
		zap.Int("bundles", len(c.Bundles)),
		zap.Int("packages", len(packages)),
		zap.Int("refreshed", n),
	)
	return nil
}
