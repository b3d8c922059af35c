package catalog

import (
	"context"
	"sort"
	"strings"

	"esim-storefront/internal/domain"
	"esim-storefront/internal/logging"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// SearchLimit caps the number of packages returned by Search.
const SearchLimit = 20

// RegionOther is assigned to countries synthesized from package rows.
const RegionOther = "Other"

type catalogRepo interface {
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

// Service serves catalog reads with live aggregates and applies catalog sync writes.
type Service struct {
	repo      catalogRepo
	validate  *validator.Validate
	sanitizer *bluemonday.Policy
	logger    *zap.Logger
}

func New(repo catalogRepo, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		validate:  validator.New(),
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logging.OrNop(logger),
	}
}

// CountryFilter narrows ListCountries. Zero value lists everything.
type CountryFilter struct {
	Region      string
	PopularOnly bool
}

// ListCountries returns countries with packageCount and minPrice recomputed
// from the live package rows. When no country rows exist but packages do,
// entries are synthesized from two-letter location codes.
func (s *Service) ListCountries(ctx context.Context, filter CountryFilter) ([]domain.Country, error) {
	var (
		countries []domain.Country
		err       error
	)
	if filter.Region != "" {
		countries, err = s.repo.ListCountriesByRegion(ctx, filter.Region)
	} else {
		countries, err = s.repo.ListCountries(ctx)
	}
	if err != nil {
		return nil, errors.Wrap(err, "list countries")
	}

	packages, err := s.repo.ListPackages(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list packages")
	}
	stats := aggregate(packages)

	synthesize := len(countries) == 0 && len(packages) > 0
	if synthesize && filter.Region != "" {
		// Only an empty table falls back, not an empty region.
		synthesize = false
		if filter.Region == RegionOther {
			all, err := s.repo.ListCountries(ctx)
			if err != nil {
				return nil, errors.Wrap(err, "list countries")
			}
			synthesize = len(all) == 0
		}
	}
	if synthesize {
		countries = synthesizeCountries(packages, stats)
	} else {
		for i := range countries {
			st := stats[countries[i].Code]
			countries[i].PackageCount = st.count
			countries[i].MinPrice = st.minPrice
		}
	}

	if filter.PopularOnly {
		popular := countries[:0]
		for _, c := range countries {
			if c.Popular {
				popular = append(popular, c)
			}
		}
		countries = popular
	}
	return countries, nil
}

// GetCountryByCode looks the code up case-insensitively and refreshes its
// aggregates. Cached values are kept only when the location has no packages.
func (s *Service) GetCountryByCode(ctx context.Context, code string) (*domain.Country, error) {
	code = normalizeCode(code)
	if code == "" {
		return nil, domain.ErrNotFound
	}
	c, err := s.repo.GetCountryByCode(ctx, code)
	if err != nil {
		return nil, errors.Wrapf(err, "get country %s", code)
	}
	if err := s.refreshStats(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListPackagesByLocation returns the location's packages ordered by volume, then duration.
func (s *Service) ListPackagesByLocation(ctx context.Context, code string) ([]domain.Package, error) {
	code = normalizeCode(code)
	packages, err := s.repo.ListPackagesByLocation(ctx, code)
	if err != nil {
		return nil, errors.Wrapf(err, "list packages for %s", code)
	}
	sortPackages(packages)
	return packages, nil
}

func (s *Service) GetPackageByCode(ctx context.Context, code string) (*domain.Package, error) {
	p, err := s.repo.GetPackageByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, errors.Wrapf(err, "get package %s", code)
	}
	return p, nil
}

// GetPackagesByCodes returns the packages that exist; unknown codes are skipped.
func (s *Service) GetPackagesByCodes(ctx context.Context, codes []string) ([]domain.Package, error) {
	seen := make(map[string]struct{}, len(codes))
	unique := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		unique = append(unique, c)
	}
	if len(unique) == 0 {
		return []domain.Package{}, nil
	}
	packages, err := s.repo.GetPackagesByCodes(ctx, unique)
	if err != nil {
		return nil, errors.Wrap(err, "get packages by codes")
	}
	return packages, nil
}

// Search matches text against location and package names, case-insensitively.
func (s *Service) Search(ctx context.Context, text string) ([]domain.Package, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []domain.Package{}, nil
	}
	packages, err := s.repo.SearchPackages(ctx, text, SearchLimit)
	if err != nil {
		return nil, errors.Wrap(err, "search packages")
	}
	if len(packages) > SearchLimit {
		packages = packages[:SearchLimit]
	}
	return packages, nil
}

// ListBundles returns the multi-country bundles with live aggregates.
func (s *Service) ListBundles(ctx context.Context) ([]domain.Country, error) {
	return s.ListCountries(ctx, CountryFilter{Region: domain.RegionBundle})
}

// GetBundle resolves a bundle by slug first, then by code.
func (s *Service) GetBundle(ctx context.Context, codeOrSlug string) (*domain.Country, error) {
	key := strings.TrimSpace(codeOrSlug)
	if key == "" {
		return nil, domain.ErrNotFound
	}
	b, err := s.repo.GetCountryBySlug(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		b, err = s.repo.GetCountryByCode(ctx, normalizeCode(key))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get bundle %s", key)
	}
	if !b.IsBundle() {
		return nil, errors.Wrapf(domain.ErrNotFound, "get bundle %s", key)
	}
	if err := s.refreshStats(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// GetBundlePackages lists packages whose location code is the bundle's code.
func (s *Service) GetBundlePackages(ctx context.Context, codeOrSlug string) ([]domain.Package, error) {
	b, err := s.GetBundle(ctx, codeOrSlug)
	if err != nil {
		return nil, err
	}
	return s.ListPackagesByLocation(ctx, b.Code)
}

func (s *Service) UpsertPackage(ctx context.Context, p domain.Package) (*domain.Package, error) {
	p, err := s.preparePackage(p)
	if err != nil {
		return nil, err
	}
	out, err := s.repo.UpsertPackage(ctx, p)
	if err != nil {
		return nil, errors.Wrapf(err, "upsert package %s", p.PackageCode)
	}
	return out, nil
}

// UpsertPackages validates the whole batch before writing any of it.
func (s *Service) UpsertPackages(ctx context.Context, packages []domain.Package) (int, error) {
	prepared := make([]domain.Package, 0, len(packages))
	for _, p := range packages {
		p, err := s.preparePackage(p)
		if err != nil {
			return 0, err
		}
		prepared = append(prepared, p)
	}
	n, err := s.repo.UpsertPackages(ctx, prepared)
	if err != nil {
		return 0, errors.Wrap(err, "upsert packages")
	}
	s.logger.Info("catalog: packages upserted", zap.Int("count", n))
	return n, nil
}

// UpsertCountry overwrites every field of the country, bundle fields included.
func (s *Service) UpsertCountry(ctx context.Context, c domain.Country) (*domain.Country, error) {
	c, err := s.prepareCountry(c)
	if err != nil {
		return nil, err
	}
	out, err := s.repo.UpsertCountry(ctx, c)
	if err != nil {
		return nil, errors.Wrapf(err, "upsert country %s", c.Code)
	}
	return out, nil
}

// UpsertCountries refreshes sync-owned fields only; custom bundle fields of
// existing rows survive.
func (s *Service) UpsertCountries(ctx context.Context, countries []domain.Country) (int, error) {
	prepared := make([]domain.Country, 0, len(countries))
	for _, c := range countries {
		c, err := s.prepareCountry(c)
		if err != nil {
			return 0, err
		}
		prepared = append(prepared, c)
	}
	n, err := s.repo.UpsertCountries(ctx, prepared)
	if err != nil {
		return 0, errors.Wrap(err, "upsert countries")
	}
	s.logger.Info("catalog: countries upserted", zap.Int("count", n))
	return n, nil
}

// RefreshCountryStats writes live aggregates back into the cached country
// columns and creates rows for two-letter locations that have none.
func (s *Service) RefreshCountryStats(ctx context.Context) (int, error) {
	countries, err := s.repo.ListCountries(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "list countries")
	}
	packages, err := s.repo.ListPackages(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "list packages")
	}
	stats := aggregate(packages)

	known := make(map[string]struct{}, len(countries))
	for i := range countries {
		known[countries[i].Code] = struct{}{}
		st := stats[countries[i].Code]
		countries[i].PackageCount = st.count
		countries[i].MinPrice = st.minPrice
	}
	for _, c := range synthesizeCountries(packages, stats) {
		if _, ok := known[c.Code]; !ok {
			countries = append(countries, c)
		}
	}
	return s.UpsertCountries(ctx, countries)
}

func (s *Service) refreshStats(ctx context.Context, c *domain.Country) error {
	packages, err := s.repo.ListPackagesByLocation(ctx, c.Code)
	if err != nil {
		return errors.Wrapf(err, "list packages for %s", c.Code)
	}
	if len(packages) == 0 {
		return nil
	}
	st := aggregate(packages)[c.Code]
	c.PackageCount = st.count
	c.MinPrice = st.minPrice
	return nil
}

func (s *Service) preparePackage(p domain.Package) (domain.Package, error) {
	p.PackageCode = strings.TrimSpace(p.PackageCode)
	p.LocationCode = normalizeCode(p.LocationCode)
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
	if err := s.validate.Struct(p); err != nil {
		return p, errors.Wrapf(domain.ErrInvalidInput, "package %q: %v", p.PackageCode, err)
	}
	return p, nil
}

func (s *Service) prepareCountry(c domain.Country) (domain.Country, error) {
	c.Code = normalizeCode(c.Code)
	c.Name = strings.TrimSpace(c.Name)
	c.Slug = strings.ToLower(strings.TrimSpace(c.Slug))
	if c.Code == "" || c.Name == "" || c.Region == "" {
		return c, errors.Wrapf(domain.ErrInvalidInput, "country %q: code, name and region are required", c.Code)
	}
	if c.FlagEmoji == "" {
		c.FlagEmoji = FlagEmoji(c.Code)
	}
	if c.Description != "" {
		c.Description = s.sanitizer.Sanitize(c.Description)
	}
	return c, nil
}

type locationStats struct {
	count    int
	minPrice int64
}

func aggregate(packages []domain.Package) map[string]locationStats {
	stats := make(map[string]locationStats)
	for _, p := range packages {
		st, ok := stats[p.LocationCode]
		if !ok || p.RetailPrice < st.minPrice {
			st.minPrice = p.RetailPrice
		}
		st.count++
		stats[p.LocationCode] = st
	}
	return stats
}

func synthesizeCountries(packages []domain.Package, stats map[string]locationStats) []domain.Country {
	seen := make(map[string]struct{})
	var out []domain.Country
	for _, p := range packages {
		code := p.LocationCode
		if len(code) != 2 {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		name := p.LocationName
		if name == "" {
			name = code
		}
		st := stats[code]
		out = append(out, domain.Country{
			Code:         code,
			Name:         name,
			Region:       RegionOther,
			FlagEmoji:    FlagEmoji(code),
			MinPrice:     st.minPrice,
			PackageCount: st.count,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if out == nil {
		out = []domain.Country{}
	}
	return out
}

func sortPackages(packages []domain.Package) {
	sort.SliceStable(packages, func(i, j int) bool {
		if packages[i].Volume != packages[j].Volume {
			return packages[i].Volume < packages[j].Volume
		}
		return packages[i].Duration < packages[j].Duration
	})
}

// FlagEmoji maps a two-letter code to its regional indicator pair. Other
// inputs yield an empty string.
func FlagEmoji(code string) string {
	code = strings.ToUpper(code)
	if len(code) != 2 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < 2; i++ {
		ch := code[i]
		if ch < 'A' || ch > 'Z' {
			return ""
		}
		b.WriteRune(rune(0x1F1E6 + int(ch-'A')))
	}
	return b.String()
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
