package seed

import (
	"context"
	"strings"
	"testing"

	"esim-storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	countries []domain.Country
	bundles   []domain.Country
	packages  []domain.Package
	refreshed bool
}

func (w *recordingWriter) UpsertCountries(_ context.Context, cs []domain.Country) (int, error) {
	w.countries = append(w.countries, cs...)
	return len(cs), nil
}

func (w *recordingWriter) UpsertCountry(_ context.Context, c domain.Country) (*domain.Country, error) {
	w.bundles = append(w.bundles, c)
	return &c, nil
}

func (w *recordingWriter) UpsertPackages(_ context.Context, ps []domain.Package) (int, error) {
	w.packages = append(w.packages, ps...)
	return len(ps), nil
}

func (w *recordingWriter) RefreshCountryStats(context.Context) (int, error) {
	w.refreshed = true
	return 0, nil
}

func TestDefaultCatalogApplies(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	w := &recordingWriter{}
	require.NoError(t, Apply(context.Background(), w, cat, nil))

	assert.NotEmpty(t, w.countries)
	assert.True(t, w.refreshed)
	for _, b := range w.bundles {
		assert.Equal(t, domain.RegionBundle, b.Region)
		assert.NotEmpty(t, b.Slug)
	}
	locations := map[string]bool{}
	for _, c := range w.countries {
		locations[c.Code] = true
	}
	for _, b := range w.bundles {
		locations[b.Code] = true
	}
	for _, p := range w.packages {
		assert.True(t, locations[p.LocationCode], "package %s has no location row", p.PackageCode)
		assert.Positive(t, p.Volume)
		assert.Equal(t, "USD", p.Currency)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(strings.NewReader("countries:\n  - {code: JP, colour: red}\n"))
	assert.Error(t, err)
}

func TestLoadConvertsVolume(t *testing.T) {
	cat, err := Load(strings.NewReader(`packages:
  - {code: X-1, name: X, location: XX, location_name: X, retail: 100, volume_mb: 2, days: 1}
`))
	require.NoError(t, err)

	w := &recordingWriter{}
	require.NoError(t, Apply(context.Background(), w, cat, nil))
	require.Len(t, w.packages, 1)
	assert.Equal(t, int64(2*megabyte), w.packages[0].Volume)
}
