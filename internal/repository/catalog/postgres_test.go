package catalog

import (
	"context"
	"errors"
	"testing"

	"esim-storefront/internal/db/dbtest"
	"esim-storefront/internal/domain"
)

func TestPostgres_UpsertAndGetPackage(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgres(dbtest.Pool(ctx, t), nil)

	created, err := repo.UpsertPackage(ctx, domain.Package{
		PackageCode:  "JP-1GB-7D",
		Name:         "Japan 1GB 7 Days",
		LocationCode: "JP",
		LocationName: "Japan",
		RetailPrice:  450,
		Currency:     "USD",
		Volume:       1 << 30,
		Duration:     7,
	})
	if err != nil {
		t.Fatalf("UpsertPackage insert: %v", err)
	}

	updated, err := repo.UpsertPackage(ctx, domain.Package{
		PackageCode:  "JP-1GB-7D",
		Name:         "Japan 1GB 7 Days",
		LocationCode: "JP",
		LocationName: "Japan",
		RetailPrice:  399,
		Currency:     "USD",
		Volume:       1 << 30,
		Duration:     7,
	})
	if err != nil {
		t.Fatalf("UpsertPackage update: %v", err)
	}
	if updated.ID != created.ID || updated.RetailPrice != 399 {
		t.Fatalf("expected in-place update, got %+v", updated)
	}

	got, err := repo.GetPackageByCode(ctx, "JP-1GB-7D")
	if err != nil {
		t.Fatalf("GetPackageByCode: %v", err)
	}
	if got.RetailPrice != 399 {
		t.Fatalf("unexpected package %+v", got)
	}

	if _, err := repo.GetPackageByCode(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPostgres_SearchPackagesCapsAndMatches(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgres(dbtest.Pool(ctx, t), nil)

	batch := []domain.Package{
		{PackageCode: "TH-1", Name: "Thailand 1GB", LocationCode: "TH", LocationName: "Thailand", RetailPrice: 300, Currency: "USD", Volume: 1, Duration: 7},
		{PackageCode: "TH-2", Name: "Thailand 3GB", LocationCode: "TH", LocationName: "Thailand", RetailPrice: 700, Currency: "USD", Volume: 3, Duration: 15},
		{PackageCode: "FR-1", Name: "France 100%", LocationCode: "FR", LocationName: "France", RetailPrice: 500, Currency: "USD", Volume: 1, Duration: 7},
	}
	if n, err := repo.UpsertPackages(ctx, batch); err != nil || n != 3 {
		t.Fatalf("UpsertPackages: n=%d err=%v", n, err)
	}

	res, err := repo.SearchPackages(ctx, "thai", 20)
	if err != nil {
		t.Fatalf("SearchPackages: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(res))
	}

	res, err = repo.SearchPackages(ctx, "%", 20)
	if err != nil {
		t.Fatalf("SearchPackages: %v", err)
	}
	if len(res) != 1 || res[0].PackageCode != "FR-1" {
		t.Fatalf("expected literal percent match, got %+v", res)
	}

	res, err = repo.SearchPackages(ctx, "", 2)
	if err != nil {
		t.Fatalf("SearchPackages: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("expected limit to apply, got %d", len(res))
	}
}

func TestPostgres_UpsertCountriesPreservesBundleFields(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgres(dbtest.Pool(ctx, t), nil)

	_, err := repo.UpsertCountry(ctx, domain.Country{
		Code:              "EU-42",
		Name:              "Europe",
		Region:            domain.RegionBundle,
		CustomName:        "Europe 42",
		Slug:              "europe",
		IncludedCountries: []string{"France", "Germany"},
		Description:       "Roam across Europe",
	})
	if err != nil {
		t.Fatalf("UpsertCountry: %v", err)
	}

	n, err := repo.UpsertCountries(ctx, []domain.Country{
		{Code: "EU-42", Name: "Europe (42 areas)", Region: domain.RegionBundle, MinPrice: 900, PackageCount: 4},
	})
	if err != nil || n != 1 {
		t.Fatalf("UpsertCountries: n=%d err=%v", n, err)
	}

	got, err := repo.GetCountryBySlug(ctx, "europe")
	if err != nil {
		t.Fatalf("GetCountryBySlug: %v", err)
	}
	if got.Name != "Europe (42 areas)" || got.MinPrice != 900 || got.PackageCount != 4 {
		t.Fatalf("sync fields not refreshed: %+v", got)
	}
	if got.CustomName != "Europe 42" || got.Description != "Roam across Europe" || len(got.IncludedCountries) != 2 {
		t.Fatalf("bundle fields overwritten: %+v", got)
	}
}

func TestPostgres_ListPackagesByLocationSorted(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgres(dbtest.Pool(ctx, t), nil)

	_, err := repo.UpsertPackages(ctx, []domain.Package{
		{PackageCode: "US-5-30", Name: "US 5GB 30D", LocationCode: "US", RetailPrice: 1500, Currency: "USD", Volume: 5, Duration: 30},
		{PackageCode: "US-1-30", Name: "US 1GB 30D", LocationCode: "US", RetailPrice: 700, Currency: "USD", Volume: 1, Duration: 30},
		{PackageCode: "US-1-7", Name: "US 1GB 7D", LocationCode: "US", RetailPrice: 400, Currency: "USD", Volume: 1, Duration: 7},
	})
	if err != nil {
		t.Fatalf("UpsertPackages: %v", err)
	}
	list, err := repo.ListPackagesByLocation(ctx, "US")
	if err != nil {
		t.Fatalf("ListPackagesByLocation: %v", err)
	}
	want := []string{"US-1-7", "US-1-30", "US-5-30"}
	for i, code := range want {
		if list[i].PackageCode != code {
			t.Fatalf("position %d: want %s got %s", i, code, list[i].PackageCode)
		}
	}
}
