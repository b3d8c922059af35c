package domain

import "time"

// RegionBundle marks Country rows that describe multi-country bundles.
const RegionBundle = "Bundle"

// Country is catalog metadata for a location or a multi-location bundle.
// MinPrice and PackageCount are caches; readers recompute them from packages.
type Country struct {
	ID                string    `json:"id"`
	Code              string    `json:"code"`
	Name              string    `json:"name"`
	Region            string    `json:"region"`
	FlagEmoji         string    `json:"flagEmoji"`
	MinPrice          int64     `json:"minPrice"`
	PackageCount      int       `json:"packageCount"`
	Popular           bool      `json:"popular"`
	CustomName        string    `json:"customName,omitempty"`
	Slug              string    `json:"slug,omitempty"`
	IncludedCountries []string  `json:"includedCountries,omitempty"`
	Description       string    `json:"description,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// IsBundle reports whether the row describes a multi-country bundle.
func (c Country) IsBundle() bool {
	return c.Region == RegionBundle
}

// Package is a purchasable data plan. RetailPrice is in minor currency units.
type Package struct {
	ID             string    `json:"id"`
	PackageCode    string    `json:"packageCode" validate:"required"`
	Name           string    `json:"name" validate:"required"`
	LocationCode   string    `json:"locationCode" validate:"required"`
	LocationName   string    `json:"locationName"`
	WholesalePrice int64     `json:"wholesalePrice" validate:"gte=0"`
	RetailPrice    int64     `json:"retailPrice" validate:"gte=0"`
	Currency       string    `json:"currency" validate:"required"`
	Volume         int64     `json:"volume" validate:"gt=0"`
	Duration       int       `json:"duration" validate:"gt=0"`
	ActiveType     int       `json:"activeType"`
	Description    string    `json:"description,omitempty"`
	LastSyncedAt   time.Time `json:"lastSyncedAt"`
}
