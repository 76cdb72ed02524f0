package search

import (
	"encoding/json"
	"sort"

	"github.com/classima/searchd/internal/domain/listing"
)

// Defaults applied to unset search parameters.
const (
	DefaultPriceMax = 999999
	DefaultRadiusKm = 10
	DefaultLimit    = 20
)

// Params are the per-request search parameters. They are ephemeral:
// constructed from the transport layer, never persisted.
type Params struct {
	Query     string            `json:"query,omitempty"`
	Category  string            `json:"category,omitempty"`
	PriceMin  float64           `json:"price_min"`
	PriceMax  float64           `json:"price_max"`
	Location  *listing.GeoPoint `json:"location,omitempty"`
	RadiusKm  float64           `json:"radius_km"`
	Tags      []string          `json:"tags,omitempty"`
	SortBy    string            `json:"sort_by,omitempty"`
	SortOrder string            `json:"sort_order,omitempty"`
	Page      int               `json:"page"`
	Limit     int               `json:"limit"`
	Filters   map[string]any    `json:"filters,omitempty"`
}

// ApplyDefaults fills unset parameters with their defaults.
func (p *Params) ApplyDefaults() {
	if p.PriceMax <= 0 {
		p.PriceMax = DefaultPriceMax
	}
	if p.PriceMin < 0 {
		p.PriceMin = 0
	}
	if p.RadiusKm <= 0 {
		p.RadiusKm = DefaultRadiusKm
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
}

// CacheKey returns the canonical cache key for this parameter set.
// Equal parameter values always hash to the same key: tags are sorted, and
// the filter mapping is serialized with sorted keys at every nesting level
// (encoding/json orders map keys), so insertion order never leaks into the key.
func (p *Params) CacheKey() string {
	tags := append([]string(nil), p.Tags...)
	sort.Strings(tags)

	canonical := struct {
		Query     string            `json:"q"`
		Category  string            `json:"cat"`
		PriceMin  float64           `json:"pmin"`
		PriceMax  float64           `json:"pmax"`
		Location  *listing.GeoPoint `json:"loc,omitempty"`
		RadiusKm  float64           `json:"rad"`
		Tags      []string          `json:"tags,omitempty"`
		SortBy    string            `json:"sort"`
		SortOrder string            `json:"ord"`
		Page      int               `json:"page"`
		Limit     int               `json:"limit"`
		Filters   map[string]any    `json:"filters,omitempty"`
	}{
		Query:     p.Query,
		Category:  p.Category,
		PriceMin:  p.PriceMin,
		PriceMax:  p.PriceMax,
		Location:  p.Location,
		RadiusKm:  p.RadiusKm,
		Tags:      tags,
		SortBy:    p.SortBy,
		SortOrder: p.SortOrder,
		Page:      p.Page,
		Limit:     p.Limit,
		Filters:   p.Filters,
	}

	b, err := json.Marshal(canonical)
	if err != nil {
		// Filters came from decoded JSON or query strings; re-encoding them
		// cannot fail. Fall back to an uncacheable key just in case.
		return "search:unkeyed"
	}
	return "search:" + string(b)
}
