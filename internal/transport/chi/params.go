package chi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/classima/searchd/internal/domain/listing"
	"github.com/classima/searchd/internal/domain/search"
)

// reservedParams are query keys bound to Params fields. Every other key in
// the query string passes through as a raw filter.
var reservedParams = map[string]struct{}{
	"q": {}, "category": {}, "price_min": {}, "price_max": {},
	"lat": {}, "lon": {}, "radius_km": {}, "tags": {},
	"sort_by": {}, "sort_order": {}, "page": {}, "limit": {},
}

// parseSearchParams decodes search parameters from the query string. It also
// returns the raw filter view (pass-through filters plus the price bounds as
// given) that cross-field validation runs against.
func parseSearchParams(r *http.Request, defaultLimit, maxLimit int) (*search.Params, map[string]any, error) {
	q := r.URL.Query()

	p := &search.Params{
		Query:     strings.TrimSpace(q.Get("q")),
		Category:  strings.TrimSpace(q.Get("category")),
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
		Limit:     defaultLimit,
	}

	var err error
	if p.PriceMin, err = floatParam(q.Get("price_min"), "price_min"); err != nil {
		return nil, nil, err
	}
	if p.PriceMax, err = floatParam(q.Get("price_max"), "price_max"); err != nil {
		return nil, nil, err
	}
	if p.RadiusKm, err = floatParam(q.Get("radius_km"), "radius_km"); err != nil {
		return nil, nil, err
	}

	latStr, lonStr := q.Get("lat"), q.Get("lon")
	if (latStr == "") != (lonStr == "") {
		return nil, nil, fmt.Errorf("lat and lon must be provided together")
	}
	if latStr != "" {
		lat, err := floatParam(latStr, "lat")
		if err != nil {
			return nil, nil, err
		}
		lon, err := floatParam(lonStr, "lon")
		if err != nil {
			return nil, nil, err
		}
		p.Location = &listing.GeoPoint{Lat: lat, Lon: lon}
	}

	if v := q.Get("page"); v != "" {
		if p.Page, err = intParam(v, "page"); err != nil {
			return nil, nil, err
		}
	}
	if v := q.Get("limit"); v != "" {
		if p.Limit, err = intParam(v, "limit"); err != nil {
			return nil, nil, err
		}
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}

	for _, v := range q["tags"] {
		for _, part := range strings.Split(v, ",") {
			if t := strings.TrimSpace(part); t != "" {
				p.Tags = append(p.Tags, t)
			}
		}
	}

	filters := make(map[string]any)
	for key, vals := range q {
		if _, ok := reservedParams[key]; ok {
			continue
		}
		if len(vals) == 1 {
			if vals[0] != "" {
				filters[key] = vals[0]
			}
			continue
		}
		filters[key] = append([]string(nil), vals...)
	}
	if len(filters) > 0 {
		p.Filters = filters
	}

	raw := make(map[string]any, len(filters)+2)
	for k, v := range filters {
		raw[k] = v
	}
	if v := q.Get("price_min"); v != "" {
		raw["priceMin"] = v
	}
	if v := q.Get("price_max"); v != "" {
		raw["priceMax"] = v
	}

	return p, raw, nil
}

func floatParam(s, name string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return v, nil
}

func intParam(s, name string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}
