package query

import (
	"github.com/classima/searchd/internal/domain/search"
	"github.com/classima/searchd/internal/domain/search/filter"
)

// FieldBoost weights one text field in the relevance clause.
type FieldBoost struct {
	Field string
	Boost float64
}

// TextFields are the fields scored by the full-text clause, with their weights.
var TextFields = []FieldBoost{
	{Field: "title", Boost: 3},
	{Field: "description", Boost: 1},
	{Field: "tags", Boost: 2},
}

// Phrase boosting applies to exact matches on the title.
const (
	PhraseField = "title"
	PhraseBoost = 5.0
)

// Query is a structured boolean query over the listings index. Text and
// Phrase are ranking signals; Filters combine with logical AND; Exclude
// clauses are negated. An empty Query matches everything.
type Query struct {
	Text    string   // fuzzy multi-field match; empty = match-all
	Phrase  bool     // additionally boost exact phrase matches on PhraseField
	Terms   []string // disjunctive term set (similarity lookups)
	Filters []filter.Clause
	Exclude []filter.Clause
}

// WithFilter returns a copy of the query with one more filter clause.
func (q Query) WithFilter(c filter.Clause) Query {
	filters := make([]filter.Clause, 0, len(q.Filters)+1)
	filters = append(filters, q.Filters...)
	filters = append(filters, c)
	q.Filters = filters
	return q
}

// Build assembles the primary search query from request parameters and
// sanitized filters. Clause order is fixed: category, price range, geo
// radius, tags, sanitized filter clauses, and last the forced
// status=active gate -- non-active listings are never searchable.
func Build(p *search.Params, sanitized filter.Sanitized, schema filter.Schema) Query {
	q := Query{}

	if p.Query != "" {
		q.Text = p.Query
		q.Phrase = true
	}

	if p.Category != "" {
		if c, err := filter.NewTerm("category", p.Category); err == nil {
			q.Filters = append(q.Filters, c)
		}
	}

	priceMin, priceMax := p.PriceMin, p.PriceMax
	if priceMax <= 0 {
		priceMax = search.DefaultPriceMax
	}
	if c, err := filter.NewRange("price", &priceMin, &priceMax); err == nil {
		q.Filters = append(q.Filters, c)
	}

	if p.Location != nil && p.Location.Lat != 0 && p.Location.Lon != 0 {
		radius := p.RadiusKm
		if radius <= 0 {
			radius = search.DefaultRadiusKm
		}
		if c, err := filter.NewGeoRadius("location", p.Location.Lat, p.Location.Lon, radius); err == nil {
			q.Filters = append(q.Filters, c)
		}
	}

	if len(p.Tags) > 0 {
		if c, err := filter.NewTerms("tags", p.Tags); err == nil {
			q.Filters = append(q.Filters, c)
		}
	}

	q.Filters = append(q.Filters, schema.BuildClauses(sanitized)...)

	if c, err := filter.NewTerm("status", "active"); err == nil {
		q.Filters = append(q.Filters, c)
	}

	return q
}
