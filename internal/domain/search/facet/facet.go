// Package facet declares the bucketed aggregations attached to searches and
// post-processes returned buckets into UI-facing suggestions.
package facet

import "strings"

// Terms declares a terms aggregation over a field.
type Terms struct {
	Name  string
	Field string
	Size  int
}

// RangeBucket is one bucket of a range aggregation; nil bounds are open.
type RangeBucket struct {
	Key  string
	From *float64
	To   *float64
}

// Range declares a fixed-bucket range aggregation over a numeric field.
type Range struct {
	Name    string
	Field   string
	Buckets []RangeBucket
}

// DateHistogram declares a calendar-bucketed aggregation over a date field.
type DateHistogram struct {
	Name   string
	Field  string
	Format string // strftime format defining the bucket granularity
}

// Set is the aggregation set attached to one search request.
type Set struct {
	Terms      []Terms
	Ranges     []Range
	Histograms []DateHistogram
}

// Default returns the aggregation set attached to every primary search:
// category terms, the four fixed price ranges, and the top tags.
func Default() Set {
	return Set{
		Terms: []Terms{
			{Name: "categories", Field: "category", Size: 20},
			{Name: "popular_tags", Field: "tags", Size: 10},
		},
		Ranges: []Range{
			{Name: "price_ranges", Field: "price", Buckets: []RangeBucket{
				{Key: "0-100", To: bound(100)},
				{Key: "100-500", From: bound(100), To: bound(500)},
				{Key: "500-1000", From: bound(500), To: bound(1000)},
				{Key: "1000+", From: bound(1000)},
			}},
		},
	}
}

// UI returns the richer aggregation set that drives the filtering UI.
func UI() Set {
	return Set{
		Terms: []Terms{
			{Name: "categories", Field: "category", Size: 50},
			{Name: "status", Field: "status", Size: 10},
			{Name: "condition", Field: "condition", Size: 10},
			{Name: "bedrooms", Field: "bedrooms", Size: 10},
			{Name: "bathrooms", Field: "bathrooms", Size: 10},
			{Name: "amenities", Field: "amenities", Size: 20},
			{Name: "featured", Field: "featured", Size: 2},
			{Name: "popular_tags", Field: "tags", Size: 10},
		},
		Ranges: []Range{
			{Name: "price_ranges", Field: "price", Buckets: []RangeBucket{
				{Key: "0-100", To: bound(100)},
				{Key: "100-500", From: bound(100), To: bound(500)},
				{Key: "500-1000", From: bound(500), To: bound(1000)},
				{Key: "1000-5000", From: bound(1000), To: bound(5000)},
				{Key: "5000+", From: bound(5000)},
			}},
			{Name: "rating_ranges", Field: "rating", Buckets: []RangeBucket{
				{Key: "4-5", From: bound(4), To: bound(5)},
				{Key: "3-4", From: bound(3), To: bound(4)},
				{Key: "2-3", From: bound(2), To: bound(3)},
				{Key: "1-2", From: bound(1), To: bound(2)},
			}},
		},
		Histograms: []DateHistogram{
			{Name: "creation_date", Field: "created_at", Format: "%Y-%m"},
		},
	}
}

// Bucket is one returned aggregation bucket. From/To are set for range buckets.
type Bucket struct {
	Key   string   `json:"key"`
	Count int      `json:"count"`
	From  *float64 `json:"from,omitempty"`
	To    *float64 `json:"to,omitempty"`
}

// Results maps aggregation names to their returned buckets.
type Results map[string][]Bucket

// CategorySuggestion is a category facet with a display label.
type CategorySuggestion struct {
	Value string `json:"value"`
	Count int    `json:"count"`
	Label string `json:"label"`
}

// PriceRangeSuggestion is a non-empty price bucket with its bounds.
type PriceRangeSuggestion struct {
	Key   string   `json:"key"`
	Count int      `json:"count"`
	From  *float64 `json:"from,omitempty"`
	To    *float64 `json:"to,omitempty"`
}

// Suggestions are facet refinements offered alongside search results.
type Suggestions struct {
	Categories  []CategorySuggestion   `json:"categories"`
	PriceRanges []PriceRangeSuggestion `json:"price_ranges"`
}

// Suggest derives facet suggestions from aggregation results: the top 5
// category buckets excluding the currently applied category, and every
// non-empty price bucket with its bounds.
func Suggest(currentCategory string, aggs Results) Suggestions {
	s := Suggestions{
		Categories:  []CategorySuggestion{},
		PriceRanges: []PriceRangeSuggestion{},
	}

	for _, b := range aggs["categories"] {
		if b.Key == currentCategory {
			continue
		}
		s.Categories = append(s.Categories, CategorySuggestion{
			Value: b.Key,
			Count: b.Count,
			Label: FormatLabel(b.Key),
		})
		if len(s.Categories) == 5 {
			break
		}
	}

	for _, b := range aggs["price_ranges"] {
		if b.Count == 0 {
			continue
		}
		s.PriceRanges = append(s.PriceRanges, PriceRangeSuggestion{
			Key:   b.Key,
			Count: b.Count,
			From:  b.From,
			To:    b.To,
		})
	}

	return s
}

// FormatLabel turns an underscore-delimited category value into a display
// label with each word capitalized.
func FormatLabel(category string) string {
	words := strings.Split(category, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func bound(v float64) *float64 { return &v }
