package result

import (
	"github.com/classima/searchd/internal/domain/listing"
	"github.com/classima/searchd/internal/domain/search/facet"
)

// Hit is a single search hit: the listing, its relevance score, and
// highlighted snippets keyed by field name.
type Hit struct {
	Listing    listing.Listing   `json:"listing"`
	Score      float64           `json:"score"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Result is one page of search results. TotalPages is always derived from
// Total and Limit, never stored independently.
type Result struct {
	Listings     []Hit         `json:"listings"`
	Total        int           `json:"total"`
	Aggregations facet.Results `json:"aggregations,omitempty"`
	Page         int           `json:"page"`
	Limit        int           `json:"limit"`
	TotalPages   int           `json:"total_pages"`
}

// New assembles a result page, computing TotalPages from total and limit.
func New(hits []Hit, total int, aggs facet.Results, page, limit int) *Result {
	if hits == nil {
		hits = []Hit{}
	}
	return &Result{
		Listings:     hits,
		Total:        total,
		Aggregations: aggs,
		Page:         page,
		Limit:        limit,
		TotalPages:   TotalPages(total, limit),
	}
}

// TotalPages returns ceil(total/limit); zero when limit is not positive.
func TotalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// DefaultSuggestionLimit is the completion count returned when the caller
// does not ask for a specific one.
const DefaultSuggestionLimit = 10

// Suggestion is a single autocomplete option.
type Suggestion struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Trending is a search term currently trending, with its listing count.
type Trending struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}
