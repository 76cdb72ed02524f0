package db

import "github.com/classima/searchd/internal/domain/search/query"

// SortField is one level of an explicit ordering. The first level is pushed
// down to the index; further levels break ties within the returned page.
type SortField struct {
	Field string
	Desc  bool
}

// SearchQuery is the input for a paginated search.
type SearchQuery struct {
	Index           string
	Query           query.Query
	Sort            []SortField // empty = relevance (score) ordering
	Offset          int
	Limit           int
	HighlightFields []string
	HighlightOpen   string
	HighlightClose  string
}

// SearchHit is a single document hit from a search.
type SearchHit struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total int
	Hits  []SearchHit
}

// GroupCountQuery is the input for a GROUPBY/COUNT aggregation.
type GroupCountQuery struct {
	Index   string
	Query   query.Query
	GroupBy string // grouped field (without the @ prefix)
	Apply   string // optional expression computed as GroupBy before grouping
	Limit   int
	ByCount bool // true: buckets ordered by count desc; false: by key asc
}

// Bucket is a single aggregation bucket.
type Bucket struct {
	Key   string
	Count int
}

// Suggestion is a single completion option.
type Suggestion struct {
	Text  string
	Score float64
}
