package db

import (
	"context"
	"time"

	"github.com/classima/searchd/internal/domain/search/query"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	KVStore
	HashStore
	Searcher
	Aggregator
	Suggester
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides the key-value operations backing the result cache.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// HashStore provides hash-based document operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

// Searcher provides search operations over FT indexes.
type Searcher interface {
	Search(ctx context.Context, q *SearchQuery) (*SearchResult, error)
	Count(ctx context.Context, index string, q query.Query) (int, error)
}

// Aggregator provides bucketed GROUPBY/COUNT aggregations over FT indexes.
type Aggregator interface {
	GroupCount(ctx context.Context, q *GroupCountQuery) ([]Bucket, error)
}

// Suggester maintains and queries a completion dictionary.
type Suggester interface {
	SugAdd(ctx context.Context, dict, term string, score float64) error
	SugGet(ctx context.Context, dict, prefix string, fuzzy bool, max int) ([]Suggestion, error)
	SugDel(ctx context.Context, dict, term string) error
}
