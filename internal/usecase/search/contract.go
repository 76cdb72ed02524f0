package search

import (
	"context"
	"time"

	"github.com/classima/searchd/internal/domain/listing"
	"github.com/classima/searchd/internal/domain/search/facet"
	"github.com/classima/searchd/internal/domain/search/query"
	"github.com/classima/searchd/internal/domain/search/result"
	"github.com/classima/searchd/internal/domain/search/sort"
)

// Listings defines the storage contract for listing search and maintenance.
type Listings interface {
	Search(
		ctx context.Context, q query.Query, sortFields []sort.Field,
		page, limit int, aggs facet.Set,
	) (*result.Result, error)
	Get(ctx context.Context, id string) (*listing.Listing, error)
	Index(ctx context.Context, l *listing.Listing) error
	Update(ctx context.Context, id string, updates map[string]any) (*listing.Listing, error)
	Delete(ctx context.Context, id string) error
	Suggest(ctx context.Context, prefix string, limit int) ([]result.Suggestion, error)
	Similar(ctx context.Context, id string, limit int) ([]result.Hit, error)
	Trending(ctx context.Context, limit int) ([]result.Trending, error)
}

// ResultCache caches computed results. Get reports a hit; Set and the
// lookup path never fail the caller.
type ResultCache interface {
	Get(ctx context.Context, key string, v any) bool
	Set(ctx context.Context, key string, v any, ttl time.Duration)
	Invalidate(ctx context.Context, pattern string) error
}

// Conn is a closable store connection owned by the engine.
type Conn interface {
	Close()
}
