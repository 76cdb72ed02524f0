package search

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/classima/searchd/internal/domain/listing"
	"github.com/classima/searchd/internal/domain/search/facet"
	"github.com/classima/searchd/internal/domain/search/filter"
	"github.com/classima/searchd/internal/domain/search/query"
	"github.com/classima/searchd/internal/domain/search/result"
	"github.com/classima/searchd/internal/domain/search/sort"
)

// mockListings implements Listings for tests.
type mockListings struct {
	searchFn   func(ctx context.Context, q query.Query, sortFields []sort.Field, page, limit int, aggs facet.Set) (*result.Result, error)
	getFn      func(ctx context.Context, id string) (*listing.Listing, error)
	indexFn    func(ctx context.Context, l *listing.Listing) error
	updateFn   func(ctx context.Context, id string, updates map[string]any) (*listing.Listing, error)
	deleteFn   func(ctx context.Context, id string) error
	suggestFn  func(ctx context.Context, prefix string, limit int) ([]result.Suggestion, error)
	similarFn  func(ctx context.Context, id string, limit int) ([]result.Hit, error)
	trendingFn func(ctx context.Context, limit int) ([]result.Trending, error)
}

func (m *mockListings) Search(
	ctx context.Context, q query.Query, sortFields []sort.Field,
	page, limit int, aggs facet.Set,
) (*result.Result, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q, sortFields, page, limit, aggs)
	}
	return result.New(nil, 0, nil, page, limit), nil
}

func (m *mockListings) Get(ctx context.Context, id string) (*listing.Listing, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return &listing.Listing{ID: id}, nil
}

func (m *mockListings) Index(ctx context.Context, l *listing.Listing) error {
	if m.indexFn != nil {
		return m.indexFn(ctx, l)
	}
	return nil
}

func (m *mockListings) Update(ctx context.Context, id string, updates map[string]any) (*listing.Listing, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, updates)
	}
	return &listing.Listing{ID: id}, nil
}

func (m *mockListings) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockListings) Suggest(ctx context.Context, prefix string, limit int) ([]result.Suggestion, error) {
	if m.suggestFn != nil {
		return m.suggestFn(ctx, prefix, limit)
	}
	return nil, nil
}

func (m *mockListings) Similar(ctx context.Context, id string, limit int) ([]result.Hit, error) {
	if m.similarFn != nil {
		return m.similarFn(ctx, id, limit)
	}
	return nil, nil
}

func (m *mockListings) Trending(ctx context.Context, limit int) ([]result.Trending, error) {
	if m.trendingFn != nil {
		return m.trendingFn(ctx, limit)
	}
	return nil, nil
}

// mockCache implements ResultCache for tests.
type mockCache struct {
	getFn        func(ctx context.Context, key string, v any) bool
	setFn        func(ctx context.Context, key string, v any, ttl time.Duration)
	invalidateFn func(ctx context.Context, pattern string) error
}

func (m *mockCache) Get(ctx context.Context, key string, v any) bool {
	if m.getFn != nil {
		return m.getFn(ctx, key, v)
	}
	return false
}

func (m *mockCache) Set(ctx context.Context, key string, v any, ttl time.Duration) {
	if m.setFn != nil {
		m.setFn(ctx, key, v, ttl)
	}
}

func (m *mockCache) Invalidate(ctx context.Context, pattern string) error {
	if m.invalidateFn != nil {
		return m.invalidateFn(ctx, pattern)
	}
	return nil
}

// mockConn counts Close calls.
type mockConn struct {
	closed int
}

func (m *mockConn) Close() { m.closed++ }

func newTestService(t *testing.T) (*Service, *mockListings, *mockCache) {
	t.Helper()
	ml := &mockListings{}
	mc := &mockCache{}
	svc := New(ml, mc, filter.DefaultSchema(), nil, zap.NewNop())
	return svc, ml, mc
}
