package search

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/classima/searchd/internal/domain"
	"github.com/classima/searchd/internal/domain/listing"
	"github.com/classima/searchd/internal/domain/search"
	"github.com/classima/searchd/internal/domain/search/facet"
	"github.com/classima/searchd/internal/domain/search/filter"
	"github.com/classima/searchd/internal/domain/search/query"
	"github.com/classima/searchd/internal/domain/search/result"
	"github.com/classima/searchd/internal/domain/search/sort"
)

// Cache TTLs per result kind.
const (
	SearchTTL   = 5 * time.Minute
	SuggestTTL  = time.Minute
	TrendingTTL = time.Hour
)

// Cache key layout. Search keys embed the canonical parameter encoding and
// are invalidated by pattern after every write.
const (
	searchKeyPattern = "search:*"
	suggestKeyPrefix = "suggestions:"
	trendingKey      = "trending_searches"
)

const (
	minSuggestPrefix = 2
	similarLimit     = 5
	trendingLimit    = 10
)

// Service orchestrates search, suggestions and listing maintenance over the
// index and the result cache.
type Service struct {
	listings    Listings
	cache       ResultCache
	schema      filter.Schema
	errorsTotal prometheus.Counter
	logger      *zap.Logger

	conns     []Conn
	closeOnce sync.Once
}

// New creates a search service. errorsTotal counts failed primary searches,
// passed explicitly; conns are store connections closed with the service.
func New(
	listings Listings,
	cache ResultCache,
	schema filter.Schema,
	errorsTotal prometheus.Counter,
	logger *zap.Logger,
	conns ...Conn,
) *Service {
	return &Service{
		listings:    listings,
		cache:       cache,
		schema:      schema,
		errorsTotal: errorsTotal,
		logger:      logger,
		conns:       conns,
	}
}

// Search runs the primary listing search: read-through cached, filters
// sanitized against the schema, aggregations attached. A failing index
// surfaces as ErrSearchUnavailable; the cause stays in the logs.
func (s *Service) Search(ctx context.Context, p *search.Params) (*result.Result, error) {
	p.ApplyDefaults()
	key := p.CacheKey()

	var cached result.Result
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	sanitized := s.schema.Sanitize(p.Filters)
	q := query.Build(p, sanitized, s.schema)
	sortFields := sort.Build(p.SortBy, p.SortOrder)

	res, err := s.listings.Search(ctx, q, sortFields, p.Page, p.Limit, facet.Default())
	if err != nil {
		if s.errorsTotal != nil {
			s.errorsTotal.Inc()
		}
		s.logger.Error("Search failed", zap.String("query", p.Query), zap.Error(err))
		return nil, domain.ErrSearchUnavailable
	}

	s.cache.Set(ctx, key, res, SearchTTL)
	return res, nil
}

// Suggest returns autocomplete candidates for a prefix. Failures degrade to
// an empty list; suggestions are never worth an error page.
func (s *Service) Suggest(ctx context.Context, prefix string, limit int) []result.Suggestion {
	prefix = strings.TrimSpace(prefix)
	if len(prefix) < minSuggestPrefix {
		return []result.Suggestion{}
	}
	if limit <= 0 {
		limit = result.DefaultSuggestionLimit
	}

	key := fmt.Sprintf("%s%s:%d", suggestKeyPrefix, prefix, limit)

	var cached []result.Suggestion
	if s.cache.Get(ctx, key, &cached) {
		return cached
	}

	suggestions, err := s.listings.Suggest(ctx, prefix, limit)
	if err != nil {
		s.logger.Warn("Suggest failed", zap.String("prefix", prefix), zap.Error(err))
		return []result.Suggestion{}
	}

	s.cache.Set(ctx, key, suggestions, SuggestTTL)
	return suggestions
}

// Similar returns listings resembling the given one, uncached. Failures
// degrade to an empty list.
func (s *Service) Similar(ctx context.Context, id string, limit int) []result.Hit {
	if limit <= 0 {
		limit = similarLimit
	}

	hits, err := s.listings.Similar(ctx, id, limit)
	if err != nil {
		s.logger.Warn("Similar lookup failed", zap.String("id", id), zap.Error(err))
		return []result.Hit{}
	}
	return hits
}

// Trending returns the currently trending search terms. Failures degrade to
// an empty list.
func (s *Service) Trending(ctx context.Context) []result.Trending {
	var cached []result.Trending
	if s.cache.Get(ctx, trendingKey, &cached) {
		return cached
	}

	trending, err := s.listings.Trending(ctx, trendingLimit)
	if err != nil {
		s.logger.Warn("Trending lookup failed", zap.Error(err))
		return []result.Trending{}
	}

	s.cache.Set(ctx, trendingKey, trending, TrendingTTL)
	return trending
}

// IndexListing writes a listing to the index, minting an id and filling
// timestamps when absent, then invalidates cached search pages.
func (s *Service) IndexListing(ctx context.Context, l *listing.Listing) (*listing.Listing, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Status == "" {
		l.Status = "active"
	}
	now := time.Now().UTC()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now

	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidListing, err)
	}

	if err := s.listings.Index(ctx, l); err != nil {
		return nil, fmt.Errorf("index listing: %w", err)
	}

	s.invalidateSearches(ctx)
	return l, nil
}

// UpdateListing applies a partial update and invalidates cached search pages.
func (s *Service) UpdateListing(ctx context.Context, id string, updates map[string]any) (*listing.Listing, error) {
	l, err := s.listings.Update(ctx, id, updates)
	if err != nil {
		return nil, err
	}

	s.invalidateSearches(ctx)
	return l, nil
}

// DeleteListing removes a listing and invalidates cached search pages.
func (s *Service) DeleteListing(ctx context.Context, id string) error {
	if err := s.listings.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateSearches(ctx)
	return nil
}

// GetListing loads one listing by id.
func (s *Service) GetListing(ctx context.Context, id string) (*listing.Listing, error) {
	return s.listings.Get(ctx, id)
}

// ValidateFilters checks raw filter input for contradictory combinations
// and returns human-readable messages, empty when consistent.
func (s *Service) ValidateFilters(raw map[string]any) []string {
	return filter.ValidateCombinations(raw)
}

// FacetSuggestions runs an aggregation-only search with the UI facet set
// and derives refinement suggestions from the buckets.
func (s *Service) FacetSuggestions(ctx context.Context, p *search.Params) (facet.Suggestions, error) {
	p.ApplyDefaults()

	sanitized := s.schema.Sanitize(p.Filters)
	q := query.Build(p, sanitized, s.schema)

	res, err := s.listings.Search(ctx, q, nil, 1, 0, facet.UI())
	if err != nil {
		if s.errorsTotal != nil {
			s.errorsTotal.Inc()
		}
		s.logger.Error("Facet aggregation failed", zap.Error(err))
		return facet.Suggestions{}, domain.ErrSearchUnavailable
	}

	return facet.Suggest(p.Category, res.Aggregations), nil
}

// Recommendations derives filter recommendations from a user's search history.
func (s *Service) Recommendations(history []search.Params, current *search.Params) []facet.Recommendation {
	return facet.Recommend(history, current)
}

// Close shuts down the owned store connections. Idempotent.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		for _, c := range s.conns {
			c.Close()
		}
	})
}

// invalidateSearches drops cached search pages after a write. Invalidation
// failure is not fatal: entries expire on their TTL anyway.
func (s *Service) invalidateSearches(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, searchKeyPattern); err != nil {
		s.logger.Warn("Cache invalidation failed", zap.Error(err))
	}
}
