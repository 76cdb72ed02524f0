package listings

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/classima/searchd/internal/db"
	"github.com/classima/searchd/internal/domain"
	"github.com/classima/searchd/internal/domain/listing"
	"github.com/classima/searchd/internal/domain/search/facet"
	"github.com/classima/searchd/internal/domain/search/filter"
	"github.com/classima/searchd/internal/domain/search/query"
	"github.com/classima/searchd/internal/domain/search/result"
	"github.com/classima/searchd/internal/domain/search/sort"
)

// Index and key layout of the listings store.
const (
	IndexName   = "listings"
	KeyPrefix   = "listing:"
	SuggestDict = "listings:suggest"
)

// Highlight markers wrapped around matched terms in returned snippets.
const (
	HighlightOpen  = "<em>"
	HighlightClose = "</em>"
)

// maxSimilarTerms caps the disjunctive term set built for similarity lookups.
const maxSimilarTerms = 12

var highlightFields = []string{listing.FieldTitle, listing.FieldDescription}

// store is the consumer interface for listing operations (ISP).
type store interface {
	Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
	Count(ctx context.Context, index string, q query.Query) (int, error)
	GroupCount(ctx context.Context, q *db.GroupCountQuery) ([]db.Bucket, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	SugAdd(ctx context.Context, dict, term string, score float64) error
	SugGet(ctx context.Context, dict, prefix string, fuzzy bool, max int) ([]db.Suggestion, error)
	SugDel(ctx context.Context, dict, term string) error
}

// Repo implements usecase/search.Listings over the listings index.
// Suggestion dictionary upkeep is best-effort: the document write is the
// source of truth and a failed SUGADD/SUGDEL only degrades autocomplete.
type Repo struct {
	store  store
	logger *zap.Logger
}

// New creates a listings repository.
func New(s store, logger *zap.Logger) *Repo {
	return &Repo{store: s, logger: logger}
}

// Search runs one result page plus the attached aggregations. Highlighting
// is requested only for text searches; match-all pages have nothing to mark.
func (r *Repo) Search(
	ctx context.Context, q query.Query, sortFields []sort.Field,
	page, limit int, aggs facet.Set,
) (*result.Result, error) {
	sq := &db.SearchQuery{
		Index:  IndexName,
		Query:  q,
		Sort:   toSortFields(sortFields),
		Offset: (page - 1) * limit,
		Limit:  limit,
	}
	if q.Text != "" {
		sq.HighlightFields = highlightFields
		sq.HighlightOpen = HighlightOpen
		sq.HighlightClose = HighlightClose
	}

	sr, err := r.store.Search(ctx, sq)
	if err != nil {
		return nil, fmt.Errorf("search listings: %w", err)
	}

	hits := make([]result.Hit, 0, len(sr.Hits))
	for _, h := range sr.Hits {
		hits = append(hits, parseHit(h, q.Text != ""))
	}

	aggResults, err := r.aggregate(ctx, q, aggs)
	if err != nil {
		return nil, fmt.Errorf("aggregate listings: %w", err)
	}

	return result.New(hits, sr.Total, aggResults, page, limit), nil
}

// Get loads one listing by id.
func (r *Repo) Get(ctx context.Context, id string) (*listing.Listing, error) {
	fields, err := r.store.HGetAll(ctx, KeyPrefix+id)
	if err != nil {
		return nil, fmt.Errorf("get listing %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrListingNotFound
	}
	l := listing.FromFields(id, fields)
	return &l, nil
}

// Index writes a listing document and registers its title in the
// completion dictionary. Once the document is written the operation has
// succeeded; a dictionary failure is logged, not returned.
func (r *Repo) Index(ctx context.Context, l *listing.Listing) error {
	if err := r.store.HSet(ctx, KeyPrefix+l.ID, l.Fields()); err != nil {
		return fmt.Errorf("index listing %s: %w", l.ID, err)
	}
	if err := r.store.SugAdd(ctx, SuggestDict, l.Title, 1); err != nil {
		r.logger.Warn("Failed to register suggestion",
			zap.String("id", l.ID), zap.Error(err))
	}
	return nil
}

// Update applies a partial update to an existing listing and returns the
// merged document. A title change swaps the completion dictionary entry.
func (r *Repo) Update(ctx context.Context, id string, updates map[string]any) (*listing.Listing, error) {
	existing, err := r.store.HGetAll(ctx, KeyPrefix+id)
	if err != nil {
		return nil, fmt.Errorf("get listing %s: %w", id, err)
	}
	if len(existing) == 0 {
		return nil, domain.ErrListingNotFound
	}

	fields, err := listing.UpdateFields(updates)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidListing, err)
	}
	if _, ok := fields[listing.FieldUpdatedAt]; !ok {
		fields[listing.FieldUpdatedAt] = strconv.FormatInt(time.Now().Unix(), 10)
	}

	if err := r.store.HSet(ctx, KeyPrefix+id, fields); err != nil {
		return nil, fmt.Errorf("update listing %s: %w", id, err)
	}

	oldTitle := existing[listing.FieldTitle]
	if newTitle, ok := fields[listing.FieldTitle]; ok && newTitle != oldTitle {
		if oldTitle != "" {
			if err := r.store.SugDel(ctx, SuggestDict, oldTitle); err != nil {
				r.logger.Warn("Failed to drop suggestion",
					zap.String("id", id), zap.Error(err))
			}
		}
		if err := r.store.SugAdd(ctx, SuggestDict, newTitle, 1); err != nil {
			r.logger.Warn("Failed to register suggestion",
				zap.String("id", id), zap.Error(err))
		}
	}

	merged := make(map[string]string, len(existing)+len(fields))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	l := listing.FromFields(id, merged)
	return &l, nil
}

// Delete removes a listing document and its completion dictionary entry.
func (r *Repo) Delete(ctx context.Context, id string) error {
	existing, err := r.store.HGetAll(ctx, KeyPrefix+id)
	if err != nil {
		return fmt.Errorf("get listing %s: %w", id, err)
	}
	if len(existing) == 0 {
		return domain.ErrListingNotFound
	}

	if err := r.store.Del(ctx, KeyPrefix+id); err != nil {
		return fmt.Errorf("delete listing %s: %w", id, err)
	}

	if title := existing[listing.FieldTitle]; title != "" {
		if err := r.store.SugDel(ctx, SuggestDict, title); err != nil {
			r.logger.Warn("Failed to drop suggestion",
				zap.String("id", id), zap.Error(err))
		}
	}
	return nil
}

// Suggest returns fuzzy completion candidates for a prefix.
func (r *Repo) Suggest(ctx context.Context, prefix string, limit int) ([]result.Suggestion, error) {
	raw, err := r.store.SugGet(ctx, SuggestDict, prefix, true, limit)
	if err != nil {
		return nil, fmt.Errorf("suggest %q: %w", prefix, err)
	}

	suggestions := make([]result.Suggestion, 0, len(raw))
	for _, s := range raw {
		suggestions = append(suggestions, result.Suggestion{Text: s.Text, Score: s.Score})
	}
	return suggestions, nil
}

// Similar finds listings resembling the given one: a disjunctive term set
// from the source's title, tags and category, excluding the source itself.
func (r *Repo) Similar(ctx context.Context, id string, limit int) ([]result.Hit, error) {
	src, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	terms := similarTerms(src)
	if len(terms) == 0 {
		return []result.Hit{}, nil
	}

	q := query.Query{Terms: terms}
	if c, err := filter.NewTerm("id", id); err == nil {
		q.Exclude = append(q.Exclude, c)
	}

	sr, err := r.store.Search(ctx, &db.SearchQuery{
		Index: IndexName,
		Query: q,
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("similar listings %s: %w", id, err)
	}

	hits := make([]result.Hit, 0, len(sr.Hits))
	for _, h := range sr.Hits {
		hits = append(hits, parseHit(h, false))
	}
	return hits, nil
}

// Trending returns the most populated categories as trending terms.
func (r *Repo) Trending(ctx context.Context, limit int) ([]result.Trending, error) {
	buckets, err := r.store.GroupCount(ctx, &db.GroupCountQuery{
		Index:   IndexName,
		Query:   query.Query{},
		GroupBy: listing.FieldCategory,
		Limit:   limit,
		ByCount: true,
	})
	if err != nil {
		return nil, fmt.Errorf("trending: %w", err)
	}

	trending := make([]result.Trending, 0, len(buckets))
	for _, b := range buckets {
		trending = append(trending, result.Trending{Term: b.Key, Count: b.Count})
	}
	return trending, nil
}

// parseHit decodes one index hit into a scored listing, splitting off
// highlighted snippets when highlighting was requested.
func parseHit(h db.SearchHit, highlighted bool) result.Hit {
	id := strings.TrimPrefix(h.Key, KeyPrefix)
	fields := h.Fields
	var highlights map[string]string

	if highlighted {
		for _, hf := range highlightFields {
			v, ok := fields[hf]
			if !ok || !strings.Contains(v, HighlightOpen) {
				continue
			}
			if highlights == nil {
				highlights = make(map[string]string, len(highlightFields))
				fields = cloneFields(h.Fields)
			}
			highlights[hf] = v
			fields[hf] = stripHighlight(v)
		}
	}

	return result.Hit{
		Listing:    listing.FromFields(id, fields),
		Score:      h.Score,
		Highlights: highlights,
	}
}

func cloneFields(fields map[string]string) map[string]string {
	m := make(map[string]string, len(fields))
	for k, v := range fields {
		m[k] = v
	}
	return m
}

func stripHighlight(s string) string {
	s = strings.ReplaceAll(s, HighlightOpen, "")
	return strings.ReplaceAll(s, HighlightClose, "")
}

// similarTerms extracts lowercase lookup terms from a listing, deduplicated
// and capped at maxSimilarTerms. Title tokens come first so they survive
// the cap.
func similarTerms(l *listing.Listing) []string {
	candidates := strings.Fields(strings.ToLower(l.Title))
	for _, t := range l.Tags {
		candidates = append(candidates, strings.ToLower(t))
	}
	if l.Category != "" {
		candidates = append(candidates, strings.ToLower(l.Category))
	}

	seen := make(map[string]struct{}, len(candidates))
	terms := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		terms = append(terms, c)
		if len(terms) == maxSimilarTerms {
			break
		}
	}
	return terms
}

func toSortFields(fields []sort.Field) []db.SortField {
	if len(fields) == 0 {
		return nil
	}
	out := make([]db.SortField, 0, len(fields))
	for _, f := range fields {
		out = append(out, db.SortField{Field: f.Name, Desc: f.Desc})
	}
	return out
}
