package listings

import (
	"context"
	"fmt"

	"github.com/classima/searchd/internal/db"
	"github.com/classima/searchd/internal/domain/search/facet"
	"github.com/classima/searchd/internal/domain/search/filter"
	"github.com/classima/searchd/internal/domain/search/query"
)

// aggregate runs the declared aggregation set against the same query as the
// result page. Terms and histograms map onto GROUPBY aggregations; range
// buckets are counted one by one because the index has no bucketed range
// reducer.
func (r *Repo) aggregate(ctx context.Context, q query.Query, set facet.Set) (facet.Results, error) {
	if len(set.Terms) == 0 && len(set.Ranges) == 0 && len(set.Histograms) == 0 {
		return nil, nil
	}

	results := make(facet.Results, len(set.Terms)+len(set.Ranges)+len(set.Histograms))

	for _, t := range set.Terms {
		buckets, err := r.store.GroupCount(ctx, &db.GroupCountQuery{
			Index:   IndexName,
			Query:   q,
			GroupBy: t.Field,
			Limit:   t.Size,
			ByCount: true,
		})
		if err != nil {
			return nil, fmt.Errorf("terms aggregation %s: %w", t.Name, err)
		}
		results[t.Name] = toFacetBuckets(buckets)
	}

	for _, rg := range set.Ranges {
		buckets, err := r.countRangeBuckets(ctx, q, rg)
		if err != nil {
			return nil, fmt.Errorf("range aggregation %s: %w", rg.Name, err)
		}
		results[rg.Name] = buckets
	}

	for _, h := range set.Histograms {
		buckets, err := r.store.GroupCount(ctx, &db.GroupCountQuery{
			Index:   IndexName,
			Query:   q,
			GroupBy: h.Name,
			Apply:   fmt.Sprintf("timefmt(@%s, '%s')", h.Field, h.Format),
		})
		if err != nil {
			return nil, fmt.Errorf("histogram aggregation %s: %w", h.Name, err)
		}
		results[h.Name] = toFacetBuckets(buckets)
	}

	return results, nil
}

func (r *Repo) countRangeBuckets(ctx context.Context, q query.Query, rg facet.Range) ([]facet.Bucket, error) {
	buckets := make([]facet.Bucket, 0, len(rg.Buckets))
	for _, b := range rg.Buckets {
		c, err := filter.NewRange(rg.Field, b.From, b.To)
		if err != nil {
			continue
		}
		count, err := r.store.Count(ctx, IndexName, q.WithFilter(c))
		if err != nil {
			return nil, fmt.Errorf("bucket %s: %w", b.Key, err)
		}
		buckets = append(buckets, facet.Bucket{Key: b.Key, Count: count, From: b.From, To: b.To})
	}
	return buckets, nil
}

func toFacetBuckets(buckets []db.Bucket) []facet.Bucket {
	out := make([]facet.Bucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, facet.Bucket{Key: b.Key, Count: b.Count})
	}
	return out
}
