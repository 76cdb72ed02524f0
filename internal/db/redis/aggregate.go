package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/classima/searchd/internal/db"
)

// GroupCount runs a GROUPBY/COUNT aggregation via FT.AGGREGATE and returns
// one bucket per distinct group value.
func (s *Store) GroupCount(ctx context.Context, q *db.GroupCountQuery) ([]db.Bucket, error) {
	if q.Index == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.GroupBy == "" {
		return nil, fmt.Errorf("groupBy field is required")
	}

	queryStr := BuildQueryString(q.Query)

	args := []string{q.Index, queryStr}

	groupField := "@" + q.GroupBy
	if q.Apply != "" {
		args = append(args, "APPLY", q.Apply, "AS", q.GroupBy)
	}

	args = append(args,
		"GROUPBY", "1", groupField,
		"REDUCE", "COUNT", "0", "AS", "count",
	)

	if q.ByCount {
		args = append(args, "SORTBY", "2", "@count", "DESC")
	} else {
		args = append(args, "SORTBY", "2", groupField, "ASC")
	}

	if q.Limit > 0 {
		args = append(args, "LIMIT", "0", strconv.Itoa(q.Limit))
	}

	args = append(args, "DIALECT", "2")

	cmd := s.b().Arbitrary("FT.AGGREGATE").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpAggregate, Err: err}
	}

	return parseGroupCountResult(raw, q.GroupBy)
}

func parseGroupCountResult(raw []rueidis.RedisMessage, groupBy string) ([]db.Bucket, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	// [total, row1, row2, ...]; each row is a flat field/value pair array.
	buckets := make([]db.Bucket, 0, len(raw)-1)
	for i := 1; i < len(raw); i++ {
		row, err := raw[i].ToArray()
		if err != nil {
			continue
		}
		fields := parseFieldPairs(row)

		key, ok := fields[groupBy]
		if !ok || key == "" {
			continue
		}
		count, err := strconv.Atoi(fields["count"])
		if err != nil {
			continue
		}

		buckets = append(buckets, db.Bucket{Key: key, Count: count})
	}

	return buckets, nil
}
