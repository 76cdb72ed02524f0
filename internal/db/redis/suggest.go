package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/classima/searchd/internal/db"
	"github.com/classima/searchd/internal/domain/search/result"
)

// SugAdd inserts or bumps an entry in a suggestion dictionary.
func (s *Store) SugAdd(ctx context.Context, dict, term string, score float64) error {
	if term == "" {
		return fmt.Errorf("suggestion term is required")
	}
	cmd := s.b().Arbitrary("FT.SUGADD").
		Keys(dict).
		Args(term, strconv.FormatFloat(score, 'f', -1, 64), "INCR").
		Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSugAdd, Err: err}
	}
	return nil
}

// SugGet returns completion candidates for a prefix, best-scored first.
func (s *Store) SugGet(ctx context.Context, dict, prefix string, fuzzy bool, limit int) ([]db.Suggestion, error) {
	if prefix == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = result.DefaultSuggestionLimit
	}

	args := []string{prefix}
	if fuzzy {
		args = append(args, "FUZZY")
	}
	args = append(args, "WITHSCORES", "MAX", strconv.Itoa(limit))

	cmd := s.b().Arbitrary("FT.SUGGET").Keys(dict).Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, &db.Error{Op: db.OpSugGet, Err: err}
	}

	// 2-stride: [term1, score1, term2, score2, ...]
	suggestions := make([]db.Suggestion, 0, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		text, err := raw[i].ToString()
		if err != nil {
			continue
		}
		scoreStr, err := raw[i+1].ToString()
		if err != nil {
			continue
		}
		score, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			continue
		}
		suggestions = append(suggestions, db.Suggestion{Text: text, Score: score})
	}

	return suggestions, nil
}

// SugDel removes an entry from a suggestion dictionary. Deleting an absent
// term is not an error.
func (s *Store) SugDel(ctx context.Context, dict, term string) error {
	if term == "" {
		return nil
	}
	cmd := s.b().Arbitrary("FT.SUGDEL").Keys(dict).Args(term).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSugDel, Err: err}
	}
	return nil
}
