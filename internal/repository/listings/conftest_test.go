package listings

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/classima/searchd/internal/db"
	"github.com/classima/searchd/internal/domain/search/query"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchFn     func(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
	countFn      func(ctx context.Context, index string, q query.Query) (int, error)
	groupCountFn func(ctx context.Context, q *db.GroupCountQuery) ([]db.Bucket, error)
	hsetFn       func(ctx context.Context, key string, fields map[string]string) error
	hgetallFn    func(ctx context.Context, key string) (map[string]string, error)
	delFn        func(ctx context.Context, keys ...string) error
	sugAddFn     func(ctx context.Context, dict, term string, score float64) error
	sugGetFn     func(ctx context.Context, dict, prefix string, fuzzy bool, max int) ([]db.Suggestion, error)
	sugDelFn     func(ctx context.Context, dict, term string) error
}

func (m *mockStore) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) Count(ctx context.Context, index string, q query.Query) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, index, q)
	}
	return 0, nil
}

func (m *mockStore) GroupCount(ctx context.Context, q *db.GroupCountQuery) ([]db.Bucket, error) {
	if m.groupCountFn != nil {
		return m.groupCountFn(ctx, q)
	}
	return nil, nil
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetallFn != nil {
		return m.hgetallFn(ctx, key)
	}
	return nil, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	if m.delFn != nil {
		return m.delFn(ctx, keys...)
	}
	return nil
}

func (m *mockStore) SugAdd(ctx context.Context, dict, term string, score float64) error {
	if m.sugAddFn != nil {
		return m.sugAddFn(ctx, dict, term, score)
	}
	return nil
}

func (m *mockStore) SugGet(ctx context.Context, dict, prefix string, fuzzy bool, max int) ([]db.Suggestion, error) {
	if m.sugGetFn != nil {
		return m.sugGetFn(ctx, dict, prefix, fuzzy, max)
	}
	return nil, nil
}

func (m *mockStore) SugDel(ctx context.Context, dict, term string) error {
	if m.sugDelFn != nil {
		return m.sugDelFn(ctx, dict, term)
	}
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, zap.NewNop()), ms
}
