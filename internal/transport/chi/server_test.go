package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/classima/searchd/internal/domain"
	"github.com/classima/searchd/internal/domain/listing"
	"github.com/classima/searchd/internal/domain/search/facet"
	"github.com/classima/searchd/internal/domain/search/filter"
	"github.com/classima/searchd/internal/domain/search/query"
	"github.com/classima/searchd/internal/domain/search/result"
	"github.com/classima/searchd/internal/domain/search/sort"
	healthuc "github.com/classima/searchd/internal/usecase/health"
	searchuc "github.com/classima/searchd/internal/usecase/search"
)

type stubListings struct {
	searchFn   func(ctx context.Context, q query.Query, sortFields []sort.Field, page, limit int, aggs facet.Set) (*result.Result, error)
	getFn      func(ctx context.Context, id string) (*listing.Listing, error)
	indexFn    func(ctx context.Context, l *listing.Listing) error
	updateFn   func(ctx context.Context, id string, updates map[string]any) (*listing.Listing, error)
	deleteFn   func(ctx context.Context, id string) error
	suggestFn  func(ctx context.Context, prefix string, limit int) ([]result.Suggestion, error)
	similarFn  func(ctx context.Context, id string, limit int) ([]result.Hit, error)
	trendingFn func(ctx context.Context, limit int) ([]result.Trending, error)
}

func (s *stubListings) Search(
	ctx context.Context, q query.Query, sortFields []sort.Field,
	page, limit int, aggs facet.Set,
) (*result.Result, error) {
	if s.searchFn == nil {
		return result.New(nil, 0, nil, page, limit), nil
	}
	return s.searchFn(ctx, q, sortFields, page, limit, aggs)
}

func (s *stubListings) Get(ctx context.Context, id string) (*listing.Listing, error) {
	if s.getFn == nil {
		return nil, domain.ErrListingNotFound
	}
	return s.getFn(ctx, id)
}

func (s *stubListings) Index(ctx context.Context, l *listing.Listing) error {
	if s.indexFn == nil {
		return nil
	}
	return s.indexFn(ctx, l)
}

func (s *stubListings) Update(ctx context.Context, id string, updates map[string]any) (*listing.Listing, error) {
	if s.updateFn == nil {
		return nil, domain.ErrListingNotFound
	}
	return s.updateFn(ctx, id, updates)
}

func (s *stubListings) Delete(ctx context.Context, id string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, id)
}

func (s *stubListings) Suggest(ctx context.Context, prefix string, limit int) ([]result.Suggestion, error) {
	if s.suggestFn == nil {
		return nil, nil
	}
	return s.suggestFn(ctx, prefix, limit)
}

func (s *stubListings) Similar(ctx context.Context, id string, limit int) ([]result.Hit, error) {
	if s.similarFn == nil {
		return nil, nil
	}
	return s.similarFn(ctx, id, limit)
}

func (s *stubListings) Trending(ctx context.Context, limit int) ([]result.Trending, error) {
	if s.trendingFn == nil {
		return nil, nil
	}
	return s.trendingFn(ctx, limit)
}

// stubCache never hits; writes are dropped.
type stubCache struct{}

func (stubCache) Get(context.Context, string, any) bool           { return false }
func (stubCache) Set(context.Context, string, any, time.Duration) {}
func (stubCache) Invalidate(context.Context, string) error        { return nil }

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func newTestRouter(ls *stubListings, indexErr error) http.Handler {
	svc := searchuc.New(ls, stubCache{}, filter.DefaultSchema(), nil, zap.NewNop())
	hsvc := healthuc.New(stubPinger{err: indexErr}, stubPinger{})

	srv := NewServer(svc, hsvc, 20, 100, zap.NewNop())
	r := chi.NewRouter()
	srv.Routes(r)
	return r
}

func TestSearchEndpoint_OK(t *testing.T) {
	ls := &stubListings{
		searchFn: func(_ context.Context, _ query.Query, _ []sort.Field, page, limit int, _ facet.Set) (*result.Result, error) {
			hits := []result.Hit{{Listing: listing.Listing{ID: "abc", Title: "Mountain Bike"}, Score: 2.5}}
			return result.New(hits, 1, nil, page, limit), nil
		},
	}
	router := newTestRouter(ls, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/search?q=bike", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var res result.Result
	if err := json.NewDecoder(rr.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Total != 1 || len(res.Listings) != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.Listings[0].Listing.ID != "abc" {
		t.Errorf("expected listing abc, got %q", res.Listings[0].Listing.ID)
	}
}

func TestSearchEndpoint_ConflictingPriceBounds(t *testing.T) {
	router := newTestRouter(&stubListings{}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/search?price_min=500&price_max=100", http.NoBody))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	var errResp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != codeValidationFailed {
		t.Errorf("expected validation code, got %s", errResp.Code)
	}
	if !strings.Contains(errResp.Message, "Minimum price cannot be greater than maximum price") {
		t.Errorf("unexpected message: %q", errResp.Message)
	}
}

func TestSearchEndpoint_BadParam(t *testing.T) {
	router := newTestRouter(&stubListings{}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/search?price_min=cheap", http.NoBody))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestSearchEndpoint_IndexDown(t *testing.T) {
	ls := &stubListings{
		searchFn: func(context.Context, query.Query, []sort.Field, int, int, facet.Set) (*result.Result, error) {
			return nil, errors.New("connection refused")
		},
	}
	router := newTestRouter(ls, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/search?q=bike", http.NoBody))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}

	var errResp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != codeSearchUnavailable {
		t.Errorf("expected search_unavailable, got %s", errResp.Code)
	}
}

func TestGetListing_NotFound(t *testing.T) {
	router := newTestRouter(&stubListings{}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/listings/missing", http.NoBody))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestCreateListing_Created(t *testing.T) {
	var indexed *listing.Listing
	ls := &stubListings{
		indexFn: func(_ context.Context, l *listing.Listing) error {
			indexed = l
			return nil
		},
	}
	router := newTestRouter(ls, nil)

	body := strings.NewReader(`{"title":"Mountain Bike","price":450,"category":"sports"}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/api/v1/listings", body))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if indexed == nil || indexed.ID == "" {
		t.Fatal("expected listing indexed with a minted id")
	}
	if indexed.Status != "active" {
		t.Errorf("expected default status active, got %q", indexed.Status)
	}
	if loc := rr.Header().Get("Location"); loc != "/api/v1/listings/"+indexed.ID {
		t.Errorf("unexpected Location header: %q", loc)
	}
}

func TestCreateListing_Invalid(t *testing.T) {
	router := newTestRouter(&stubListings{}, nil)

	body := strings.NewReader(`{"title":"","price":100}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/api/v1/listings", body))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	var errResp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != codeValidationFailed {
		t.Errorf("expected validation code, got %s", errResp.Code)
	}
}

func TestReplaceListing_UsesPathID(t *testing.T) {
	var indexed *listing.Listing
	ls := &stubListings{
		indexFn: func(_ context.Context, l *listing.Listing) error {
			indexed = l
			return nil
		},
	}
	router := newTestRouter(ls, nil)

	body := strings.NewReader(`{"id":"ignored","title":"Bike","price":100}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("PUT", "/api/v1/listings/abc", body))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if indexed == nil || indexed.ID != "abc" {
		t.Fatalf("expected path id to win, got %+v", indexed)
	}
}

func TestUpdateListing_EmptyBody(t *testing.T) {
	router := newTestRouter(&stubListings{}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("PATCH", "/api/v1/listings/abc", strings.NewReader(`{}`)))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestUpdateListing_OK(t *testing.T) {
	ls := &stubListings{
		updateFn: func(_ context.Context, id string, updates map[string]any) (*listing.Listing, error) {
			if updates["price"] != float64(300) {
				t.Errorf("expected price update, got %v", updates)
			}
			return &listing.Listing{ID: id, Title: "Bike", Price: 300}, nil
		},
	}
	router := newTestRouter(ls, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("PATCH", "/api/v1/listings/abc", strings.NewReader(`{"price":300}`)))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var l listing.Listing
	if err := json.NewDecoder(rr.Body).Decode(&l); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if l.ID != "abc" || l.Price != 300 {
		t.Errorf("unexpected listing: %+v", l)
	}
}

func TestDeleteListing_NoContent(t *testing.T) {
	router := newTestRouter(&stubListings{}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("DELETE", "/api/v1/listings/abc", http.NoBody))

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
}

func TestSuggestions_OK(t *testing.T) {
	ls := &stubListings{
		suggestFn: func(_ context.Context, prefix string, _ int) ([]result.Suggestion, error) {
			return []result.Suggestion{{Text: prefix + "ntain bike", Score: 3}}, nil
		},
	}
	router := newTestRouter(ls, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/suggestions?q=mou", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp suggestionsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Query != "mou" || len(resp.Suggestions) != 1 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestSuggestions_ShortPrefix(t *testing.T) {
	router := newTestRouter(&stubListings{}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/suggestions?q=m", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp suggestionsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Suggestions) != 0 {
		t.Errorf("expected no suggestions for short prefix, got %v", resp.Suggestions)
	}
}

func TestTrending_OK(t *testing.T) {
	ls := &stubListings{
		trendingFn: func(context.Context, int) ([]result.Trending, error) {
			return []result.Trending{{Term: "electronics", Count: 120}}, nil
		},
	}
	router := newTestRouter(ls, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/trending", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp trendingResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Trending) != 1 || resp.Trending[0].Term != "electronics" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestSimilar_DegradesToEmpty(t *testing.T) {
	ls := &stubListings{
		similarFn: func(context.Context, string, int) ([]result.Hit, error) {
			return nil, errors.New("index unavailable")
		},
	}
	router := newTestRouter(ls, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/listings/abc/similar", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp similarResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 0 {
		t.Errorf("expected empty items, got %v", resp.Items)
	}
}

func TestRecommendations_OK(t *testing.T) {
	router := newTestRouter(&stubListings{}, nil)

	body := strings.NewReader(`{"history":[
		{"category":"electronics","price_min":100,"price_max":500},
		{"category":"electronics"},
		{"category":"sports"}
	]}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/api/v1/search/recommendations", body))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp recommendationsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Recommendations) == 0 {
		t.Fatal("expected recommendations for repeated categories")
	}
}

func TestHealth_OK(t *testing.T) {
	router := newTestRouter(&stubListings{}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/health", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestHealth_Degraded(t *testing.T) {
	router := newTestRouter(&stubListings{}, errors.New("down"))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/health", http.NoBody))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}

	var resp healthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Checks["index"] != "error" {
		t.Errorf("expected index check error, got %v", resp.Checks)
	}
}
