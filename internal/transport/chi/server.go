package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/classima/searchd/internal/domain"
	"github.com/classima/searchd/internal/domain/listing"
	"github.com/classima/searchd/internal/domain/search"
	"github.com/classima/searchd/internal/domain/search/facet"
	"github.com/classima/searchd/internal/domain/search/result"
	healthuc "github.com/classima/searchd/internal/usecase/health"
	searchuc "github.com/classima/searchd/internal/usecase/search"
)

const maxRecommendationHistory = 100

type errorCode string

const (
	codeBadRequest        errorCode = "bad_request"
	codeValidationFailed  errorCode = "validation_failed"
	codeListingNotFound   errorCode = "listing_not_found"
	codeSearchUnavailable errorCode = "search_unavailable"
	codeUnauthorized      errorCode = "unauthorized"
	codeInternalError     errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the search API over chi.
type Server struct {
	search          *searchuc.Service
	health          *healthuc.Service
	logger          *zap.Logger
	defaultPageSize int
	maxPageSize     int
	errorHandlers   []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	health *healthuc.Service,
	defaultPageSize, maxPageSize int,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:          search,
		health:          health,
		logger:          logger,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrListingNotFound, http.StatusNotFound, codeListingNotFound),
		sentinelHandler(domain.ErrInvalidListing, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrSearchUnavailable, http.StatusServiceUnavailable, codeSearchUnavailable),
	}
	return s
}

// Routes registers all API routes on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", s.Search)
		r.Get("/search/facets", s.FacetSuggestions)
		r.Post("/search/recommendations", s.Recommendations)
		r.Get("/suggestions", s.Suggestions)
		r.Get("/trending", s.TrendingSearches)

		r.Route("/listings", func(r chi.Router) {
			r.Post("/", s.CreateListing)
			r.Get("/{id}", s.GetListing)
			r.Put("/{id}", s.ReplaceListing)
			r.Patch("/{id}", s.UpdateListing)
			r.Delete("/{id}", s.DeleteListing)
			r.Get("/{id}/similar", s.SimilarListings)
		})
	})
}

// Search handles GET /api/v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	p, raw, err := parseSearchParams(r, s.defaultPageSize, s.maxPageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	if msgs := s.search.ValidateFilters(raw); len(msgs) > 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, strings.Join(msgs, "; "))
		return
	}

	res, err := s.search.Search(r.Context(), p)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// FacetSuggestions handles GET /api/v1/search/facets. It takes the same
// query parameters as Search and returns refinement suggestions instead of
// result pages.
func (s *Server) FacetSuggestions(w http.ResponseWriter, r *http.Request) {
	p, _, err := parseSearchParams(r, s.defaultPageSize, s.maxPageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	suggestions, err := s.search.FacetSuggestions(r.Context(), p)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, suggestions)
}

type recommendationsRequest struct {
	History []search.Params `json:"history"`
	Current *search.Params  `json:"current,omitempty"`
}

type recommendationsResponse struct {
	Recommendations []facet.Recommendation `json:"recommendations"`
}

// Recommendations handles POST /api/v1/search/recommendations.
func (s *Server) Recommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(req.History) > maxRecommendationHistory {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("history must not exceed %d entries", maxRecommendationHistory))
		return
	}

	recs := s.search.Recommendations(req.History, req.Current)
	if recs == nil {
		recs = []facet.Recommendation{}
	}

	writeJSON(w, http.StatusOK, recommendationsResponse{Recommendations: recs})
}

type suggestionsResponse struct {
	Query       string              `json:"query"`
	Suggestions []result.Suggestion `json:"suggestions"`
}

// Suggestions handles GET /api/v1/suggestions.
func (s *Server) Suggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if v := q.Get("limit"); v != "" {
		var err error
		if limit, err = intParam(v, "limit"); err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
			return
		}
	}

	prefix := q.Get("q")
	suggestions := s.search.Suggest(r.Context(), prefix, limit)

	writeJSON(w, http.StatusOK, suggestionsResponse{
		Query:       prefix,
		Suggestions: suggestions,
	})
}

type trendingResponse struct {
	Trending []result.Trending `json:"trending"`
}

// TrendingSearches handles GET /api/v1/trending.
func (s *Server) TrendingSearches(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, trendingResponse{Trending: s.search.Trending(r.Context())})
}

type similarResponse struct {
	Items []result.Hit `json:"items"`
}

// SimilarListings handles GET /api/v1/listings/{id}/similar.
func (s *Server) SimilarListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if v := q.Get("limit"); v != "" {
		var err error
		if limit, err = intParam(v, "limit"); err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
			return
		}
	}

	hits := s.search.Similar(r.Context(), chi.URLParam(r, "id"), limit)
	writeJSON(w, http.StatusOK, similarResponse{Items: hits})
}

// CreateListing handles POST /api/v1/listings.
func (s *Server) CreateListing(w http.ResponseWriter, r *http.Request) {
	var l listing.Listing
	if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	indexed, err := s.search.IndexListing(r.Context(), &l)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/listings/"+indexed.ID)
	writeJSON(w, http.StatusCreated, indexed)
}

// GetListing handles GET /api/v1/listings/{id}.
func (s *Server) GetListing(w http.ResponseWriter, r *http.Request) {
	l, err := s.search.GetListing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, l)
}

// ReplaceListing handles PUT /api/v1/listings/{id}: a full re-index of the
// listing under the path id.
func (s *Server) ReplaceListing(w http.ResponseWriter, r *http.Request) {
	var l listing.Listing
	if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	l.ID = chi.URLParam(r, "id")

	indexed, err := s.search.IndexListing(r.Context(), &l)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, indexed)
}

// UpdateListing handles PATCH /api/v1/listings/{id}.
func (s *Server) UpdateListing(w http.ResponseWriter, r *http.Request) {
	var updates map[string]any
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(updates) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "no fields to update")
		return
	}

	l, err := s.search.UpdateListing(r.Context(), chi.URLParam(r, "id"), updates)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, l)
}

// DeleteListing handles DELETE /api/v1/listings/{id}.
func (s *Server) DeleteListing(w http.ResponseWriter, r *http.Request) {
	if err := s.search.DeleteListing(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrListingNotFound,
		domain.ErrInvalidListing,
		domain.ErrSearchUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
