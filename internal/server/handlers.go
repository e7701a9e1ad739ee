package server

import (
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sleepwiki/ingredex"
	"github.com/sleepwiki/ingredex/internal/normalize"
	"github.com/sleepwiki/ingredex/internal/search"
	"github.com/sleepwiki/ingredex/model"
	"github.com/sleepwiki/ingredex/query"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string    `json:"status"`
	Entities int       `json:"entities"`
	Fallback bool      `json:"fallback"`
	LoadedAt time.Time `json:"loadedAt"`
}

// RankingResponse is the body of GET /api/v1/ingredients/{name}.
type RankingResponse struct {
	Ingredient string        `json:"ingredient"`
	Matches    []query.Match `json:"matches"`
}

// SummaryResponse is the body of GET /api/v1/summary.
type SummaryResponse struct {
	model.Summary
	Title  string          `json:"title,omitempty"`
	Report ingredex.Report `json:"report"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	snap := s.current()
	success(w, HealthResponse{
		Status:   "healthy",
		Entities: len(snap.entities),
		Fallback: snap.report.Fallback,
		LoadedAt: snap.loadedAt,
	}, s.logger)
}

func (s *Server) handleListEntities(w http.ResponseWriter, _ *http.Request) {
	entities := s.current().entities
	if entities == nil {
		entities = []model.Entity{}
	}
	success(w, entities, s.logger)
}

func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		badRequest(w, "id must be a positive integer", s.logger)
		return
	}

	snap := s.current()
	i, ok := snap.byID[id]
	if !ok {
		notFound(w, "entity not found", s.logger)
		return
	}
	success(w, snap.entities[i], s.logger)
}

func (s *Server) handleListIngredients(w http.ResponseWriter, _ *http.Request) {
	ingredients := s.current().ingredients
	if ingredients == nil {
		ingredients = []string{}
	}
	success(w, ingredients, s.logger)
}

func (s *Server) handleRankIngredient(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		badRequest(w, "malformed ingredient name", s.logger)
		return
	}
	name = normalize.Text(name)

	snap := s.current()
	if _, found := slices.BinarySearch(snap.ingredients, name); !found {
		notFound(w, "ingredient not found", s.logger)
		return
	}

	matches := query.Rank(snap.entities, name)
	if matches == nil {
		matches = []query.Match{}
	}
	success(w, RankingResponse{Ingredient: name, Matches: matches}, s.logger)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			badRequest(w, "limit must be a positive integer", s.logger)
			return
		}
		limit = n
	}

	hits, err := s.index.Search(r.Context(), q, limit)
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			badRequest(w, "query parameter q is required", s.logger)
			return
		}
		s.logger.Error("search failed", "query", q, "error", err)
		internalError(w, s.logger)
		return
	}
	success(w, hits, s.logger)
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	snap := s.current()
	success(w, SummaryResponse{
		Summary: model.NewSummary(snap.entities, snap.loadedAt, snap.report.Fallback),
		Title:   snap.title,
		Report:  snap.report,
	}, s.logger)
}
