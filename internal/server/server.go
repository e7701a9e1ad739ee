// Package server exposes a decoded dataset over a read-only HTTP API.
package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sleepwiki/ingredex"
	"github.com/sleepwiki/ingredex/internal/search"
	"github.com/sleepwiki/ingredex/model"
	"github.com/sleepwiki/ingredex/query"
)

// ErrNotLoaded is returned by Reload when the loader produced no result.
var ErrNotLoaded = errors.New("dataset not loaded")

// Loader produces the dataset to serve. It is called at start-up and on
// every reload.
type Loader func() (*ingredex.Result, error)

// Options configures a Server.
type Options struct {
	// AllowedOrigins lists CORS origins. Empty means any origin.
	AllowedOrigins []string
}

// Server holds the current dataset and the HTTP handlers over it.
type Server struct {
	load   Loader
	index  *search.Index
	router *chi.Mux
	logger *slog.Logger
	now    func() time.Time

	mu   sync.RWMutex
	snap *snapshot
}

// snapshot is one loaded dataset. It is never modified after Reload
// publishes it.
type snapshot struct {
	entities    []model.Entity
	byID        map[int]int
	ingredients []string
	report      ingredex.Report
	title       string
	loadedAt    time.Time
}

// New creates a server and loads the dataset once. A nil logger discards
// output.
func New(load Loader, opts Options, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	index, err := search.New(logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		load:   load,
		index:  index,
		router: chi.NewRouter(),
		logger: logger,
		now:    time.Now,
	}

	s.setupMiddleware(opts)
	s.setupRoutes()

	if err := s.Reload(); err != nil {
		index.Close()
		return nil, err
	}
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases the search index.
func (s *Server) Close() error {
	return s.index.Close()
}

// Reload runs the loader and swaps in the new dataset. On failure the
// previous dataset keeps being served.
func (s *Server) Reload() error {
	res, err := s.load()
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	if res == nil {
		return ErrNotLoaded
	}

	if err := s.index.Replace(res.Entities); err != nil {
		return fmt.Errorf("rebuild search index: %w", err)
	}

	snap := &snapshot{
		entities:    res.Entities,
		byID:        make(map[int]int, len(res.Entities)),
		ingredients: query.Ingredients(res.Entities),
		report:      res.Report,
		title:       res.Title,
		loadedAt:    s.now().UTC(),
	}
	for i, e := range res.Entities {
		snap.byID[e.ID] = i
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	s.logger.Info("dataset loaded",
		"entities", len(snap.entities),
		"ingredients", len(snap.ingredients),
		"fallback", snap.report.Fallback)
	return nil
}

func (s *Server) current() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(opts Options) {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/summary", s.handleSummary)
		r.Get("/search", s.handleSearch)

		r.Route("/entities", func(r chi.Router) {
			r.Get("/", s.handleListEntities)
			r.Get("/{id}", s.handleGetEntity)
		})

		r.Route("/ingredients", func(r chi.Router) {
			r.Get("/", s.handleListIngredients)
			r.Get("/{name}", s.handleRankIngredient)
		})
	})

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		notFound(w, "route not found", s.logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		fail(w, http.StatusMethodNotAllowed, "method not allowed", s.logger)
	})
}

// requestLogger logs one line per request at Debug.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
