// Package server provides the HTTP API for kenpo.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/kenpo/internal/config"
	"github.com/hyperjump/kenpo/internal/country"
	"github.com/hyperjump/kenpo/internal/models"
	"github.com/hyperjump/kenpo/internal/storage"
)

// Searcher runs a single hybrid search. *search.Engine implements it.
type Searcher interface {
	Execute(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error)
}

// Comparer runs comparative searches. *compare.Service implements it.
type Comparer interface {
	Compare(ctx context.Context, req *models.CompareRequest) (*models.CompareResponse, error)
	MatchCountry(ctx context.Context, searchID string, req *models.MatchRequest) (*models.CountryPage, error)
}

// Server is the HTTP server for the kenpo API.
type Server struct {
	searcher  Searcher
	comparer  Comparer
	store     storage.DocumentStore
	countries *country.NameIndex
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies. countries may be
// nil, in which case country search answers 501.
func NewServer(
	searcher Searcher,
	comparer Comparer,
	store storage.DocumentStore,
	countries *country.NameIndex,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if cfg == nil {
		cfg = &config.Config{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		searcher:  searcher,
		comparer:  comparer,
		store:     store,
		countries: countries,
		config:    cfg,
		logger:    logger,
	}
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Post("/compare", s.handleCompare)
		r.Post("/compare/export", s.handleCompareExport)
		r.Post("/compare/{searchID}/match", s.handleMatchCountry)
		r.Get("/countries", s.handleCountries)
		r.Get("/countries/search", s.handleCountrySearch)
		r.Get("/continents", s.handleContinents)
		r.Get("/status", s.handleStatus)
	})
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
