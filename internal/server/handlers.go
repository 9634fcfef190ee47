package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/kenpo/internal/compare"
	"github.com/hyperjump/kenpo/internal/country"
	"github.com/hyperjump/kenpo/internal/export"
	"github.com/hyperjump/kenpo/internal/models"
	"github.com/hyperjump/kenpo/internal/search"
	"github.com/hyperjump/kenpo/internal/storage"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("top_k", query.TopK))
	response, err := s.searcher.Execute(r.Context(), &query)
	if err != nil {
		s.respondFailure(w, "search", err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req models.CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("compare request", zap.String("query", req.Query), zap.String("target_country", req.TargetCountry))
	response, err := s.comparer.Compare(r.Context(), &req)
	if err != nil {
		s.respondFailure(w, "compare", err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleMatchCountry(w http.ResponseWriter, r *http.Request) {
	searchID := chi.URLParam(r, "searchID")
	var req models.MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("match request", zap.String("search_id", searchID), zap.String("country", req.Country))
	page, err := s.comparer.MatchCountry(r.Context(), searchID, &req)
	if err != nil {
		s.respondFailure(w, "match", err)
		return
	}
	s.respondJSON(w, http.StatusOK, page)
}

func (s *Server) handleCompareExport(w http.ResponseWriter, r *http.Request) {
	var req models.CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	response, err := s.comparer.Compare(r.Context(), &req)
	if err != nil {
		s.respondFailure(w, "export", err)
		return
	}
	var buf bytes.Buffer
	if err := export.WritePairs(&buf, response); err != nil {
		s.respondFailure(w, "export", err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "kenpo-"+response.SearchID+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	continent := strings.TrimSpace(r.URL.Query().Get("continent"))
	var list []country.Country
	if continent == "" {
		list = country.All()
	} else {
		if !knownContinent(continent) {
			s.respondError(w, http.StatusBadRequest, "unknown continent: "+continent)
			return
		}
		list = country.ByContinent(continent)
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"countries": list, "total": len(list)})
}

func (s *Server) handleCountrySearch(w http.ResponseWriter, r *http.Request) {
	if s.countries == nil {
		s.respondError(w, http.StatusNotImplemented, "country search not enabled")
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	list, err := s.countries.Search(q)
	if err != nil {
		s.respondFailure(w, "country search", err)
		return
	}
	if list == nil {
		list = []country.Country{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"countries": list, "total": len(list)})
}

func (s *Server) handleContinents(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"continents": country.Continents()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	records, err := s.store.Count(ctx, models.Filter{})
	if err != nil {
		s.logger.Error("status: count records failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"records":       records,
		"store_backend": s.store.Name(),
		"cache_backend": cacheBackend(s.config.Cache.Backend),
	}
	configInfo := map[string]interface{}{
		"embedding_provider":   s.config.Embedding.Provider,
		"embedding_dimensions": s.config.Embedding.Dimensions,
		"reranker_provider":    s.config.Reranker.Provider,
		"database_path":        s.config.Storage.DatabasePath,
		"watch_directories":    s.config.Watch.Directories,
	}
	if s.store.Name() == "sqlite" {
		if diskBytes, err := storage.DiskUsageBytes(storage.SQLiteFiles(s.config.Storage.DatabasePath)...); err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}
	resp["config"] = configInfo
	s.respondJSON(w, http.StatusOK, resp)
}

func cacheBackend(name string) string {
	if name == "" {
		return "memory"
	}
	return name
}

func knownContinent(continent string) bool {
	slug := country.Slug(continent)
	for _, c := range country.Continents() {
		if c.Slug == slug {
			return true
		}
	}
	return false
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, compare.ErrSearchExpired):
		return http.StatusNotFound
	case errors.Is(err, search.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondFailure(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", zap.Error(err))
	} else {
		s.logger.Debug(op+" rejected", zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
