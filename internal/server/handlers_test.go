package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/hyperjump/kenpo/internal/compare"
	"github.com/hyperjump/kenpo/internal/config"
	"github.com/hyperjump/kenpo/internal/country"
	"github.com/hyperjump/kenpo/internal/embedding"
	"github.com/hyperjump/kenpo/internal/export"
	"github.com/hyperjump/kenpo/internal/models"
	"github.com/hyperjump/kenpo/internal/rerank"
	"github.com/hyperjump/kenpo/internal/search"
	"github.com/hyperjump/kenpo/internal/storage"
)

type fakeComparer struct {
	compareErr error
	matchErr   error
	lastID     string
}

func (f *fakeComparer) Compare(_ context.Context, req *models.CompareRequest) (*models.CompareResponse, error) {
	if f.compareErr != nil {
		return nil, f.compareErr
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &models.CompareResponse{
		SearchID: "search-1",
		Query:    req.Query,
		Pairs: []models.ComparisonPair{{
			Korean: models.ArticleResult{ID: "kr-10", Country: "KR", Structure: models.Structure{ArticleNumber: "10"}},
			Foreign: map[string]models.CountryPage{
				"DE": {Items: []models.ArticleResult{{ID: "de-1", Country: "DE", Structure: models.Structure{ArticleNumber: "1"}}}, Total: 1},
			},
		}},
		TotalKoreanFound:  1,
		TotalForeignFound: 1,
	}, nil
}

func (f *fakeComparer) MatchCountry(_ context.Context, searchID string, req *models.MatchRequest) (*models.CountryPage, error) {
	f.lastID = searchID
	if f.matchErr != nil {
		return nil, f.matchErr
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &models.CountryPage{Items: []models.ArticleResult{{ID: "us-14", Country: req.Country}}, Total: 1}, nil
}

type fakeSearcher struct{ err error }

func (f fakeSearcher) Execute(_ context.Context, q *models.SearchQuery) (*models.SearchResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.SearchResponse{Query: q.Query, Results: []models.RerankedResult{}}, nil
}

func newTestStore(t *testing.T) *storage.MemoryStore {
	t.Helper()
	store, err := storage.NewMemoryStore(16)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	emb := embedding.NewHashEmbedder(16)
	var recs []models.Record
	for _, r := range []struct{ id, cc, num, text string }{
		{"kr-10", "KR", "10", "All citizens shall be assured of human worth and dignity"},
		{"de-1", "DE", "1", "Human dignity shall be inviolable"},
	} {
		vec, _ := emb.Embed(ctx, r.text)
		recs = append(recs, models.Record{
			ID:   r.id,
			Text: r.text,
			Metadata: models.Metadata{
				Country:     r.cc,
				DisplayPath: "Article " + r.num,
				Structure:   models.Structure{ArticleNumber: r.num},
			},
			Embedding: vec,
		})
	}
	if err := store.Upsert(ctx, recs); err != nil {
		t.Fatal(err)
	}
	return store
}

func newTestServer(t *testing.T, s Searcher, c Comparer) *Server {
	t.Helper()
	countries, err := country.NewNameIndex()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = countries.Close() })
	return NewServer(s, c, newTestStore(t), countries, &config.Config{}, zap.NewNop())
}

func do(t *testing.T, srv *Server, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	r := httptest.NewRequest(method, target, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	return w
}

func TestHandleSearch(t *testing.T) {
	store := newTestStore(t)
	engine := search.NewEngine(store, embedding.NewHashEmbedder(16), rerank.NewLexical(), &config.SearchConfig{RRFK: 60})
	srv := NewServer(engine, &fakeComparer{}, store, nil, &config.Config{}, zap.NewNop())

	w := do(t, srv, http.MethodPost, "/api/v1/search", map[string]interface{}{
		"query":  "human dignity",
		"filter": map[string]string{"country": "de"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out models.SearchResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Total != 1 || out.Results[0].ID != "de-1" {
		t.Errorf("results: got %+v", out.Results)
	}
}

func TestHandleSearch_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		body interface{}
		want int
	}{
		{"invalid body", nil, "not an object", http.StatusBadRequest},
		{"validation", fmt.Errorf("%w: query cannot be empty", models.ErrInvalidRequest), map[string]string{}, http.StatusBadRequest},
		{"unavailable", fmt.Errorf("%w: embed: model not loaded", search.ErrUnavailable), map[string]string{"query": "q"}, http.StatusServiceUnavailable},
		{"internal", fmt.Errorf("boom"), map[string]string{"query": "q"}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, fakeSearcher{err: tt.err}, &fakeComparer{})
			w := do(t, srv, http.MethodPost, "/api/v1/search", tt.body)
			if w.Code != tt.want {
				t.Errorf("status: got %d, want %d", w.Code, tt.want)
			}
			var out map[string]string
			if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
				t.Fatal(err)
			}
			if out["error"] == "" {
				t.Error("expected error message")
			}
		})
	}
}

func TestHandleCompare(t *testing.T) {
	srv := newTestServer(t, fakeSearcher{}, &fakeComparer{})
	w := do(t, srv, http.MethodPost, "/api/v1/compare", map[string]string{"query": "인간의 존엄"})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out models.CompareResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.SearchID != "search-1" || len(out.Pairs) != 1 {
		t.Errorf("response: got %+v", out)
	}

	w = do(t, srv, http.MethodPost, "/api/v1/compare", map[string]interface{}{"query": "q", "korean_top_k": 50})
	if w.Code != http.StatusBadRequest {
		t.Errorf("out of range korean_top_k: got %d", w.Code)
	}
}

func TestHandleMatchCountry(t *testing.T) {
	comparer := &fakeComparer{}
	srv := newTestServer(t, fakeSearcher{}, comparer)

	w := do(t, srv, http.MethodPost, "/api/v1/compare/search-1/match", map[string]string{"anchor_text": "dignity", "country": "us"})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	if comparer.lastID != "search-1" {
		t.Errorf("search id: got %q", comparer.lastID)
	}
	var page models.CountryPage
	if err := json.NewDecoder(w.Body).Decode(&page); err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 1 || page.Items[0].Country != "US" {
		t.Errorf("page: got %+v", page)
	}

	w = do(t, srv, http.MethodPost, "/api/v1/compare/search-1/match", map[string]string{"anchor_text": "dignity"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing country: got %d", w.Code)
	}

	comparer.matchErr = compare.ErrSearchExpired
	w = do(t, srv, http.MethodPost, "/api/v1/compare/gone/match", map[string]string{"country": "US"})
	if w.Code != http.StatusNotFound {
		t.Errorf("expired search: got %d", w.Code)
	}
}

func TestHandleCompareExport(t *testing.T) {
	srv := newTestServer(t, fakeSearcher{}, &fakeComparer{})
	w := do(t, srv, http.MethodPost, "/api/v1/compare/export", map[string]string{"query": "인간의 존엄"})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != export.ContentType {
		t.Errorf("content type: got %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "kenpo-search-1.xlsx") {
		t.Errorf("content disposition: got %q", cd)
	}
	f, err := excelize.OpenReader(w.Body)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows(export.PairsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Errorf("rows: got %d, want 2", len(rows))
	}
}

func TestHandleCountries(t *testing.T) {
	srv := newTestServer(t, fakeSearcher{}, &fakeComparer{})

	w := do(t, srv, http.MethodGet, "/api/v1/countries", nil)
	var all struct {
		Countries []country.Country `json:"countries"`
		Total     int               `json:"total"`
	}
	if err := json.NewDecoder(w.Body).Decode(&all); err != nil {
		t.Fatal(err)
	}
	if all.Total != len(country.All()) {
		t.Errorf("total: got %d, want %d", all.Total, len(country.All()))
	}

	w = do(t, srv, http.MethodGet, "/api/v1/countries?continent=North%20America", nil)
	var na struct {
		Countries []country.Country `json:"countries"`
	}
	if err := json.NewDecoder(w.Body).Decode(&na); err != nil {
		t.Fatal(err)
	}
	if len(na.Countries) == 0 {
		t.Fatal("expected north american countries")
	}
	for _, c := range na.Countries {
		if c.Continent != country.NorthAmerica {
			t.Errorf("%s: continent %s", c.Code, c.Continent)
		}
	}

	w = do(t, srv, http.MethodGet, "/api/v1/countries?continent=atlantis", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown continent: got %d", w.Code)
	}
}

func TestHandleCountrySearch(t *testing.T) {
	srv := newTestServer(t, fakeSearcher{}, &fakeComparer{})

	w := do(t, srv, http.MethodGet, "/api/v1/countries/search?q=germany", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Countries []country.Country `json:"countries"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Countries) == 0 || out.Countries[0].Code != "DE" {
		t.Errorf("search germany: got %+v", out.Countries)
	}

	w = do(t, srv, http.MethodGet, "/api/v1/countries/search", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing q: got %d", w.Code)
	}

	disabled := NewServer(fakeSearcher{}, &fakeComparer{}, newTestStore(t), nil, nil, nil)
	w = do(t, disabled, http.MethodGet, "/api/v1/countries/search?q=japan", nil)
	if w.Code != http.StatusNotImplemented {
		t.Errorf("disabled: got %d", w.Code)
	}
}

func TestHandleContinents(t *testing.T) {
	srv := newTestServer(t, fakeSearcher{}, &fakeComparer{})
	w := do(t, srv, http.MethodGet, "/api/v1/continents", nil)
	var out struct {
		Continents []country.ContinentInfo `json:"continents"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Continents) != 6 || out.Continents[0].Slug != country.Asia {
		t.Errorf("continents: got %+v", out.Continents)
	}
}

func TestHandleStatus(t *testing.T) {
	srv := newTestServer(t, fakeSearcher{}, &fakeComparer{})
	w := do(t, srv, http.MethodGet, "/api/v1/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		Records      int    `json:"records"`
		StoreBackend string `json:"store_backend"`
		CacheBackend string `json:"cache_backend"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Records != 2 {
		t.Errorf("records: got %d, want 2", out.Records)
	}
	if out.StoreBackend != "memory" || out.CacheBackend != "memory" {
		t.Errorf("backends: got %q / %q", out.StoreBackend, out.CacheBackend)
	}
}

func TestHandleStatus_WithDiskUsage(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "kenpo.db")
	store, err := storage.NewSQLiteStore(dbPath, 16)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	cfg := &config.Config{
		Storage: config.StorageConfig{Backend: "sqlite", DatabasePath: dbPath},
		Cache:   config.CacheConfig{Backend: "redis"},
	}
	srv := NewServer(fakeSearcher{}, &fakeComparer{}, store, nil, cfg, zap.NewNop())
	w := do(t, srv, http.MethodGet, "/api/v1/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		DiskUsageBytes int64  `json:"disk_usage_bytes"`
		CacheBackend   string `json:"cache_backend"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.DiskUsageBytes <= 0 {
		t.Errorf("disk_usage_bytes: got %d", out.DiskUsageBytes)
	}
	if out.CacheBackend != "redis" {
		t.Errorf("cache_backend: got %q", out.CacheBackend)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, fakeSearcher{}, &fakeComparer{})
	w := do(t, srv, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
}
