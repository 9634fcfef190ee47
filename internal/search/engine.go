package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/kenpo/internal/config"
	"github.com/hyperjump/kenpo/internal/embedding"
	"github.com/hyperjump/kenpo/internal/keyword"
	"github.com/hyperjump/kenpo/internal/models"
	"github.com/hyperjump/kenpo/internal/ranking"
	"github.com/hyperjump/kenpo/internal/rerank"
	"github.com/hyperjump/kenpo/internal/storage"
)

// ErrUnavailable is returned when the dense signal cannot be computed.
var ErrUnavailable = errors.New("search backend unavailable")

// KeywordScore is the raw score given to exact article matches.
const KeywordScore = 1.0

const (
	defaultSparseCorpusLimit = 1000
	defaultKeywordLimit      = 10
	defaultRerankFactor      = 3
)

// Engine runs hybrid (dense + sparse + exact article) search.
type Engine struct {
	store    storage.DocumentStore
	embedder embedding.Embedder
	reranker rerank.Reranker
	config   *config.SearchConfig
	analyzer *ranking.QueryAnalyzer
	booster  *ranking.Booster
	logger   *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates a search engine. reranker may be nil to disable reranking.
func NewEngine(
	store storage.DocumentStore,
	embedder embedding.Embedder,
	reranker rerank.Reranker,
	cfg *config.SearchConfig,
	opts ...EngineOption,
) *Engine {
	if cfg == nil {
		cfg = &config.SearchConfig{}
	}
	e := &Engine{
		store:    store,
		embedder: embedder,
		reranker: reranker,
		config:   cfg,
		analyzer: ranking.NewQueryAnalyzer(),
		booster:  ranking.NewBooster(cfg.Boost),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search runs hybrid search and returns the selected results.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) ([]models.RerankedResult, error) {
	results, _, err := e.search(ctx, query)
	return results, err
}

// Execute runs Search and wraps the results with timing and the detected
// query strategy.
func (e *Engine) Execute(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	start := time.Now()
	results, analyzed, err := e.search(ctx, query)
	if err != nil {
		return nil, err
	}
	return &models.SearchResponse{
		Query:     query.Query,
		Results:   results,
		Total:     len(results),
		QueryTime: time.Since(start).Milliseconds(),
		Strategy:  analyzed.Strategy.String(),
	}, nil
}

func (e *Engine) search(ctx context.Context, query *models.SearchQuery) ([]models.RerankedResult, *ranking.AnalyzedQuery, error) {
	if err := ProcessQuery(query, e.config); err != nil {
		return nil, nil, err
	}
	analyzed := e.analyzer.Analyze(query.Query)

	var dense, sparse, exact []models.SearchHit
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := e.denseSearch(gctx, query)
		dense = hits
		return err
	})
	g.Go(func() error {
		sparse = e.sparseSearch(gctx, query, analyzed.Optimized)
		return nil
	})
	g.Go(func() error {
		exact = e.keywordSearch(gctx, query)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	fused := FuseRRF(dense, sparse, exact, query.Weights, e.config.RRFK)
	results := e.rerank(ctx, query, fused)
	if query.Boost {
		results = e.booster.Apply(analyzed, results)
	}
	selected := Select(results, query.TopK, query.ScoreThreshold, query.MinResults)

	e.logger.Debug("hybrid search",
		zap.String("query", query.Query),
		zap.String("strategy", analyzed.Strategy.String()),
		zap.Int("dense", len(dense)),
		zap.Int("sparse", len(sparse)),
		zap.Int("keyword", len(exact)),
		zap.Int("fused", len(fused)),
		zap.Int("results", len(selected)),
	)
	return selected, analyzed, nil
}

func (e *Engine) denseSearch(ctx context.Context, query *models.SearchQuery) ([]models.SearchHit, error) {
	vec, err := embedding.EmbedQuery(ctx, e.embedder, query.Query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to embed query: %w", ErrUnavailable, err)
	}
	hits, err := e.store.DenseSearch(ctx, vec, query.Filter, query.InitialRetrieve)
	if err != nil {
		return nil, fmt.Errorf("%w: dense search failed: %w", ErrUnavailable, err)
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].RawScore > hits[j].RawScore })
	for i := range hits {
		hits[i].Rank = i + 1
	}
	return hits, nil
}

// sparseSearch scores a filtered scan with BM25 using the particle-stripped
// query text. A failed scan degrades to no sparse signal.
func (e *Engine) sparseSearch(ctx context.Context, query *models.SearchQuery, text string) []models.SearchHit {
	limit := e.config.SparseCorpusLimit
	if limit <= 0 {
		limit = defaultSparseCorpusLimit
	}
	limit = min(limit, query.InitialRetrieve*3)

	records, err := e.store.Scan(ctx, query.Filter, limit)
	if err != nil {
		e.logger.Warn("sparse corpus pull failed", zap.Error(err))
		return nil
	}
	texts := make([]string, len(records))
	for i := range records {
		texts[i] = records[i].EmbeddingText()
	}
	bm := keyword.NewBM25()
	bm.Fit(texts)

	hits := make([]models.SearchHit, 0, len(records))
	for i, score := range bm.ScoreAll(text) {
		if score <= 0 {
			continue
		}
		hits = append(hits, records[i].Hit(score, 0))
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].RawScore > hits[j].RawScore })
	if len(hits) > query.InitialRetrieve {
		hits = hits[:query.InitialRetrieve]
	}
	for i := range hits {
		hits[i].Rank = i + 1
	}
	return hits
}

// keywordSearch looks up every article number named in the query. Lookup
// failures skip that number.
func (e *Engine) keywordSearch(ctx context.Context, query *models.SearchQuery) []models.SearchHit {
	numbers := keyword.ExtractArticleNumbers(query.Query)
	if len(numbers) == 0 {
		return nil
	}
	limit := e.config.KeywordLimit
	if limit <= 0 {
		limit = defaultKeywordLimit
	}
	seen := make(map[string]bool)
	var hits []models.SearchHit
	for _, n := range numbers {
		records, err := e.store.MatchArticle(ctx, n, query.Filter, limit)
		if err != nil {
			e.logger.Warn("article lookup failed", zap.String("article", n), zap.Error(err))
			continue
		}
		for i := range records {
			h := records[i].Hit(KeywordScore, 0)
			key := h.Key()
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			h.Rank = len(hits) + 1
			hits = append(hits, h)
		}
	}
	return hits
}

func (e *Engine) rerank(ctx context.Context, query *models.SearchQuery, fused []models.FusedResult) []models.RerankedResult {
	if !query.RerankEnabled() || e.reranker == nil {
		return ApplyRerank(fused, 0, rerank.Outcome{Kind: rerank.KindSkipped})
	}
	factor := e.config.RerankFactor
	if factor <= 0 {
		factor = defaultRerankFactor
	}
	n := min(len(fused), query.TopK*factor)
	docs := make([]string, n)
	for i := 0; i < n; i++ {
		docs[i] = fused[i].Text
	}
	outcome := rerank.Run(ctx, e.reranker, query.Query, docs, n)
	if outcome.Kind == rerank.KindUnavailable {
		e.logger.Warn("reranker unavailable, using fused order", zap.Error(outcome.Err))
	}
	return ApplyRerank(fused, n, outcome)
}
