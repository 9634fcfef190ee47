package compare

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/kenpo/internal/cache"
	"github.com/hyperjump/kenpo/internal/config"
	"github.com/hyperjump/kenpo/internal/models"
	"github.com/hyperjump/kenpo/internal/search"
)

// ErrSearchExpired is returned when a replay names a search id whose pool
// is gone.
var ErrSearchExpired = errors.New("search expired or not found")

// Searcher runs one hybrid search. *search.Engine implements it.
type Searcher interface {
	Search(ctx context.Context, query *models.SearchQuery) ([]models.RerankedResult, error)
}

// Service runs comparative searches and per-country replays.
type Service struct {
	searcher   Searcher
	matcher    *Matcher
	pools      cache.PoolCache
	summarizer *Summarizer
	config     config.CompareConfig
	docType    string
	logger     *zap.Logger
	newID      func() string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the service logger.
func WithServiceLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSummarizer enables comparison summaries.
func WithSummarizer(summarizer *Summarizer) ServiceOption {
	return func(s *Service) { s.summarizer = summarizer }
}

// WithDocType restricts both searches to one document type.
func WithDocType(docType string) ServiceOption {
	return func(s *Service) { s.docType = docType }
}

// NewService creates a comparison service.
func NewService(
	searcher Searcher,
	matcher *Matcher,
	pools cache.PoolCache,
	cfg config.CompareConfig,
	opts ...ServiceOption,
) *Service {
	if cfg.KoreanCountry == "" {
		cfg.KoreanCountry = "KR"
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 100
	}
	if cfg.PoolRetrieve < cfg.PoolSize {
		cfg.PoolRetrieve = cfg.PoolSize * 2
	}
	if cfg.TopKPerAnchor <= 0 {
		cfg.TopKPerAnchor = 50
	}
	s := &Service{
		searcher: searcher,
		matcher:  matcher,
		pools:    pools,
		config:   cfg,
		docType:  "constitution",
		logger:   zap.NewNop(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Compare retrieves Korean anchors and a foreign candidate pool, matches the
// pool against every anchor and builds the paginated pairs. The pool is kept
// under the returned search id for MatchCountry.
func (s *Service) Compare(ctx context.Context, req *models.CompareRequest) (*models.CompareResponse, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var korean, foreign []models.RerankedResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rerank := req.RerankEnabled()
		res, err := s.searcher.Search(gctx, &models.SearchQuery{
			Query:       req.Query,
			TopK:        req.KoreanTopK,
			Filter:      models.Filter{Country: s.config.KoreanCountry, DocType: s.docType},
			UseReranker: &rerank,
		})
		if err != nil {
			return fmt.Errorf("korean search failed: %w", err)
		}
		korean = res
		return nil
	})
	g.Go(func() error {
		res, err := s.searcher.Search(gctx, s.poolQuery(req))
		if err != nil {
			return fmt.Errorf("foreign search failed: %w", err)
		}
		foreign = res
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pool := make([]models.FusedResult, len(foreign))
	for i, r := range foreign {
		pool[i] = r.FusedResult
	}
	searchID := s.newID()
	if err := s.pools.Put(ctx, searchID, pool); err != nil {
		s.logger.Warn("failed to cache candidate pool", zap.String("search_id", searchID), zap.Error(err))
	}

	anchors := make([]Anchor, len(korean))
	for i, r := range korean {
		anchors[i] = AnchorFromResult(r)
	}
	matched := s.matcher.Match(ctx, anchors, pool, s.config.TopKPerAnchor, req.RerankEnabled())

	var opts []PairOption
	if s.config.DisableDedupe {
		opts = append(opts, KeepDuplicates())
	}
	koreanArticles := ToArticles(korean)
	resp := &models.CompareResponse{
		SearchID:          searchID,
		Query:             req.Query,
		Pairs:             BuildPairs(koreanArticles, matched, req.PageSize, req.Cursors, opts...),
		TotalKoreanFound:  len(korean),
		TotalForeignFound: len(pool),
	}

	if req.SummaryEnabled() && s.summarizer != nil {
		summary, err := s.summarizer.Summarize(ctx, req.Query, koreanArticles, ToArticles(foreign))
		if err != nil {
			s.logger.Warn("comparison summary failed", zap.Error(err))
		} else {
			resp.Summary = summary
		}
	}

	resp.SearchTimeMs = time.Since(start).Milliseconds()
	s.logger.Debug("comparative search",
		zap.String("search_id", searchID),
		zap.Int("korean", len(korean)),
		zap.Int("pool", len(pool)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}

func (s *Service) poolQuery(req *models.CompareRequest) *models.SearchQuery {
	filter := models.Filter{ExcludeCountry: s.config.KoreanCountry, DocType: s.docType}
	if req.TargetCountry != "" {
		filter = models.Filter{Country: req.TargetCountry, DocType: s.docType}
	}
	// the pool is reranked per anchor, so query-level reranking is skipped
	noRerank := false
	return &models.SearchQuery{
		Query:           req.Query,
		TopK:            s.config.PoolSize,
		InitialRetrieve: s.config.PoolRetrieve,
		Filter:          filter,
		UseReranker:     &noRerank,
	}
}

// MatchCountry replays a cached pool against one anchor text, restricted
// to one country. Display scores are the clamped scores, so pages from
// different replays stay comparable.
func (s *Service) MatchCountry(ctx context.Context, searchID string, req *models.MatchRequest) (*models.CountryPage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	pool, err := s.pools.Get(ctx, searchID)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSearchExpired, searchID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate pool: %w", err)
	}

	cands := make([]models.FusedResult, 0, len(pool))
	for _, p := range pool {
		if p.Metadata.Country == req.Country {
			cands = append(cands, p)
		}
	}

	anchor := Anchor{ID: searchID, Text: req.AnchorText}
	ranked := s.matcher.MatchOne(ctx, anchor, cands, len(cands), true)
	items := make([]models.ArticleResult, len(ranked))
	for i, r := range ranked {
		r.DisplayScore = search.Clamp01(r.Score)
		items[i] = ToArticle(r)
	}
	if !s.config.DisableDedupe {
		items = Dedupe(items)
	}
	page := Paginate(GroupByCountry(items)[req.Country], req.Cursor, req.TopK)
	return &page, nil
}
