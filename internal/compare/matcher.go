// Package compare pairs Korean constitution articles with their closest
// foreign counterparts. A comparison retrieves Korean anchors and one shared
// foreign candidate pool, reranks the whole pool against every anchor, then
// dedupes, groups and paginates the matches per country.
package compare

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/kenpo/internal/models"
	"github.com/hyperjump/kenpo/internal/rerank"
	"github.com/hyperjump/kenpo/internal/search"
)

const defaultMatchConcurrency = 4

// Anchor is the query side of a cross-country match.
type Anchor struct {
	ID       string
	Text     string
	Metadata models.Metadata
}

// AnchorFromResult converts a Korean search result into an anchor.
func AnchorFromResult(r models.RerankedResult) Anchor {
	return Anchor{ID: r.Key(), Text: r.Text, Metadata: r.Metadata}
}

// Matcher reranks a foreign candidate pool against each anchor.
type Matcher struct {
	reranker    rerank.Reranker
	concurrency int
	logger      *zap.Logger
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithMatcherLogger sets the matcher logger.
func WithMatcherLogger(logger *zap.Logger) MatcherOption {
	return func(m *Matcher) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithConcurrency bounds how many anchors are reranked at once.
func WithConcurrency(n int) MatcherOption {
	return func(m *Matcher) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// NewMatcher creates a Matcher. reranker may be nil, in which case every
// anchor gets the pool in fusion order.
func NewMatcher(reranker rerank.Reranker, opts ...MatcherOption) *Matcher {
	m := &Matcher{
		reranker:    reranker,
		concurrency: defaultMatchConcurrency,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match returns, for every anchor id, the pool ranked against that anchor
// and cut to topK. Anchors are independent: a reranker failure for one
// anchor falls back to fusion order for that anchor only. Display scores
// are min-max normalized per anchor.
func (m *Matcher) Match(
	ctx context.Context,
	anchors []Anchor,
	pool []models.FusedResult,
	topK int,
	useReranker bool,
) map[string][]models.RerankedResult {
	lists := make([][]models.RerankedResult, len(anchors))

	var g errgroup.Group
	g.SetLimit(m.concurrency)
	for i := range anchors {
		g.Go(func() error {
			lists[i] = m.MatchOne(ctx, anchors[i], pool, topK, useReranker)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string][]models.RerankedResult, len(anchors))
	for i, a := range anchors {
		out[a.ID] = lists[i]
	}
	return out
}

// MatchOne ranks pool against a single anchor. A non-positive topK keeps
// the whole pool.
func (m *Matcher) MatchOne(
	ctx context.Context,
	anchor Anchor,
	pool []models.FusedResult,
	topK int,
	useReranker bool,
) []models.RerankedResult {
	if anchor.Text == "" || len(pool) == 0 {
		return []models.RerankedResult{}
	}
	if topK <= 0 || topK > len(pool) {
		topK = len(pool)
	}

	cands := make([]models.FusedResult, len(pool))
	copy(cands, pool)
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].FusionScore > cands[j].FusionScore
	})

	outcome := rerank.Outcome{Kind: rerank.KindSkipped}
	if useReranker && m.reranker != nil {
		docs := make([]string, len(cands))
		for i := range cands {
			docs[i] = cands[i].Text
		}
		outcome = rerank.Run(ctx, m.reranker, anchor.Text, docs, topK)
		if outcome.Kind == rerank.KindUnavailable {
			m.logger.Warn("anchor rerank failed, using fusion order",
				zap.String("anchor", anchor.ID),
				zap.Error(outcome.Err),
			)
		}
	}

	ranked := search.ApplyRerank(cands, len(cands), outcome)
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return search.AssignDisplayScores(ranked)
}
