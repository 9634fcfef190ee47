package rerank

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
)

// CohereReranker calls the hosted Cohere rerank endpoint.
type CohereReranker struct {
	client *cohereclient.Client
	model  string
}

// NewCohereReranker creates a reranker for model using apiKey.
func NewCohereReranker(apiKey, model string) (*CohereReranker, error) {
	if apiKey == "" {
		return nil, errors.New("cohere reranker requires an API key")
	}
	httpClient := &http.Client{Timeout: 60 * time.Second}
	client := cohereclient.NewClient(
		cohereclient.WithToken(apiKey),
		cohereclient.WithHTTPClient(httpClient),
	)
	return &CohereReranker{client: client, model: model}, nil
}

// Rerank implements Reranker.
func (c *CohereReranker) Rerank(ctx context.Context, query string, docs []string, topK int) ([]Score, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	req := &cohere.V2RerankRequest{
		Model:     c.model,
		Query:     query,
		Documents: docs,
	}
	if topK > 0 && topK < len(docs) {
		req.TopN = &topK
	}
	resp, err := c.client.V2.Rerank(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("cohere rerank failed: %w", err)
	}
	if resp == nil {
		return nil, errors.New("cohere rerank returned empty response")
	}
	return scoresFromCohere(resp.Results), nil
}

func scoresFromCohere(items []*cohere.V2RerankResponseResultsItem) []Score {
	out := make([]Score, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		out = append(out, Score{Index: it.Index, Value: it.RelevanceScore})
	}
	SortScores(out)
	return out
}
