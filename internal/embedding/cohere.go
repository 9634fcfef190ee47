package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
)

// cohereBatchLimit is the most texts one Embed call accepts.
const cohereBatchLimit = 96

// CohereEmbedder calls the hosted Cohere embed endpoint.
type CohereEmbedder struct {
	client     *cohereclient.Client
	model      string
	dimensions int
}

// NewCohereEmbedder creates an embedder for model. dimensions must match
// the model output and the vector store schema.
func NewCohereEmbedder(apiKey, model string, dimensions int) (*CohereEmbedder, error) {
	if apiKey == "" {
		return nil, errors.New("cohere embedder requires an API key")
	}
	httpClient := &http.Client{Timeout: 60 * time.Second}
	client := cohereclient.NewClient(
		cohereclient.WithToken(apiKey),
		cohereclient.WithHTTPClient(httpClient),
	)
	return &CohereEmbedder{client: client, model: model, dimensions: dimensions}, nil
}

// Embed embeds one passage.
func (c *CohereEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.embed(ctx, []string{text}, cohere.EmbedInputTypeSearchDocument)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedQuery embeds a search query.
func (c *CohereEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.embed(ctx, []string{text}, cohere.EmbedInputTypeSearchQuery)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds passages in chunks of the API batch limit.
func (c *CohereEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += cohereBatchLimit {
		end := start + cohereBatchLimit
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := c.embed(ctx, texts[start:end], cohere.EmbedInputTypeSearchDocument)
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (c *CohereEmbedder) embed(ctx context.Context, texts []string, inputType cohere.EmbedInputType) ([][]float32, error) {
	resp, err := c.client.V2.Embed(ctx, &cohere.V2EmbedRequest{
		Texts:          texts,
		Model:          c.model,
		InputType:      inputType,
		EmbeddingTypes: []cohere.EmbeddingType{cohere.EmbeddingTypeFloat},
	})
	if err != nil {
		return nil, fmt.Errorf("cohere embed failed: %w", err)
	}
	if resp == nil || resp.Embeddings == nil {
		return nil, errors.New("cohere embed returned empty response")
	}
	return toFloat32(resp.Embeddings.Float, len(texts))
}

func toFloat32(floats [][]float64, want int) ([][]float32, error) {
	if len(floats) != want {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(floats), want)
	}
	out := make([][]float32, len(floats))
	for i, vec := range floats {
		fv := make([]float32, len(vec))
		for j, v := range vec {
			fv[j] = float32(v)
		}
		out[i] = fv
	}
	return out, nil
}

// Dimensions returns the configured embedding dimension.
func (c *CohereEmbedder) Dimensions() int {
	return c.dimensions
}

// Close is a no-op.
func (c *CohereEmbedder) Close() error {
	return nil
}
