//go:build cgo
// +build cgo

package rerank

import (
	"context"
	"fmt"
	"math"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/hyperjump/kenpo/internal/embedding"
)

// ONNXReranker scores (query, document) pairs with a cross-encoder model
// exported to ONNX. The single logit is squashed with a sigmoid.
type ONNXReranker struct {
	session   *ort.AdvancedSession
	maxTokens int
	tokenizer embedding.PairTokenizer

	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	tokenTypeIDs  *ort.Tensor[int64]
	logits        *ort.Tensor[float32]
	mu            sync.Mutex
}

// NewONNXReranker loads the cross-encoder at modelPath.
func NewONNXReranker(modelPath string, maxTokens int) (*ONNXReranker, error) {
	if maxTokens <= 0 {
		maxTokens = 512
	}
	if err := embedding.InitRuntime(); err != nil {
		return nil, err
	}
	r := &ONNXReranker{maxTokens: maxTokens, tokenizer: &embedding.SimpleTokenizer{}}
	shape := ort.NewShape(1, int64(maxTokens))
	var err error
	if r.inputIDs, err = ort.NewEmptyTensor[int64](shape); err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	if r.attentionMask, err = ort.NewEmptyTensor[int64](shape); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	if r.tokenTypeIDs, err = ort.NewEmptyTensor[int64](shape); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("failed to create token_type_ids tensor: %w", err)
	}
	if r.logits, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 1)); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("failed to create logits tensor: %w", err)
	}
	r.session, err = ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"logits"},
		[]ort.ArbitraryTensor{r.inputIDs, r.attentionMask, r.tokenTypeIDs},
		[]ort.ArbitraryTensor{r.logits},
		nil,
	)
	if err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return r, nil
}

// Rerank implements Reranker.
func (r *ONNXReranker) Rerank(ctx context.Context, query string, docs []string, topK int) ([]Score, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	scores := make([]Score, 0, len(docs))
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ids, mask, types := r.tokenizer.TokenizePair(query, doc, r.maxTokens)
		copy(r.inputIDs.GetData(), ids)
		copy(r.attentionMask.GetData(), mask)
		copy(r.tokenTypeIDs.GetData(), types)
		if err := r.session.Run(); err != nil {
			return nil, fmt.Errorf("inference failed: %w", err)
		}
		logit := float64(r.logits.GetData()[0])
		scores = append(scores, Score{Index: i, Value: 1 / (1 + math.Exp(-logit))})
	}
	SortScores(scores)
	return Truncate(scores, topK), nil
}

// Close destroys the session and tensors.
func (r *ONNXReranker) Close() error {
	var err error
	if r.session != nil {
		err = r.session.Destroy()
		r.session = nil
	}
	if r.inputIDs != nil {
		_ = r.inputIDs.Destroy()
		r.inputIDs = nil
	}
	if r.attentionMask != nil {
		_ = r.attentionMask.Destroy()
		r.attentionMask = nil
	}
	if r.tokenTypeIDs != nil {
		_ = r.tokenTypeIDs.Destroy()
		r.tokenTypeIDs = nil
	}
	if r.logits != nil {
		_ = r.logits.Destroy()
		r.logits = nil
	}
	return err
}
