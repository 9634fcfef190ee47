//go:build !cgo
// +build !cgo

package rerank

import (
	"context"
	"errors"
)

var errNoCGO = errors.New("ONNX reranker requires CGO; build with CGO_ENABLED=1 and onnxruntime")

// ONNXReranker stub type when built without CGO.
type ONNXReranker struct{}

// NewONNXReranker returns an error when built without CGO.
func NewONNXReranker(_ string, _ int) (*ONNXReranker, error) {
	return nil, errNoCGO
}

// Rerank always fails without CGO.
func (r *ONNXReranker) Rerank(context.Context, string, []string, int) ([]Score, error) {
	return nil, errNoCGO
}

// Close is a no-op without CGO.
func (r *ONNXReranker) Close() error { return nil }
