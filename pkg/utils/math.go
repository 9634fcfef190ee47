package utils

import "math"

// NormalizeL2 scales an embedding in place to unit length so the vector
// index can rank by inner product. The sum is taken in float64 to keep
// long embeddings stable; a zero vector is left as is.
func NormalizeL2(x []float32) {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := 1 / math.Sqrt(sum)
	for i := range x {
		x[i] = float32(float64(x[i]) * norm)
	}
}
