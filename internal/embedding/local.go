package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// DefaultLocalDimension is the vector size of the local embedder.
const DefaultLocalDimension = 256

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

// LocalEmbedder maps text to vectors by hashing tokens into a fixed number
// of buckets. It needs no network access and is fully deterministic, which
// makes it suitable for offline deployments and tests. Identical text
// always yields an identical vector.
type LocalEmbedder struct {
	dimension int
}

// NewLocalEmbedder creates a hashing embedder with the given dimensionality.
func NewLocalEmbedder(dimension int) *LocalEmbedder {
	if dimension <= 0 {
		dimension = DefaultLocalDimension
	}
	return &LocalEmbedder{dimension: dimension}
}

// Name returns the identifier of this embedder implementation.
func (e *LocalEmbedder) Name() string { return "local-hash" }

// Embed hashes the tokens of text into buckets and L2-normalizes the result.
func (e *LocalEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dimension)
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%uint32(e.dimension)]++
	}
	Normalize(vec)
	return vec, nil
}

// EmbedBatch embeds each text independently, preserving input order.
func (e *LocalEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

// Normalize scales v to unit length in place. Zero vectors are left as is.
func Normalize(v []float32) {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range v {
		v[i] *= inv
	}
}
