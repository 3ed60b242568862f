package rag

import (
	"fmt"
	"math"
	"sort"
)

// ScoredChunk is a retrieval hit with its cosine similarity score.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// Index is an in-memory vector store using brute-force cosine similarity.
// Vectors are L2-normalized at insert so search reduces to a dot product.
type Index struct {
	chunks  []Chunk
	vectors [][]float64
}

// NewIndex builds an index from chunks and their embedding vectors.
func NewIndex(chunks []Chunk, vectors [][]float64) (*Index, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("chunk count %d does not match vector count %d", len(chunks), len(vectors))
	}

	normalized := make([][]float64, len(vectors))
	for i, v := range vectors {
		normalized[i] = normalize(v)
	}
	return &Index{chunks: chunks, vectors: normalized}, nil
}

// Search returns the topK chunks nearest to the query vector, best first.
func (ix *Index) Search(vector []float64, topK int) []ScoredChunk {
	if topK < 1 {
		topK = 1
	}

	q := normalize(vector)
	results := make([]ScoredChunk, 0, len(ix.chunks))
	for i, v := range ix.vectors {
		results = append(results, ScoredChunk{Chunk: ix.chunks[i], Score: dot(v, q)})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK]
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func normalize(v []float64) []float64 {
	norm := math.Sqrt(dot(v, v))
	if norm == 0 {
		return v
	}
	out := make([]float64, len(v))
	for i := range v {
		out[i] = v[i] / norm
	}
	return out
}
