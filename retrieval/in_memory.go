package retrieval

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
)

// indexedDocument is the internal representation persisted by InMemoryIndex.
type indexedDocument struct {
	ID       string
	Text     string
	Vector   []float64
	Metadata map[string]any
}

// InMemoryIndex is a naive process-local Index computing exact cosine
// distance over stored vectors. Suitable for tests and demos; swap for a
// vector database for production retrieval.
//
// Concurrency: protected by RWMutex. Search iterates documents in insertion
// order so equal-distance results are deterministic.
type InMemoryIndex struct {
	mu   sync.RWMutex
	docs []indexedDocument
}

// NewInMemoryIndex creates an empty in-memory vector index.
func NewInMemoryIndex() *InMemoryIndex {
	return &InMemoryIndex{}
}

// Add stores a document with its embedding vector.
func (x *InMemoryIndex) Add(id, text string, vector []float64, metadata map[string]any) {
	x.mu.Lock()
	defer x.mu.Unlock()
	v := make([]float64, len(vector))
	copy(v, vector)
	x.docs = append(x.docs, indexedDocument{ID: id, Text: text, Vector: v, Metadata: metadata})
}

// Len returns the number of stored documents.
func (x *InMemoryIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.docs)
}

// Search implements Index with an exact linear scan returning the limit
// nearest documents by cosine distance.
func (x *InMemoryIndex) Search(ctx context.Context, vector []float64, limit int) ([]Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(vector) == 0 {
		return nil, errors.New("empty query vector")
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	hits := make([]Hit, 0, len(x.docs))
	for _, doc := range x.docs {
		if len(doc.Vector) != len(vector) {
			continue
		}
		hits = append(hits, Hit{
			ID:       doc.ID,
			Text:     doc.Text,
			Distance: cosineDistance(vector, doc.Vector),
			Metadata: doc.Metadata,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// cosineDistance computes 1 - cosine similarity. Zero vectors are treated as
// maximally distant.
func cosineDistance(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
