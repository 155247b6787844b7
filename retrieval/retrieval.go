// Package retrieval implements the retrieval gateway used for
// retrieval-augmented generation: it wraps "embed text, then similarity
// search" behind a single contract and layers deterministic ranking,
// threshold filtering and limit truncation on top of whatever raw distance
// metric the backing index returns.
package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/hupe1980/agentloom/core"
	"github.com/hupe1980/agentloom/logging"
)

// Embedder converts text into a vector representation. Backed externally by
// an embedding provider; the core treats it as a black box.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Hit is a raw nearest-neighbor result as produced by a backing index,
// carrying the store's native distance (smaller is closer for cosine
// distance backends).
type Hit struct {
	ID       string
	Text     string
	Distance float64
	Metadata map[string]any
}

// Index performs nearest-neighbor search over embedded documents. Backed
// externally by a vector store; the core specifies only this contract.
type Index interface {
	Search(ctx context.Context, vector []float64, limit int) ([]Hit, error)
}

// Error wraps a failure of the embedding or search step. Agents treat
// retrieval errors as non-fatal and degrade to empty context.
type Error struct {
	Stage string // "embed" or "search"
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("retrieval error during %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Options configures a Gateway.
type Options struct {
	// CandidateFactor oversamples the backing index so threshold filtering
	// can still fill the requested limit. Minimum effective value is 1.
	CandidateFactor int
	Logger          logging.Logger
}

// Gateway composes an Embedder and an Index into the retrieve contract:
// rank by similarity descending, filter to similarity >= threshold, truncate
// to limit, break similarity ties by ascending document id. Raw cosine
// distance is normalized via similarity = 1 - distance.
type Gateway struct {
	embedder Embedder
	index    Index
	opts     Options
}

// NewGateway constructs a Gateway over the given embedder and index.
func NewGateway(embedder Embedder, index Index, optFns ...func(o *Options)) *Gateway {
	opts := Options{CandidateFactor: 4, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.CandidateFactor < 1 {
		opts.CandidateFactor = 1
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Gateway{embedder: embedder, index: index, opts: opts}
}

// Retrieve embeds queryText, searches the index and returns documents ranked
// by similarity descending, filtered to similarity >= threshold, truncated
// to limit. Two documents with identical similarity are ordered by ascending
// id so repeated calls are reproducible.
func (g *Gateway) Retrieve(ctx context.Context, queryText string, limit int, threshold float64) ([]core.RetrievedDocument, error) {
	if limit <= 0 {
		return []core.RetrievedDocument{}, nil
	}

	vector, err := g.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, &Error{Stage: "embed", Err: err}
	}

	hits, err := g.index.Search(ctx, vector, limit*g.opts.CandidateFactor)
	if err != nil {
		return nil, &Error{Stage: "search", Err: err}
	}

	docs := make([]core.RetrievedDocument, 0, len(hits))
	for _, h := range hits {
		similarity := 1 - h.Distance
		if similarity < threshold {
			continue
		}
		docs = append(docs, core.RetrievedDocument{
			ID:         h.ID,
			Text:       h.Text,
			Similarity: similarity,
			Metadata:   h.Metadata,
		})
	}

	sort.Slice(docs, func(i, j int) bool {
		if docs[i].Similarity != docs[j].Similarity {
			return docs[i].Similarity > docs[j].Similarity
		}
		return docs[i].ID < docs[j].ID
	})

	if len(docs) > limit {
		docs = docs[:limit]
	}

	g.opts.Logger.Debug(
		"retrieval.complete",
		"query_len", len(queryText),
		"hits", len(hits),
		"returned", len(docs),
		"threshold", threshold,
	)

	return docs, nil
}
