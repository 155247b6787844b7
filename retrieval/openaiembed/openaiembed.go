// Package openaiembed implements retrieval.Embedder using the OpenAI
// embeddings API.
package openaiembed

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentloom/retrieval"
	"github.com/openai/openai-go"
)

// Options configures the OpenAI embedder.
type Options struct {
	Model string
}

// Embedder converts text to vectors via the OpenAI embeddings endpoint.
type Embedder struct {
	client *openai.Client
	opts   Options
}

var _ retrieval.Embedder = (*Embedder)(nil)

// NewEmbedder creates a new embedder using the official client.
func NewEmbedder(optFns ...func(o *Options)) *Embedder {
	client := openai.NewClient()
	return NewEmbedderFromClient(&client, optFns...)
}

// NewEmbedderFromClient creates a new embedder from an existing client.
func NewEmbedderFromClient(client *openai.Client, optFns ...func(o *Options)) *Embedder {
	opts := Options{Model: openai.EmbeddingModelTextEmbedding3Small}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Embedder{client: client, opts: opts}
}

// Embed implements retrieval.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: e.opts.Model,
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings error: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return resp.Data[0].Embedding, nil
}
