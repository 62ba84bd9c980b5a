package domain

import (
	"context"
	"fmt"
	"strings"
)

// Embedder turns a text query into a vector for VSIM ... VALUES.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult is one query vector plus the provider's token usage.
// Cached vectors report zero tokens.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

type instructed struct {
	inner       Embedder
	instruction string
}

// WithInstruction prefixes every query with instruction, for models trained
// with a query prompt such as "search_query: ". Text that already carries the
// prefix is sent as is. An empty instruction returns inner.
func WithInstruction(inner Embedder, instruction string) Embedder {
	if instruction == "" {
		return inner
	}
	return &instructed{inner: inner, instruction: instruction}
}

func (e *instructed) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	if !strings.HasPrefix(text, e.instruction) {
		text = e.instruction + text
	}
	res, err := e.inner.Embed(ctx, text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("instructed embed: %w", err)
	}
	return res, nil
}
