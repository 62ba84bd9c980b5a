// Package embedding decorates the query embedder chain.
package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vsetbrowse/internal/domain"
)

// InstrumentedEmbedder logs every query embedding and rejects vectors
// of the wrong size before they reach VSIM.
// Transport metrics are recorded in transport/openai.
type InstrumentedEmbedder struct {
	inner      domain.Embedder
	provider   string
	model      string
	dimensions int // 0 accepts any size
	logger     *zap.Logger
}

// NewInstrumentedEmbedder wraps inner. dimensions is the expected vector size.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string, dimensions int, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:      inner,
		provider:   provider,
		model:      model,
		dimensions: dimensions,
		logger:     logger,
	}
}

// Embed delegates to the inner embedder and checks the vector it returns.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	start := time.Now()
	result, err := p.inner.Embed(ctx, text)
	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Query embedding failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	if len(result.Embedding) == 0 {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: empty vector", domain.ErrEmbeddingProviderError)
	}
	if p.dimensions > 0 && len(result.Embedding) != p.dimensions {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: got %d dimensions, want %d",
			domain.ErrEmbeddingProviderError, len(result.Embedding), p.dimensions)
	}

	p.logger.Debug("Query embedding completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}
