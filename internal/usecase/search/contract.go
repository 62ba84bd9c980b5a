package search

import (
	"context"

	"github.com/kailas-cloud/vsetbrowse/internal/domain"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/query"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/result"
)

// Repository runs similarity queries against a vector set.
type Repository interface {
	Similar(ctx context.Context, req query.Request, vector []float32) ([]result.Row, error)
}

// Embedder vectorizes text queries.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
