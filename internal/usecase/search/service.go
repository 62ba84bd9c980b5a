package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vsetbrowse/internal/domain"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/query"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/result"
)

// Service produces scored result rows for a similarity query.
type Service struct {
	repo   Repository
	embed  Embedder
	logger *zap.Logger
}

// New creates a search service. embed may be nil, in which case only
// element queries are supported.
func New(repo Repository, embed Embedder, logger *zap.Logger) *Service {
	return &Service{repo: repo, embed: embed, logger: logger}
}

// Search runs req. Text queries are embedded first and sent as a vector.
func (s *Service) Search(ctx context.Context, req query.Request) ([]result.Row, error) {
	var vector []float32
	if !req.ByElement() {
		if s.embed == nil {
			return nil, domain.ErrEmbedderNotConfigured
		}
		emb, err := s.embed.Embed(ctx, req.Text())
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		vector = emb.Embedding
	}

	rows, err := s.repo.Similar(ctx, req, vector)
	if err != nil {
		return nil, fmt.Errorf("similar %s: %w", req.Key(), err)
	}

	s.logger.Debug("similarity query completed",
		zap.String("key", req.Key()),
		zap.Bool("by_element", req.ByElement()),
		zap.Int("count", req.Count()),
		zap.Int("results", len(rows)),
	)
	return rows, nil
}
