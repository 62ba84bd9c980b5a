// Package keyinfo describes vector set keys in bulk.
package keyinfo

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/vsetbrowse/internal/domain/keyinfo"
)

// Repository fetches metadata for many keys in one batch.
type Repository interface {
	Metadata(ctx context.Context, keys []string) ([]keyinfo.Metadata, error)
}

// Service reads key metadata.
type Service struct {
	repo Repository
}

// New creates a key metadata service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Describe returns metadata for keys in input order. Duplicate keys are
// requested once and repeated in the output.
func (s *Service) Describe(ctx context.Context, keys []string) ([]keyinfo.Metadata, error) {
	unique := make([]string, 0, len(keys))
	seen := make(map[string]int, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = len(unique)
		unique = append(unique, k)
	}

	infos, err := s.repo.Metadata(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("describe keys: %w", err)
	}
	if len(infos) != len(unique) {
		return nil, fmt.Errorf("describe keys: got %d results for %d keys", len(infos), len(unique))
	}

	out := make([]keyinfo.Metadata, len(keys))
	for i, k := range keys {
		out[i] = infos[seen[k]]
	}
	return out, nil
}
