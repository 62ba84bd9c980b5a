package attributes

import (
	"context"

	"github.com/kailas-cloud/vsetbrowse/internal/domain/command"
)

// Fetcher performs one bulk attribute lookup.
// It returns one entry per batch element in order; nil means no attributes.
// An error fails the whole batch.
type Fetcher interface {
	FetchAttributes(ctx context.Context, batch command.AttributeBatch) ([]*string, error)
}
