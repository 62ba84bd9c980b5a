package browser

import (
	"context"

	"github.com/kailas-cloud/vsetbrowse/internal/domain/query"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/result"
)

// Preferences persists per-field column visibility.
type Preferences interface {
	Visible(ctx context.Context, field string, def bool) bool
	SetVisible(ctx context.Context, field string, visible bool) error
}

// AttributeWriter stores a committed attribute payload.
type AttributeWriter interface {
	SetAttributes(ctx context.Context, key, element, raw string) error
}

// Searcher runs similarity queries.
type Searcher interface {
	Search(ctx context.Context, req query.Request) ([]result.Row, error)
}

// Editor returns the new raw payload for element, or nil when the edit
// was cancelled.
type Editor func(ctx context.Context, element string) (*string, error)
