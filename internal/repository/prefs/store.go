// Package prefs persists per-field column visibility.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vsetbrowse/internal/db"
	"github.com/kailas-cloud/vsetbrowse/internal/metrics"
)

// DefaultPrefix namespaces preference keys.
const DefaultPrefix = "vsetbrowse:prefs:column:"

// store is the consumer interface for preference operations (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Store keeps one "1"/"0" string key per field.
type Store struct {
	store  store
	prefix string
	logger *zap.Logger
}

// New creates a Redis backed preference store. An empty prefix means DefaultPrefix.
func New(s store, prefix string, logger *zap.Logger) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{store: s, prefix: prefix, logger: logger}
}

// Visible returns the stored visibility of field, or def when none is stored
// or the read fails.
func (s *Store) Visible(ctx context.Context, field string, def bool) bool {
	key := s.prefix + field
	data, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			metrics.PreferenceErrorsTotal.WithLabelValues("get").Inc()
			s.logger.Warn("column preference read failed",
				zap.String("field", field), zap.Error(err))
		}
		return def
	}

	switch strings.TrimSpace(string(data)) {
	case "1", "true":
		return true
	case "0", "false":
		return false
	default:
		s.logger.Warn("column preference has unexpected value",
			zap.String("field", field), zap.ByteString("value", data))
		return def
	}
}

// SetVisible stores the visibility of field.
func (s *Store) SetVisible(ctx context.Context, field string, visible bool) error {
	val := "0"
	if visible {
		val = "1"
	}
	if err := s.store.Set(ctx, s.prefix+field, []byte(val)); err != nil {
		return fmt.Errorf("prefs SET %s: %w", field, err)
	}
	return nil
}
