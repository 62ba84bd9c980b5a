package vset

import (
	"context"
	"testing"

	"github.com/kailas-cloud/vsetbrowse/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	vgetattrFn func(ctx context.Context, key string, elements []string) ([]*string, error)
	vsetattrFn func(ctx context.Context, key, element, attrs string) error
	vinfoFn    func(ctx context.Context, keys []string) ([]db.VInfo, error)
	vsimFn     func(ctx context.Context, q *db.SimilarityQuery) ([]db.SimilarityHit, error)

	calls int
}

func (m *mockStore) VGetAttrBatch(ctx context.Context, key string, elements []string) ([]*string, error) {
	m.calls++
	if m.vgetattrFn != nil {
		return m.vgetattrFn(ctx, key, elements)
	}
	return make([]*string, len(elements)), nil
}

func (m *mockStore) VSetAttr(ctx context.Context, key, element, attrs string) error {
	m.calls++
	if m.vsetattrFn != nil {
		return m.vsetattrFn(ctx, key, element, attrs)
	}
	return nil
}

func (m *mockStore) VInfoBatch(ctx context.Context, keys []string) ([]db.VInfo, error) {
	m.calls++
	if m.vinfoFn != nil {
		return m.vinfoFn(ctx, keys)
	}
	out := make([]db.VInfo, len(keys))
	for i, k := range keys {
		out[i] = db.VInfo{Key: k}
	}
	return out, nil
}

func (m *mockStore) VSim(ctx context.Context, q *db.SimilarityQuery) ([]db.SimilarityHit, error) {
	m.calls++
	if m.vsimFn != nil {
		return m.vsimFn(ctx, q)
	}
	return nil, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}

func strPtr(s string) *string { return &s }
