package browser

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vsetbrowse/internal/domain"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/command"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/query"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/result"
	"github.com/kailas-cloud/vsetbrowse/internal/usecase/attributes"
)

// fakeFetcher serves payloads per dataset key.
type fakeFetcher struct {
	mu       sync.Mutex
	payloads map[string]map[string]string
	err      error
	calls    int
	gate     chan struct{}
	started  chan struct{}
}

func (f *fakeFetcher) FetchAttributes(_ context.Context, b command.AttributeBatch) ([]*string, error) {
	f.mu.Lock()
	f.calls++
	gate, started, err := f.gate, f.started, f.err
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}

	out := make([]*string, b.Len())
	for i, el := range b.Elements() {
		if p, ok := f.payloads[b.Key()][el]; ok {
			out[i] = &p
		}
	}
	return out, nil
}

func (f *fakeFetcher) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakePrefs is an in-memory Preferences with an injectable write failure.
type fakePrefs struct {
	mu     sync.Mutex
	fields map[string]bool
	setErr error
	sets   int
}

func newFakePrefs() *fakePrefs {
	return &fakePrefs{fields: make(map[string]bool)}
}

func (p *fakePrefs) Visible(_ context.Context, field string, def bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v, ok := p.fields[field]; ok {
		return v
	}
	return def
}

func (p *fakePrefs) SetVisible(_ context.Context, field string, visible bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sets++
	if p.setErr != nil {
		return p.setErr
	}
	p.fields[field] = visible
	return nil
}

type fakeWriter struct {
	key, element, raw string
	err               error
	calls             int
}

func (w *fakeWriter) SetAttributes(_ context.Context, key, element, raw string) error {
	w.calls++
	w.key, w.element, w.raw = key, element, raw
	return w.err
}

type fakeSearcher struct {
	rows []result.Row
	err  error
}

func (f *fakeSearcher) Search(_ context.Context, _ query.Request) ([]result.Row, error) {
	return f.rows, f.err
}

func newTestSession(t *testing.T, payloads map[string]map[string]string, opts ...Option) (*Session, *fakeFetcher, *fakePrefs) {
	t.Helper()
	f := &fakeFetcher{payloads: payloads}
	prefs := newFakePrefs()
	cache := attributes.New(f, zap.NewNop())
	cfg := domain.DefaultBrowserConfig()
	return New(cache, prefs, cfg, zap.NewNop(), opts...), f, prefs
}

func rows(pairs ...any) []result.Row {
	out := make([]result.Row, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, result.New(pairs[i].(string), pairs[i+1].(float64)))
	}
	return out
}

func columnNames(m Model) []string {
	names := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		names[i] = c.Name()
	}
	return names
}

func visibleColumns(m Model) []string {
	var names []string
	for _, c := range m.Columns {
		if c.Visible() {
			names = append(names, c.Name())
		}
	}
	return names
}

func strPtr(s string) *string { return &s }
