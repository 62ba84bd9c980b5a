package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vsetbrowse/internal/domain"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/command"
	domkeyinfo "github.com/kailas-cloud/vsetbrowse/internal/domain/keyinfo"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/query"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/result"
	"github.com/kailas-cloud/vsetbrowse/internal/repository/prefs"
	"github.com/kailas-cloud/vsetbrowse/internal/usecase/attributes"
	"github.com/kailas-cloud/vsetbrowse/internal/usecase/browser"
	healthuc "github.com/kailas-cloud/vsetbrowse/internal/usecase/health"
	keyinfouc "github.com/kailas-cloud/vsetbrowse/internal/usecase/keyinfo"
)

type fakeFetcher struct {
	payloads map[string]string
	err      error
}

func (f *fakeFetcher) FetchAttributes(_ context.Context, b command.AttributeBatch) ([]*string, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*string, b.Len())
	for i, el := range b.Elements() {
		if p, ok := f.payloads[el]; ok {
			out[i] = &p
		}
	}
	return out, nil
}

type fakeSearcher struct {
	rows []result.Row
	err  error
	last query.Request
}

func (f *fakeSearcher) Search(_ context.Context, req query.Request) ([]result.Row, error) {
	f.last = req
	return f.rows, f.err
}

type fakeWriter struct {
	raw string
	err error
}

func (f *fakeWriter) SetAttributes(_ context.Context, _, _, raw string) error {
	f.raw = raw
	return f.err
}

type fakeMetadataRepo struct {
	infos map[string]domkeyinfo.Metadata
	err   error
}

func (f *fakeMetadataRepo) Metadata(_ context.Context, keys []string) ([]domkeyinfo.Metadata, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, err := command.NewMetadataBatch(keys); err != nil {
		return nil, err
	}
	out := make([]domkeyinfo.Metadata, len(keys))
	for i, k := range keys {
		m, ok := f.infos[k]
		if !ok {
			m = domkeyinfo.Metadata{Key: k}
		}
		out[i] = m
	}
	return out, nil
}

type testEnv struct {
	handler  http.Handler
	fetcher  *fakeFetcher
	searcher *fakeSearcher
	writer   *fakeWriter
	meta     *fakeMetadataRepo
	storeErr error
}

func newTestEnv(t *testing.T, apiKeys ...string) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, domain.DefaultBrowserConfig(), apiKeys...)
}

func newTestEnvWithConfig(t *testing.T, cfg domain.BrowserConfig, apiKeys ...string) *testEnv {
	t.Helper()
	env := &testEnv{
		fetcher: &fakeFetcher{payloads: map[string]string{
			"e1": `{"genre":"rock","year":1971}`,
			"e2": `{"genre":"jazz"}`,
			"e3": `{"year":2001,"live":true}`,
		}},
		searcher: &fakeSearcher{rows: []result.Row{
			result.New("e1", 0.9), result.New("e2", 0.7), result.New("e3", 0.4),
		}},
		writer: &fakeWriter{},
		meta: &fakeMetadataRepo{infos: map[string]domkeyinfo.Metadata{
			"songs": {Key: "songs", Exists: true, QuantType: "int8", Dim: 300, Size: 3},
		}},
	}

	logger := zap.NewNop()
	cache := attributes.New(env.fetcher, logger)
	session := browser.New(cache, prefs.NewMemory(), cfg, logger,
		browser.WithSearcher(env.searcher), browser.WithWriter(env.writer))

	health := healthuc.New().Require("redis", healthuc.CheckerFunc(func(context.Context) error {
		return env.storeErr
	}))

	srv := NewServer(session, keyinfouc.New(env.meta), health, logger)
	env.handler = NewRouter(srv, apiKeys)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return v
}

func (e *testEnv) search(t *testing.T) sessionResponse {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/v1/session/search", searchRequest{Key: "songs", Element: "e1"})
	if rr.Code != http.StatusOK {
		t.Fatalf("search: got %d: %s", rr.Code, rr.Body.String())
	}
	return decode[sessionResponse](t, rr)
}
