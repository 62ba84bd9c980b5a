package attributes

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vsetbrowse/internal/domain"
)

func newTestCache(f *fakeFetcher) *Cache {
	c := New(f, zap.NewNop())
	c.Activate("vset:items")
	return c
}

func TestFetchMissing_SingleBatch(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		"e1": `{"color":"red"}`,
		"e2": `{"size":3}`,
	})
	c := newTestCache(f)

	res, err := c.FetchMissing(context.Background(), []string{"e1", "e2", "e3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.calls() != 1 {
		t.Fatalf("expected exactly 1 batch, got %d", f.calls())
	}
	if f.batches[0].Len() != 3 || f.batches[0].Key() != "vset:items" {
		t.Errorf("unexpected batch: key=%s len=%d", f.batches[0].Key(), f.batches[0].Len())
	}
	if res.Stored != 3 || res.Discarded {
		t.Errorf("unexpected result: %+v", res)
	}

	if raw, ok := c.Raw("e3"); !ok || raw != nil {
		t.Errorf("e3: expected cached null payload, got %v, %v", raw, ok)
	}
	if _, ok := c.Parsed("e3"); ok {
		t.Error("e3: expected no parsed attributes")
	}
	a, ok := c.Parsed("e1")
	if !ok {
		t.Fatal("e1: expected parsed attributes")
	}
	if v, _ := a.Get("color"); v.Display() != "red" {
		t.Errorf("e1 color = %q", v.Display())
	}
}

func TestFetchMissing_Idempotent(t *testing.T) {
	f := newFakeFetcher(map[string]string{"e1": `{"a":1}`, "e2": `{"b":2}`})
	c := newTestCache(f)
	ctx := context.Background()

	if _, err := c.FetchMissing(ctx, []string{"e1", "e2"}); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	firstLen, firstParsed := c.Len(), c.ParsedLen()
	firstRaw, _ := c.Raw("e1")

	res, err := c.FetchMissing(ctx, []string{"e1", "e2"})
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if res.Requested != 0 {
		t.Errorf("second fetch requested %d elements, want 0", res.Requested)
	}
	if f.calls() != 1 {
		t.Errorf("expected no second network call, got %d calls", f.calls())
	}
	if c.Len() != firstLen || c.ParsedLen() != firstParsed {
		t.Errorf("cache drifted: len %d->%d parsed %d->%d", firstLen, c.Len(), firstParsed, c.ParsedLen())
	}
	secondRaw, _ := c.Raw("e1")
	if *secondRaw != *firstRaw {
		t.Errorf("value drift: %q -> %q", *firstRaw, *secondRaw)
	}
}

func TestFetchMissing_OnlyMissingAndDeduplicated(t *testing.T) {
	f := newFakeFetcher(map[string]string{"e1": `{}`, "e2": `{}`})
	c := newTestCache(f)
	ctx := context.Background()

	if _, err := c.FetchMissing(ctx, []string{"e1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.FetchMissing(ctx, []string{"e1", "e2", "e2"}); err != nil {
		t.Fatal(err)
	}
	if f.calls() != 2 {
		t.Fatalf("calls = %d, want 2", f.calls())
	}
	got := f.batches[1].Elements()
	if len(got) != 1 || got[0] != "e2" {
		t.Errorf("second batch = %v, want [e2]", got)
	}
}

func TestFetchMissing_ParseErrorIsolated(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		"good": `{"a":1}`,
		"bad":  `{not json`,
		"also": `{"b":true}`,
	})
	c := newTestCache(f)

	res, err := c.FetchMissing(context.Background(), []string{"good", "bad", "also"})
	if err != nil {
		t.Fatalf("parse errors must not abort the batch: %v", err)
	}
	if len(res.ParseFailures) != 1 || res.ParseFailures[0].Element != "bad" {
		t.Fatalf("unexpected parse failures: %+v", res.ParseFailures)
	}
	if !errors.Is(res.ParseFailures[0], domain.ErrParse) {
		t.Error("parse failure should wrap ErrParse")
	}
	if raw, ok := c.Raw("bad"); !ok || raw == nil || *raw != `{not json` {
		t.Error("raw payload of bad element must be retained")
	}
	if _, ok := c.Parsed("bad"); ok {
		t.Error("bad element must have no parsed entry")
	}
	if _, ok := c.Parsed("also"); !ok {
		t.Error("elements after the bad one must still be parsed")
	}
}

func TestFetchMissing_TransportErrorLeavesCache(t *testing.T) {
	f := newFakeFetcher(nil)
	f.err = errors.New("connection reset")
	c := newTestCache(f)

	_, err := c.FetchMissing(context.Background(), []string{"e1"})
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("cache must stay empty, len=%d", c.Len())
	}
}

func TestFetchMissing_NoDataset(t *testing.T) {
	c := New(newFakeFetcher(nil), zap.NewNop())
	_, err := c.FetchMissing(context.Background(), []string{"e1"})
	if !errors.Is(err, domain.ErrNoDataset) {
		t.Fatalf("expected ErrNoDataset, got %v", err)
	}
}

func TestFetchMissing_InvalidKeyNoNetwork(t *testing.T) {
	f := newFakeFetcher(nil)
	c := New(f, zap.NewNop())
	c.Activate("bad\nkey")

	_, err := c.FetchMissing(context.Background(), []string{"e1"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if f.calls() != 0 {
		t.Errorf("expected no fetch, got %d", f.calls())
	}
}

func TestFetchMissing_StaleGenerationDiscarded(t *testing.T) {
	f := newFakeFetcher(map[string]string{"e1": `{"a":1}`})
	f.gate = make(chan struct{})
	f.started = make(chan struct{}, 1)
	c := newTestCache(f)

	type outcome struct {
		res FetchResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := c.FetchMissing(context.Background(), []string{"e1"})
		done <- outcome{res, err}
	}()

	<-f.started
	// generation 2 begins while generation 1 is in flight
	c.Activate("vset:other")
	close(f.gate)

	out := <-done
	if out.err != nil {
		t.Fatalf("unexpected error: %v", out.err)
	}
	if !out.res.Discarded {
		t.Error("expected stale fetch to be discarded")
	}
	if c.Len() != 0 || c.ParsedLen() != 0 {
		t.Errorf("generation-1 data leaked: len=%d parsed=%d", c.Len(), c.ParsedLen())
	}
	if c.Dataset() != "vset:other" {
		t.Errorf("dataset = %q", c.Dataset())
	}
}

func TestFetchMissing_CancelledCallerLeavesSharedFetch(t *testing.T) {
	f := newFakeFetcher(map[string]string{"e1": `{"a":1}`})
	f.gate = make(chan struct{})
	f.started = make(chan struct{}, 1)
	c := newTestCache(f)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.FetchMissing(ctx, []string{"e1"})
		firstErr <- err
	}()
	<-f.started

	type outcome struct {
		res FetchResult
		err error
	}
	second := make(chan outcome, 1)
	go func() {
		res, err := c.FetchMissing(context.Background(), []string{"e1"})
		second <- outcome{res, err}
	}()

	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) || !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("cancelled caller: expected ErrTransport wrapping context.Canceled, got %v", err)
	}

	close(f.gate)
	out := <-second
	if out.err != nil {
		t.Fatalf("second caller: unexpected error: %v", out.err)
	}
	if _, ok := c.Parsed("e1"); !ok {
		t.Error("shared fetch result was not stored")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, err := range f.ctxErrs {
		if err != nil {
			t.Errorf("fetch ran under a cancelled context: %v", err)
		}
	}
}

func TestActivate(t *testing.T) {
	f := newFakeFetcher(map[string]string{"e1": `{"a":1}`})
	c := newTestCache(f)
	gen := c.Generation()

	if c.Activate("vset:items") {
		t.Error("same dataset must not invalidate")
	}
	if _, err := c.FetchMissing(context.Background(), []string{"e1"}); err != nil {
		t.Fatal(err)
	}
	if !c.Activate("vset:other") {
		t.Error("new dataset must invalidate")
	}
	if c.Len() != 0 {
		t.Error("cache must be empty after dataset switch")
	}
	if c.Generation() <= gen {
		t.Error("generation must grow")
	}
}

func TestInvalidate(t *testing.T) {
	f := newFakeFetcher(map[string]string{"e1": `{"a":1}`})
	c := newTestCache(f)
	if _, err := c.FetchMissing(context.Background(), []string{"e1"}); err != nil {
		t.Fatal(err)
	}
	c.Invalidate()
	if c.Len() != 0 || c.ParsedLen() != 0 || len(c.Corpus()) != 0 {
		t.Error("invalidate must clear raw and parsed attributes")
	}
}

func TestUpdateOne(t *testing.T) {
	f := newFakeFetcher(map[string]string{"e1": `{"a":1}`})
	c := newTestCache(f)
	if _, err := c.FetchMissing(context.Background(), []string{"e1"}); err != nil {
		t.Fatal(err)
	}

	if err := c.UpdateOne("e1", strPtr(`{"a":2,"b":"x"}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, _ := c.Parsed("e1")
	if a.Len() != 2 {
		t.Errorf("expected 2 fields after update, got %d", a.Len())
	}

	err := c.UpdateOne("e1", strPtr(`broken`))
	if !errors.Is(err, domain.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	if _, ok := c.Parsed("e1"); ok {
		t.Error("parsed entry must be removed after a bad update")
	}
	if raw, _ := c.Raw("e1"); raw == nil || *raw != "broken" {
		t.Error("raw payload must be kept after a bad update")
	}
}

func TestUpdateOneAt_StaleGeneration(t *testing.T) {
	c := newTestCache(newFakeFetcher(nil))
	gen := c.Generation()

	applied, err := c.UpdateOneAt(gen, "e1", strPtr(`{"a":1}`))
	if err != nil || !applied {
		t.Fatalf("applied=%v err=%v", applied, err)
	}

	c.Activate("vset:other")
	applied, err = c.UpdateOneAt(gen, "e2", strPtr(`{"b":1}`))
	if err != nil || applied {
		t.Fatalf("stale commit applied=%v err=%v", applied, err)
	}
	if c.Len() != 0 {
		t.Errorf("cache len = %d, want 0", c.Len())
	}
}

func TestCorpus_CacheOrder(t *testing.T) {
	f := newFakeFetcher(map[string]string{"b": `{"y":1}`, "a": `{"x":1}`, "c": `nope`})
	c := newTestCache(f)
	if _, err := c.FetchMissing(context.Background(), []string{"b", "c", "a"}); err != nil {
		t.Fatal(err)
	}
	corpus := c.Corpus()
	if len(corpus) != 2 {
		t.Fatalf("corpus len = %d, want 2", len(corpus))
	}
	if corpus[0].Fields()[0] != "y" || corpus[1].Fields()[0] != "x" {
		t.Errorf("corpus not in cache order")
	}
}
