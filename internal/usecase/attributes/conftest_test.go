package attributes

import (
	"context"
	"sync"

	"github.com/kailas-cloud/vsetbrowse/internal/domain/command"
)

// fakeFetcher serves payloads from a map and records every batch.
type fakeFetcher struct {
	mu       sync.Mutex
	payloads map[string]string
	err      error
	batches  []command.AttributeBatch
	// gate, when set, blocks every fetch until it is closed
	gate    chan struct{}
	started chan struct{}
	// ctxErrs holds ctx.Err() of each fetch once it is released
	ctxErrs []error
}

func newFakeFetcher(payloads map[string]string) *fakeFetcher {
	return &fakeFetcher{payloads: payloads}
}

func (f *fakeFetcher) FetchAttributes(ctx context.Context, b command.AttributeBatch) ([]*string, error) {
	f.mu.Lock()
	f.batches = append(f.batches, b)
	gate, started := f.gate, f.started
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	f.mu.Unlock()
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

func (f *fakeFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func strPtr(s string) *string { return &s }
