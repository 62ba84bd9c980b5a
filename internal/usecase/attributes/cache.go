// Package attributes owns the per-dataset attribute cache.
//
// Every fetch is tagged with the generation active when it started. A reset
// bumps the generation, so a fetch that completes afterwards is dropped
// whole instead of leaking another dataset's attributes into the cache.
package attributes

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/vsetbrowse/internal/domain"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/attribute"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/command"
	"github.com/kailas-cloud/vsetbrowse/internal/metrics"
)

// ParseFailure is a recoverable diagnostic for one element's payload.
type ParseFailure struct {
	Element string
	Err     error
}

func (f ParseFailure) Error() string {
	return fmt.Sprintf("element %q: %v", f.Element, f.Err)
}

func (f ParseFailure) Unwrap() error { return f.Err }

// FetchResult summarizes a FetchMissing call.
type FetchResult struct {
	Generation    uint64
	Requested     int
	Stored        int
	Discarded     bool
	ParseFailures []ParseFailure
}

// Cache maps element identifiers to raw and parsed attributes for one dataset.
type Cache struct {
	mu         sync.Mutex
	fetcher    Fetcher
	dataset    string
	generation uint64
	raw        map[string]*string
	parsed     map[string]attribute.Attributes
	order      []string // elements in the order they were first cached
	group      singleflight.Group
	logger     *zap.Logger
}

// New creates an empty cache with no active dataset.
func New(fetcher Fetcher, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		fetcher: fetcher,
		raw:     make(map[string]*string),
		parsed:  make(map[string]attribute.Attributes),
		logger:  logger,
	}
}

// Activate makes dataset the current identity.
// A different identity invalidates the whole cache; it reports whether it did.
func (c *Cache) Activate(dataset string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if dataset == c.dataset {
		return false
	}
	c.dataset = dataset
	c.resetLocked()
	return true
}

// Invalidate clears raw and parsed attributes unconditionally and
// starts a new generation.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Cache) resetLocked() {
	c.generation++
	c.raw = make(map[string]*string)
	c.parsed = make(map[string]attribute.Attributes)
	c.order = nil
}

// Dataset returns the active dataset identity.
func (c *Cache) Dataset() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dataset
}

// Generation returns the current generation counter.
func (c *Cache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// FetchMissing loads attributes for the elements not cached yet with a
// single batched lookup. Results that arrive after a reset are discarded.
func (c *Cache) FetchMissing(ctx context.Context, elements []string) (FetchResult, error) {
	c.mu.Lock()
	if c.dataset == "" {
		c.mu.Unlock()
		return FetchResult{}, domain.ErrNoDataset
	}
	gen := c.generation
	key := c.dataset
	missing := c.missingLocked(elements)
	c.mu.Unlock()

	res := FetchResult{Generation: gen, Requested: len(missing)}
	if len(missing) == 0 {
		return res, nil
	}

	batch, err := command.NewAttributeBatch(key, missing)
	if err != nil {
		metrics.AttributeFetchTotal.WithLabelValues("invalid").Inc()
		return res, fmt.Errorf("build attribute batch: %w", err)
	}

	flightKey := strconv.FormatUint(gen, 10) + "\x00" + key + "\x00" + strings.Join(missing, "\x00")
	// the flight outlives any single caller; each caller waits on its own ctx
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flightKey, func() (any, error) {
		metrics.AttributeFetchElements.Observe(float64(batch.Len()))
		return c.fetcher.FetchAttributes(flightCtx, batch)
	})
	var v any
	select {
	case <-ctx.Done():
		metrics.AttributeFetchTotal.WithLabelValues("error").Inc()
		return res, fmt.Errorf("%w: fetch attributes for %s: %w", domain.ErrTransport, key, ctx.Err())
	case r := <-ch:
		v, err = r.Val, r.Err
	}
	if err != nil {
		metrics.AttributeFetchTotal.WithLabelValues("error").Inc()
		return res, fmt.Errorf("%w: fetch attributes for %s: %w", domain.ErrTransport, key, err)
	}
	replies, _ := v.([]*string)
	if len(replies) != len(missing) {
		metrics.AttributeFetchTotal.WithLabelValues("error").Inc()
		return res, fmt.Errorf("%w: fetch attributes for %s: got %d replies for %d elements",
			domain.ErrTransport, key, len(replies), len(missing))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != gen {
		metrics.AttributeFetchTotal.WithLabelValues("discarded").Inc()
		c.logger.Debug("Discarding stale attribute fetch",
			zap.String("dataset", key),
			zap.Uint64("fetch_generation", gen),
			zap.Uint64("current_generation", c.generation),
			zap.Int("elements", len(missing)),
		)
		res.Discarded = true
		return res, nil
	}

	metrics.AttributeFetchTotal.WithLabelValues("success").Inc()
	for i, el := range missing {
		// a shared flight or an editor commit may have stored it meanwhile
		if _, ok := c.raw[el]; ok {
			continue
		}
		if err := c.storeLocked(el, replies[i]); err != nil {
			res.ParseFailures = append(res.ParseFailures, ParseFailure{Element: el, Err: err})
		}
		res.Stored++
	}
	return res, nil
}

// UpdateOne replaces the payload of a single element, as committed by an
// external editor. A parse failure keeps the raw payload and is returned.
func (c *Cache) UpdateOne(element string, raw *string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.storeLocked(element, raw); err != nil {
		return ParseFailure{Element: element, Err: err}
	}
	return nil
}

// UpdateOneAt is UpdateOne guarded by a generation: it applies the payload
// only when gen is still current and reports whether it did.
func (c *Cache) UpdateOneAt(gen uint64, element string, raw *string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != gen {
		return false, nil
	}
	if err := c.storeLocked(element, raw); err != nil {
		return true, ParseFailure{Element: element, Err: err}
	}
	return true, nil
}

// storeLocked records raw and its parsed form. Parse errors are logged,
// counted and returned; the raw payload is kept either way.
func (c *Cache) storeLocked(element string, raw *string) error {
	if _, ok := c.raw[element]; !ok {
		c.order = append(c.order, element)
	}
	c.raw[element] = raw

	if raw == nil {
		delete(c.parsed, element)
		return nil
	}
	attrs, err := attribute.Parse(*raw)
	if err != nil {
		delete(c.parsed, element)
		metrics.AttributeParseErrorsTotal.Inc()
		c.logger.Warn("Failed to parse element attributes",
			zap.String("dataset", c.dataset),
			zap.String("element", element),
			zap.Error(err),
		)
		return err
	}
	c.parsed[element] = attrs
	return nil
}

func (c *Cache) missingLocked(elements []string) []string {
	seen := make(map[string]struct{}, len(elements))
	var missing []string
	for _, el := range elements {
		if _, ok := c.raw[el]; ok {
			continue
		}
		if _, dup := seen[el]; dup {
			continue
		}
		seen[el] = struct{}{}
		missing = append(missing, el)
	}
	return missing
}

// Raw returns the cached payload of an element.
// ok is false when the element was never fetched; a nil payload with ok
// means the store has no attributes for it.
func (c *Cache) Raw(element string) (raw *string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok = c.raw[element]
	return raw, ok
}

// Parsed returns the parsed attributes of an element.
func (c *Cache) Parsed(element string) (attribute.Attributes, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.parsed[element]
	return a, ok
}

// Corpus returns every parsed record in cache order.
func (c *Cache) Corpus() []attribute.Attributes {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]attribute.Attributes, 0, len(c.parsed))
	for _, el := range c.order {
		if a, ok := c.parsed[el]; ok {
			out = append(out, a)
		}
	}
	return out
}

// Len returns the number of elements with a cached raw entry.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.raw)
}

// ParsedLen returns the number of elements with parsed attributes.
func (c *Cache) ParsedLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.parsed)
}
