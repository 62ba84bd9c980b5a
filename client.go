package vsetbrowse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/vsetbrowse/internal/db"
	dbRedis "github.com/kailas-cloud/vsetbrowse/internal/db/redis"
	"github.com/kailas-cloud/vsetbrowse/internal/domain"
	"github.com/kailas-cloud/vsetbrowse/internal/metrics"
	"github.com/kailas-cloud/vsetbrowse/internal/repository/embcache"
	"github.com/kailas-cloud/vsetbrowse/internal/repository/prefs"
	vsetrepo "github.com/kailas-cloud/vsetbrowse/internal/repository/vset"
	openaiEmb "github.com/kailas-cloud/vsetbrowse/internal/transport/openai"
	"github.com/kailas-cloud/vsetbrowse/internal/usecase/attributes"
	"github.com/kailas-cloud/vsetbrowse/internal/usecase/browser"
	embeddinguc "github.com/kailas-cloud/vsetbrowse/internal/usecase/embedding"
	keyinfouc "github.com/kailas-cloud/vsetbrowse/internal/usecase/keyinfo"
	searchuc "github.com/kailas-cloud/vsetbrowse/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the vsetbrowse entry point.
type Client struct {
	store   db.Store
	keys    *keyinfouc.Service
	browser *Browser
}

// New creates a Client and connects to Redis.
func New(opts ...Option) (*Client, error) {
	cfg := defaultClientConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("vsetbrowse: redis address required (use WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
		DB:       cfg.db,
	})
	if err != nil {
		return nil, fmt.Errorf("vsetbrowse: create redis store: %w", err)
	}

	if err := store.WaitForReady(context.Background(), cfg.readinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("vsetbrowse: redis not ready: %w", err)
	}

	c, err := wireClient(store, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func wireClient(store db.Store, cfg *clientConfig) (*Client, error) {
	if cfg.metricsReg != nil {
		collectors := metrics.BrowserCollectors()
		if cfg.openai != nil {
			collectors = append(collectors, metrics.EmbeddingCollectors()...)
		}
		for _, col := range collectors {
			if err := cfg.metricsReg.Register(col); err != nil {
				var already prometheus.AlreadyRegisteredError
				if !errors.As(err, &already) {
					return nil, fmt.Errorf("vsetbrowse: register metrics: %w", err)
				}
			}
		}
	}

	repo := vsetrepo.New(store)

	var p browser.Preferences = cfg.prefs
	if cfg.prefs == nil {
		prefix := cfg.preferencePrefix
		if prefix == "" {
			prefix = prefs.DefaultPrefix
		}
		p = prefs.New(store, prefix, cfg.logger)
	}

	browserCfg := domain.DefaultBrowserConfig()
	browserCfg.ShowAttributes = cfg.showAttributes
	browserCfg.FilteredOnly = cfg.filteredOnly

	session := browser.New(
		attributes.New(repo, cfg.logger),
		p,
		browserCfg,
		cfg.logger,
		browser.WithWriter(repo),
		browser.WithSearcher(searchuc.New(repo, buildEmbedder(store, cfg), cfg.logger)),
		browser.WithLocale(cfg.locale),
	)

	return &Client{
		store:   store,
		keys:    keyinfouc.New(repo),
		browser: &Browser{session: session},
	}, nil
}

// buildEmbedder returns nil when text queries are not configured.
func buildEmbedder(store db.Store, cfg *clientConfig) domain.Embedder {
	switch {
	case cfg.embedder != nil:
		return &embedderAdapter{inner: cfg.embedder}
	case cfg.openai != nil:
		base := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.openai.apiKey,
			BaseURL:    cfg.openai.baseURL,
			Model:      cfg.openai.model,
			Dimensions: cfg.openai.dimensions,
			Provider:   "openai",
			Logger:     cfg.logger,
		})
		cached := embcache.New(base, store, cfg.openai.model, embcache.DefaultTTL, metrics.EmbeddingCacheTotal, cfg.logger)
		return embeddinguc.NewInstrumentedEmbedder(cached, "openai", cfg.openai.model, cfg.openai.dimensions, cfg.logger)
	default:
		return nil
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Browser returns the client's browsing session.
func (c *Client) Browser() *Browser {
	return c.browser
}

// Describe returns the metadata of keys in one round trip, in input order.
func (c *Client) Describe(ctx context.Context, keys ...string) ([]KeyInfo, error) {
	infos, err := c.keys.Describe(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("describe: %w", err)
	}
	out := make([]KeyInfo, len(infos))
	for i, in := range infos {
		out[i] = KeyInfo{
			Key:            in.Key,
			Exists:         in.Exists,
			QuantType:      in.QuantType,
			Dimensions:     in.Dim,
			Size:           in.Size,
			MaxLevel:       in.MaxLevel,
			VSetUID:        in.VSetUID,
			HNSWMaxNodeUID: in.HNSWMaxNodeUID,
		}
	}
	return out, nil
}
