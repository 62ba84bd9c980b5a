package vsetbrowse

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs            []string
	username         string
	password         string
	db               int
	readinessTimeout time.Duration

	prefs            Preferences
	preferencePrefix string
	showAttributes   bool
	filteredOnly     bool
	locale           language.Tag

	embedder Embedder
	openai   *openAIConfig

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

type openAIConfig struct {
	apiKey     string
	baseURL    string
	model      string
	dimensions int
}

func defaultClientConfig() *clientConfig {
	return &clientConfig{
		readinessTimeout: defaultReadinessTimeout,
		showAttributes:   true,
		locale:           language.Und,
		logger:           zap.NewNop(),
	}
}

// WithRedis configures the client to connect to a Redis 8+ instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedisDB selects the logical database.
func WithRedisDB(db int) Option {
	return optionFunc(func(c *clientConfig) {
		c.db = db
	})
}

// WithRedisUser sets the ACL user name.
func WithRedisUser(username string) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
	})
}

// WithReadinessTimeout bounds how long New waits for the server.
// Default: 10s.
func WithReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.readinessTimeout = d
	})
}

// WithPreferences replaces the Redis backed column visibility store.
func WithPreferences(p Preferences) Option {
	return optionFunc(func(c *clientConfig) {
		c.prefs = p
	})
}

// WithPreferencePrefix sets the key prefix of the Redis backed preference store.
func WithPreferencePrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.preferencePrefix = prefix
	})
}

// WithShowAttributes turns attribute columns on or off. Default: on.
func WithShowAttributes(on bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.showAttributes = on
	})
}

// WithFilteredOnly starts the browser in filtered-only mode.
func WithFilteredOnly(on bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.filteredOnly = on
	})
}

// WithLocale sets the collation used when sorting by element name.
func WithLocale(tag language.Tag) Option {
	return optionFunc(func(c *clientConfig) {
		c.locale = tag
	})
}

// WithEmbedder sets the text query embedding provider.
// Without one only element queries are supported.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithOpenAI embeds text queries with an OpenAI-compatible API.
// An empty baseURL uses the OpenAI endpoint; dimensions 0 keeps the model default.
func WithOpenAI(apiKey, baseURL, model string, dimensions int) Option {
	return optionFunc(func(c *clientConfig) {
		c.openai = &openAIConfig{apiKey: apiKey, baseURL: baseURL, model: model, dimensions: dimensions}
	})
}

// WithLogger enables structured logging. Default: no logging.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		if l != nil {
			c.logger = l
		}
	})
}

// WithPrometheus registers attribute cache metrics on reg.
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
