package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/vsetbrowse/internal/domain"
)

// Config holds the vsetbrowse server configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Browser   BrowserConfig   `yaml:"browser"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // only "redis": vector sets need Redis 8+
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// BrowserConfig holds result browsing defaults.
type BrowserConfig struct {
	ShowAttributes   *bool  `yaml:"show_attributes"`
	FilteredOnly     bool   `yaml:"filtered_only"`
	DefaultCount     int    `yaml:"default_count"`
	MaxCount         int    `yaml:"max_count"`
	PreferencePrefix string `yaml:"preference_prefix"`
	Locale           string `yaml:"locale"` // BCP 47 tag for element sorting
}

// EmbeddingConfig configures the optional text query embedder.
// An empty APIKey disables text queries.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"`
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	Dimensions  int    `yaml:"dimensions"`
	Instruction string `yaml:"query_instruction"`
	CacheTTLSec int    `yaml:"cache_ttl_sec"` // 0 uses the default, negative disables caching
}

// Enabled reports whether a text query embedder should be built.
func (e EmbeddingConfig) Enabled() bool { return e.APIKey != "" }

// CacheTTL returns the embedding cache TTL; zero means caching is off.
func (e EmbeddingConfig) CacheTTL() time.Duration {
	if e.CacheTTLSec < 0 {
		return 0
	}
	return time.Duration(e.CacheTTLSec) * time.Second
}

// Domain converts the browser section into session defaults.
func (b BrowserConfig) Domain() domain.BrowserConfig {
	cfg := domain.DefaultBrowserConfig()
	if b.ShowAttributes != nil {
		cfg.ShowAttributes = *b.ShowAttributes
	}
	cfg.FilteredOnly = b.FilteredOnly
	if b.DefaultCount > 0 {
		cfg.DefaultCount = b.DefaultCount
	}
	if b.MaxCount > 0 {
		cfg.MaxCount = b.MaxCount
	}
	return cfg
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, expanding ${VAR} references first,
// then applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Browser.DefaultCount <= 0 {
		c.Browser.DefaultCount = domain.DefaultCount
	}
	if c.Browser.MaxCount <= 0 {
		c.Browser.MaxCount = domain.MaxCount
	}
	if c.Browser.PreferencePrefix == "" {
		c.Browser.PreferencePrefix = "vsetbrowse:prefs:column:"
	}
	if c.Browser.Locale == "" {
		c.Browser.Locale = "und"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.CacheTTLSec == 0 {
		c.Embedding.CacheTTLSec = int((24 * time.Hour).Seconds())
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Database.Driver != "redis" {
		return fmt.Errorf("database.driver must be \"redis\", got %q", c.Database.Driver)
	}
	if len(c.Database.Addrs) == 0 {
		return errors.New("database.addrs is required")
	}
	if c.Database.DB < 0 {
		return fmt.Errorf("database.db must not be negative, got %d", c.Database.DB)
	}
	if c.Browser.DefaultCount > c.Browser.MaxCount {
		return fmt.Errorf("browser.default_count (%d) exceeds browser.max_count (%d)",
			c.Browser.DefaultCount, c.Browser.MaxCount)
	}
	if c.Embedding.Enabled() && c.Embedding.Model == "" {
		return errors.New("embedding.model is required when embedding.api_key is set")
	}
	for i, k := range c.Auth.APIKeys {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("auth.api_keys[%d] is empty", i)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// envVarRegex matches ${VAR} and ${VAR:-default}.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
