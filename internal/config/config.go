package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/sigdex/internal/domain/signal"
)

// Provider types.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// ScheduleOff disables the periodic queue flush.
const ScheduleOff = "off"

// Config holds the sigdex configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Rerank    RerankConfig    `yaml:"rerank"`
	Collect   CollectConfig   `yaml:"collect"`
	Platforms PlatformsConfig `yaml:"platforms"`
	Filter    FilterConfig    `yaml:"filter"`
	Index     IndexConfig     `yaml:"index"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	CORSOrigins     []string `yaml:"cors_origins"` // empty disables CORS
}

// DatabaseConfig holds index store connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig selects the embedding provider and tunes ingestion batching.
type EmbeddingConfig struct {
	Provider            string                    `yaml:"provider"` // key into providers
	Providers           map[string]ProviderConfig `yaml:"providers"`
	Model               string                    `yaml:"model"`
	Dimensions          int                       `yaml:"dimensions"`
	DocumentInstruction string                    `yaml:"document_instruction"`
	QueryInstruction    string                    `yaml:"query_instruction"`
	BatchSize           int                       `yaml:"batch_size"`
	BatchDelayMs        int                       `yaml:"batch_delay_ms"`
	CacheSize           int                       `yaml:"cache_size"` // query vectors kept in memory
	CacheTTLSec         int                       `yaml:"cache_ttl_sec"`
	StoreCache          bool                      `yaml:"store_cache"`       // cache document vectors in the store
	MaxRequestBatch     int                       `yaml:"max_request_batch"` // 0 keeps the client default
}

// ProviderConfig holds embedding provider credentials.
type ProviderConfig struct {
	Type    string `yaml:"type"` // openai (any compatible endpoint) or gemini
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// RerankConfig holds cross-encoder settings.
type RerankConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BaseURL     string `yaml:"base_url"`
	APIKey      string `yaml:"api_key"`
	Model       string `yaml:"model"`
	Window      int    `yaml:"window"`
	ProbeTTLSec int    `yaml:"probe_ttl_sec"`
	TimeoutSec  int    `yaml:"timeout_sec"`
}

// CollectConfig tunes the collection orchestrator.
type CollectConfig struct {
	Threshold        int      `yaml:"threshold"`
	Workers          int      `yaml:"workers"`
	QueueSize        int      `yaml:"queue_size"`
	PlatformLimit    int      `yaml:"platform_limit"`
	FlushSchedule    string   `yaml:"flush_schedule"` // cron spec or "off"
	EnabledPlatforms []string `yaml:"enabled_platforms"`
}

// PlatformsConfig holds per-platform adapter settings.
type PlatformsConfig struct {
	Reddit      RedditConfig      `yaml:"reddit"`
	HackerNews  HackerNewsConfig  `yaml:"hackernews"`
	GitHub      GitHubConfig      `yaml:"github"`
	ProductHunt ProductHuntConfig `yaml:"producthunt"`
}

// RedditConfig holds Reddit adapter settings.
type RedditConfig struct {
	BaseURL    string   `yaml:"base_url"`
	Subreddits []string `yaml:"subreddits"`
	DelayMs    int      `yaml:"delay_ms"`
	TimeoutSec int      `yaml:"timeout_sec"`
}

// HackerNewsConfig holds Hacker News adapter settings.
type HackerNewsConfig struct {
	BaseURL           string `yaml:"base_url"`
	TimeoutSec        int    `yaml:"timeout_sec"`
	FetchArticles     bool   `yaml:"fetch_articles"`
	MaxArticles       int    `yaml:"max_articles"`
	ArticleTimeoutSec int    `yaml:"article_timeout_sec"`
}

// GitHubConfig holds GitHub adapter settings.
type GitHubConfig struct {
	BaseURL    string `yaml:"base_url"`
	Token      string `yaml:"token"`
	DelayMs    int    `yaml:"delay_ms"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// ProductHuntConfig holds Product Hunt adapter settings. The adapter is
// registered only when a token is present.
type ProductHuntConfig struct {
	BaseURL    string `yaml:"base_url"`
	Token      string `yaml:"token"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// FilterConfig holds ingest filter thresholds.
type FilterConfig struct {
	MinQuality    float64 `yaml:"min_quality"`
	MaxTags       int     `yaml:"max_tags"`
	MaxProducts   int     `yaml:"max_products"`
	MaxAgeDays    int     `yaml:"max_age_days"`
	SpamThreshold float64 `yaml:"spam_threshold"`
}

// IndexConfig holds search index settings.
type IndexConfig struct {
	Name            string `yaml:"name"`
	Prefix          string `yaml:"prefix"`
	BatchSize       int    `yaml:"batch_size"`
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML, substitutes env variables, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
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
		// collect requests run the whole pipeline synchronously
		c.HTTP.WriteTimeoutSec = 300
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderOpenAI
	}
	for name, p := range c.Embedding.Providers {
		if p.Type == "" {
			p.Type = ProviderOpenAI
			if name == ProviderGemini {
				p.Type = ProviderGemini
			}
			c.Embedding.Providers[name] = p
		}
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1024
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = 5
	}
	if c.Embedding.BatchDelayMs < 0 {
		c.Embedding.BatchDelayMs = 0
	}
	if c.Embedding.CacheSize <= 0 {
		c.Embedding.CacheSize = 1000
	}
	if c.Embedding.CacheTTLSec <= 0 {
		c.Embedding.CacheTTLSec = 3600
	}

	if c.Rerank.Window <= 0 {
		c.Rerank.Window = 100
	}
	if c.Rerank.ProbeTTLSec <= 0 {
		c.Rerank.ProbeTTLSec = 30
	}
	if c.Rerank.TimeoutSec <= 0 {
		c.Rerank.TimeoutSec = 10
	}

	if c.Collect.Threshold <= 0 {
		c.Collect.Threshold = 10
	}
	if c.Collect.Workers <= 0 {
		c.Collect.Workers = 2
	}
	if c.Collect.QueueSize <= 0 {
		c.Collect.QueueSize = 16
	}
	if c.Collect.PlatformLimit <= 0 {
		c.Collect.PlatformLimit = 25
	}
	if c.Collect.FlushSchedule == "" {
		c.Collect.FlushSchedule = "*/30 * * * *"
	}

	if c.Index.Name == "" {
		c.Index.Name = "sigdex:signals:idx"
	}
	if c.Index.Prefix == "" {
		c.Index.Prefix = "sigdex:signal:"
	}
	if c.Index.BatchSize <= 0 {
		c.Index.BatchSize = 100
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	prov, ok := c.Embedding.Providers[c.Embedding.Provider]
	if !ok {
		return fmt.Errorf("embedding.provider %q has no entry in embedding.providers", c.Embedding.Provider)
	}
	switch prov.Type {
	case ProviderOpenAI, ProviderGemini:
		// ok
	default:
		return fmt.Errorf(
			"embedding.providers.%s.type must be %q or %q, got %q",
			c.Embedding.Provider, ProviderOpenAI, ProviderGemini, prov.Type,
		)
	}
	if c.Rerank.Enabled && c.Rerank.BaseURL == "" {
		return fmt.Errorf("rerank.base_url is required when rerank is enabled")
	}
	for _, p := range c.Collect.EnabledPlatforms {
		if _, err := signal.ParsePlatform(p); err != nil {
			return fmt.Errorf("collect.enabled_platforms: %w", err)
		}
	}
	if c.Filter.MinQuality < 0 || c.Filter.MinQuality > 100 {
		return fmt.Errorf("filter.min_quality must be between 0 and 100, got %v", c.Filter.MinQuality)
	}
	if c.Filter.SpamThreshold < 0 || c.Filter.SpamThreshold > 1 {
		return fmt.Errorf("filter.spam_threshold must be between 0 and 1, got %v", c.Filter.SpamThreshold)
	}
	return nil
}

// Millis converts a millisecond setting to a duration.
func Millis(ms int) time.Duration { return time.Duration(ms) * time.Millisecond }

// Seconds converts a second setting to a duration.
func Seconds(sec int) time.Duration { return time.Duration(sec) * time.Second }

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
