// Package config loads the inspector's settings from the environment and an
// optional TOML overlay.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"

	"github.com/guiperry/promptinspector/utils"
)

// RateLimitConfig bounds outbound calls to one provider.
type RateLimitConfig struct {
	MaxConcurrency int           `env:"MAX_CONCURRENCY" envDefault:"2" validate:"gte=1"`
	MinInterval    time.Duration `env:"MIN_INTERVAL" envDefault:"6s" validate:"gte=0s"`
	MaxWait        time.Duration `env:"MAX_WAIT" envDefault:"30s" validate:"gt=0s"`
	MaxQueue       int           `env:"MAX_QUEUE" envDefault:"100" validate:"gte=1"`
}

// AnalysisConfig holds the scoring thresholds and the suggestion cap.
type AnalysisConfig struct {
	StrongThreshold float64 `env:"STRONG_THRESHOLD" envDefault:"0.75" validate:"gte=0,lte=1"`
	WeakThreshold   float64 `env:"WEAK_THRESHOLD" envDefault:"0.4" validate:"gte=0,lte=1,ltefield=StrongThreshold"`
	MaxSuggestions  int     `env:"MAX_SUGGESTIONS" envDefault:"5" validate:"gte=1"`
}

type Config struct {
	Host     string         `env:"HOST" envDefault:"0.0.0.0"`
	Port     int            `env:"PORT" envDefault:"8000" validate:"gte=1,lte=65535"`
	LogLevel utils.LogLevel `env:"LOG_LEVEL" envDefault:"INFO"`
	LogJSON  bool           `env:"LOG_JSON" envDefault:"false"`

	Provider        string        `env:"LLM_PROVIDER" envDefault:"openrouter" validate:"required"`
	Model           string        `env:"LLM_MODEL" envDefault:"meta-llama/llama-3.3-8b-instruct:free"`
	Timeout         time.Duration `env:"LLM_TIMEOUT" envDefault:"30s" validate:"gt=0s"`
	Temperature     float64       `env:"LLM_TEMPERATURE" envDefault:"0.3" validate:"gte=0,lte=2"`
	MaxTokens       int           `env:"LLM_MAX_TOKENS" envDefault:"1000" validate:"gte=1"`
	MaxPromptTokens int           `env:"LLM_MAX_PROMPT_TOKENS" envDefault:"3000" validate:"gte=0"`
	MaxRetries      int           `env:"LLM_MAX_RETRIES" envDefault:"0" validate:"gte=0"`
	RetryDelay      time.Duration `env:"LLM_RETRY_DELAY" envDefault:"1s"`

	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
	Analysis  AnalysisConfig  `envPrefix:"ANALYSIS_"`

	// ConfigFile names an optional TOML overlay, see LoadFile.
	ConfigFile string `env:"PROMPTINSPECTOR_CONFIG"`

	// Providers carries per-provider overrides from the TOML overlay.
	Providers map[string]ProviderSettings `validate:"dive"`

	APIKeys map[string]string
	Logger  utils.Logger
}

// LoadConfig parses the environment, harvests every *_API_KEY variable and
// applies the TOML overlay when PROMPTINSPECTOR_CONFIG names one.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		APIKeys:   make(map[string]string),
		Providers: make(map[string]ProviderSettings),
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	loadAPIKeys(cfg)

	if cfg.ConfigFile != "" {
		if err := LoadFile(cfg, cfg.ConfigFile); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func loadAPIKeys(cfg *Config) {
	for _, envVar := range os.Environ() {
		key, value, found := strings.Cut(envVar, "=")
		if found && value != "" && strings.HasSuffix(strings.ToUpper(key), "_API_KEY") {
			provider := strings.TrimSuffix(strings.ToUpper(key), "_API_KEY")
			cfg.APIKeys[strings.ToLower(provider)] = value
		}
	}
}

// NewConfig returns the same defaults LoadConfig would produce from an empty
// environment.
func NewConfig() *Config {
	return &Config{
		Host:            "0.0.0.0",
		Port:            8000,
		LogLevel:        utils.LogLevelInfo,
		Provider:        "openrouter",
		Model:           "meta-llama/llama-3.3-8b-instruct:free",
		Timeout:         30 * time.Second,
		Temperature:     0.3,
		MaxTokens:       1000,
		MaxPromptTokens: 3000,
		RetryDelay:      time.Second,
		RateLimit: RateLimitConfig{
			MaxConcurrency: 2,
			MinInterval:    6 * time.Second,
			MaxWait:        30 * time.Second,
			MaxQueue:       100,
		},
		Analysis: AnalysisConfig{
			StrongThreshold: 0.75,
			WeakThreshold:   0.4,
			MaxSuggestions:  5,
		},
		Providers: make(map[string]ProviderSettings),
		APIKeys:   make(map[string]string),
	}
}

var validate = validator.New()

// Validate checks the struct tags above. Weak must not exceed strong.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// APIKey returns the configured key for provider, or "".
func (c *Config) APIKey(provider string) string {
	return c.APIKeys[strings.ToLower(provider)]
}

// LimitsFor merges the overlay's settings for provider over the global
// RateLimit block. Fields the overlay leaves out inherit; an explicit
// min_interval of "0s" turns pacing off for that provider.
func (c *Config) LimitsFor(provider string) RateLimitConfig {
	limits := c.RateLimit
	ps, ok := c.Providers[provider]
	if !ok {
		return limits
	}
	if ps.MaxConcurrency != nil {
		limits.MaxConcurrency = *ps.MaxConcurrency
	}
	if ps.MinInterval != nil {
		limits.MinInterval = ps.MinInterval.Duration
	}
	if ps.MaxWait != nil {
		limits.MaxWait = ps.MaxWait.Duration
	}
	if ps.MaxQueue != nil {
		limits.MaxQueue = *ps.MaxQueue
	}
	return limits
}

// EndpointFor returns the overlay's endpoint override for provider, or "".
func (c *Config) EndpointFor(provider string) string {
	return c.Providers[provider].Endpoint
}

type ConfigOption func(*Config)

func SetProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.Provider = provider
	}
}

func SetModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

func SetTemperature(temperature float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = temperature
	}
}

func SetMaxTokens(maxTokens int) ConfigOption {
	return func(c *Config) {
		if maxTokens < 1 {
			maxTokens = 1
		}
		c.MaxTokens = maxTokens
	}
}

func SetTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// SetAPIKey stores key for provider. An empty provider means the default one.
func SetAPIKey(provider, apiKey string) ConfigOption {
	return func(c *Config) {
		if c.APIKeys == nil {
			c.APIKeys = make(map[string]string)
		}
		if provider == "" {
			provider = c.Provider
		}
		c.APIKeys[strings.ToLower(provider)] = apiKey
	}
}

func SetMaxRetries(maxRetries int) ConfigOption {
	return func(c *Config) {
		c.MaxRetries = maxRetries
	}
}

func SetRetryDelay(retryDelay time.Duration) ConfigOption {
	return func(c *Config) {
		c.RetryDelay = retryDelay
	}
}

func SetLogLevel(level utils.LogLevel) ConfigOption {
	return func(c *Config) {
		c.LogLevel = level
	}
}

func SetLogger(logger utils.Logger) ConfigOption {
	return func(c *Config) {
		c.Logger = logger
	}
}

func SetRateLimit(limits RateLimitConfig) ConfigOption {
	return func(c *Config) {
		c.RateLimit = limits
	}
}

func SetThresholds(strong, weak float64) ConfigOption {
	return func(c *Config) {
		c.Analysis.StrongThreshold = strong
		c.Analysis.WeakThreshold = weak
	}
}

func SetMaxSuggestions(n int) ConfigOption {
	return func(c *Config) {
		c.Analysis.MaxSuggestions = n
	}
}

// SetProviderEndpoint points provider at a different base URL, mostly for
// tests against httptest servers.
func SetProviderEndpoint(provider, endpoint string) ConfigOption {
	return func(c *Config) {
		if c.Providers == nil {
			c.Providers = make(map[string]ProviderSettings)
		}
		ps := c.Providers[provider]
		ps.Endpoint = endpoint
		c.Providers[provider] = ps
	}
}

func ApplyOptions(cfg *Config, options ...ConfigOption) {
	for _, option := range options {
		option(cfg)
	}
}
