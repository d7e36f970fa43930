package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration reads TOML strings such as "1500ms" or "6s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ProviderSettings is one [providers.<name>] table of the overlay. Limits
// left out of the table are nil and inherit the global RateLimit block.
type ProviderSettings struct {
	Endpoint       string    `toml:"endpoint" validate:"omitempty,url"`
	Model          string    `toml:"model"`
	MaxConcurrency *int      `toml:"max_concurrency" validate:"omitempty,gte=1"`
	MinInterval    *Duration `toml:"min_interval"`
	MaxWait        *Duration `toml:"max_wait"`
	MaxQueue       *int      `toml:"max_queue" validate:"omitempty,gte=1"`
}

type analysisFile struct {
	StrongThreshold *float64 `toml:"strong_threshold"`
	WeakThreshold   *float64 `toml:"weak_threshold"`
	MaxSuggestions  *int     `toml:"max_suggestions"`
}

type fileConfig struct {
	Analysis  analysisFile                `toml:"analysis"`
	Providers map[string]ProviderSettings `toml:"providers"`
}

// LoadFile applies the TOML overlay at path to cfg. Values present in the
// file win over the environment.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	return applyTOML(cfg, data)
}

func applyTOML(cfg *Config, data []byte) error {
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if fc.Analysis.StrongThreshold != nil {
		cfg.Analysis.StrongThreshold = *fc.Analysis.StrongThreshold
	}
	if fc.Analysis.WeakThreshold != nil {
		cfg.Analysis.WeakThreshold = *fc.Analysis.WeakThreshold
	}
	if fc.Analysis.MaxSuggestions != nil {
		cfg.Analysis.MaxSuggestions = *fc.Analysis.MaxSuggestions
	}

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderSettings)
	}
	for name, ps := range fc.Providers {
		if ps.MaxConcurrency != nil && *ps.MaxConcurrency < 1 {
			return fmt.Errorf("providers.%s.max_concurrency must be at least 1", name)
		}
		if ps.MaxQueue != nil && *ps.MaxQueue < 1 {
			return fmt.Errorf("providers.%s.max_queue must be at least 1", name)
		}
		if ps.MinInterval != nil && ps.MinInterval.Duration < 0 {
			return fmt.Errorf("providers.%s.min_interval must not be negative", name)
		}
		if ps.MaxWait != nil && ps.MaxWait.Duration <= 0 {
			return fmt.Errorf("providers.%s.max_wait must be positive", name)
		}
		cfg.Providers[strings.ToLower(name)] = ps
	}
	return nil
}

// ModelFor returns the overlay's default model for provider, or "".
func (c *Config) ModelFor(provider string) string {
	return c.Providers[provider].Model
}
