package promptinspector

import (
	"github.com/guiperry/promptinspector/config"
	"github.com/guiperry/promptinspector/utils"
)

// Re-export the configuration types so callers need only this package.
type (
	// Config holds every setting of an Inspector: provider defaults, the
	// outbound call budget, queue limits and analysis thresholds.
	//
	// Example usage:
	//   cfg := NewConfig()
	//   ApplyOptions(cfg, SetThresholds(0.8, 0.35), SetMaxSuggestions(3))
	Config = config.Config

	ConfigOption    = config.ConfigOption
	RateLimitConfig = config.RateLimitConfig
	LogLevel        = utils.LogLevel
)

var (
	// LoadConfig reads the environment, including every *_API_KEY variable,
	// and the TOML file named by PROMPTINSPECTOR_CONFIG if set.
	LoadConfig   = config.LoadConfig
	NewConfig    = config.NewConfig
	ApplyOptions = config.ApplyOptions
)

var (
	// Provider selection
	SetProvider         = config.SetProvider
	SetModel            = config.SetModel
	SetAPIKey           = config.SetAPIKey
	SetProviderEndpoint = config.SetProviderEndpoint

	// Outbound calls
	SetTemperature = config.SetTemperature
	SetMaxTokens   = config.SetMaxTokens
	SetTimeout     = config.SetTimeout
	SetMaxRetries  = config.SetMaxRetries
	SetRetryDelay  = config.SetRetryDelay
	SetRateLimit   = config.SetRateLimit

	// Analysis
	SetThresholds     = config.SetThresholds
	SetMaxSuggestions = config.SetMaxSuggestions

	SetLogLevel = config.SetLogLevel
	SetLogger   = config.SetLogger
)

const (
	LogLevelOff   = utils.LogLevelOff
	LogLevelError = utils.LogLevelError
	LogLevelWarn  = utils.LogLevelWarn
	LogLevelInfo  = utils.LogLevelInfo
	LogLevelDebug = utils.LogLevelDebug
)
