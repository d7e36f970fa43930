package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guiperry/promptinspector/config"
	"github.com/guiperry/promptinspector/utils"
)

// testLogger captures log messages for testing
type testLogger struct {
	messages []string
}

func (l *testLogger) Debug(msg string, keysAndValues ...any) {
	l.messages = append(l.messages, "DEBUG: "+msg)
}

func (l *testLogger) Info(msg string, keysAndValues ...any) {
	l.messages = append(l.messages, "INFO: "+msg)
}

func (l *testLogger) Warn(msg string, keysAndValues ...any) {
	l.messages = append(l.messages, "WARN: "+msg)
}

func (l *testLogger) Error(msg string, keysAndValues ...any) {
	l.messages = append(l.messages, "ERROR: "+msg)
}

func (l *testLogger) SetLevel(level utils.LogLevel) {}

func TestSetLogger(t *testing.T) {
	customLogger := &testLogger{}

	cfg := config.NewConfig()
	config.ApplyOptions(cfg, config.SetLogger(customLogger))

	assert.Equal(t, customLogger, cfg.Logger)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	defaults := config.NewConfig()
	assert.Equal(t, defaults.Port, cfg.Port)
	assert.Equal(t, defaults.Provider, cfg.Provider)
	assert.Equal(t, defaults.RateLimit, cfg.RateLimit)
	assert.Equal(t, defaults.Analysis, cfg.Analysis)
	assert.Equal(t, 0.3, cfg.Temperature)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RATE_LIMIT_MAX_CONCURRENCY", "5")
	t.Setenv("RATE_LIMIT_MIN_INTERVAL", "250ms")
	t.Setenv("ANALYSIS_WEAK_THRESHOLD", "0.3")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "0.0.0.0:9100", cfg.Addr())
	assert.Equal(t, utils.LogLevelDebug, cfg.LogLevel)
	assert.Equal(t, 5, cfg.RateLimit.MaxConcurrency)
	assert.Equal(t, 250*time.Millisecond, cfg.RateLimit.MinInterval)
	assert.Equal(t, 0.3, cfg.Analysis.WeakThreshold)
	assert.Equal(t, "sk-test", cfg.APIKey("OpenAI"))
	assert.Empty(t, cfg.APIKey("anthropic"))
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("LOG_LEVEL", "shouting")
	_, err := config.LoadConfig()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    []config.ConfigOption
		wantErr bool
	}{
		{"defaults", nil, false},
		{"weak above strong", []config.ConfigOption{config.SetThresholds(0.5, 0.6)}, true},
		{"threshold out of range", []config.ConfigOption{config.SetThresholds(1.5, 0.4)}, true},
		{"zero concurrency", []config.ConfigOption{config.SetRateLimit(config.RateLimitConfig{
			MaxConcurrency: 0, MinInterval: time.Second, MaxWait: time.Second, MaxQueue: 1,
		})}, true},
		{"zero suggestions", []config.ConfigOption{config.SetMaxSuggestions(0)}, true},
		{"bad endpoint", []config.ConfigOption{config.SetProviderEndpoint("openai", "not a url")}, true},
		{"good endpoint", []config.ConfigOption{config.SetProviderEndpoint("openai", "http://127.0.0.1:8080/v1")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewConfig()
			config.ApplyOptions(cfg, tt.opts...)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSetAPIKeyDefaultsToProvider(t *testing.T) {
	cfg := config.NewConfig()
	config.ApplyOptions(cfg,
		config.SetProvider("anthropic"),
		config.SetAPIKey("", "sk-ant-x"),
		config.SetAPIKey("OpenRouter", "or-key"),
	)
	assert.Equal(t, "sk-ant-x", cfg.APIKey("anthropic"))
	assert.Equal(t, "or-key", cfg.APIKey("openrouter"))
}

func TestLoadFileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inspector.toml")
	content := `
[analysis]
weak_threshold = 0.35
max_suggestions = 3

[providers.OpenAI]
endpoint = "http://localhost:9999/v1/chat/completions"
model = "gpt-4o-mini"
max_concurrency = 4
min_interval = "1s"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("PROMPTINSPECTOR_CONFIG", path)
	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 0.35, cfg.Analysis.WeakThreshold)
	assert.Equal(t, 0.75, cfg.Analysis.StrongThreshold)
	assert.Equal(t, 3, cfg.Analysis.MaxSuggestions)
	assert.Equal(t, "http://localhost:9999/v1/chat/completions", cfg.EndpointFor("openai"))
	assert.Equal(t, "gpt-4o-mini", cfg.ModelFor("openai"))

	limits := cfg.LimitsFor("openai")
	assert.Equal(t, 4, limits.MaxConcurrency)
	assert.Equal(t, time.Second, limits.MinInterval)
	assert.Equal(t, 30*time.Second, limits.MaxWait, "unset fields inherit")
	assert.Equal(t, 100, limits.MaxQueue)

	assert.Equal(t, cfg.RateLimit, cfg.LimitsFor("anthropic"))
	require.NoError(t, cfg.Validate())
}

func TestLoadFileExplicitZeroInterval(t *testing.T) {
	cfg := config.NewConfig()
	require.Positive(t, cfg.RateLimit.MinInterval)
	path := filepath.Join(t.TempDir(), "inspector.toml")
	content := `
[providers.openai]
min_interval = "0s"
max_queue = 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	require.NoError(t, config.LoadFile(cfg, path))

	limits := cfg.LimitsFor("openai")
	assert.Zero(t, limits.MinInterval)
	assert.Equal(t, 5, limits.MaxQueue)
	assert.Equal(t, cfg.RateLimit.MaxConcurrency, limits.MaxConcurrency)
	assert.Equal(t, cfg.RateLimit.MinInterval, cfg.LimitsFor("anthropic").MinInterval)
	require.NoError(t, cfg.Validate())
}

func TestLoadFileErrors(t *testing.T) {
	cfg := config.NewConfig()
	assert.Error(t, config.LoadFile(cfg, filepath.Join(t.TempDir(), "missing.toml")))

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[providers.openai]\nmin_interval = \"soon\"\n"), 0o600))
	assert.Error(t, config.LoadFile(cfg, path))

	for _, bad := range []string{
		"[providers.openai]\nmax_wait = \"0s\"\n",
		"[providers.openai]\nmin_interval = \"-1s\"\n",
		"[providers.openai]\nmax_concurrency = 0\n",
	} {
		cfg := config.NewConfig()
		require.NoError(t, os.WriteFile(path, []byte(bad), 0o600))
		assert.Error(t, config.LoadFile(cfg, path), bad)
	}
}
