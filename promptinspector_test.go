package promptinspector_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guiperry/promptinspector"
	"github.com/guiperry/promptinspector/dimension"
	"github.com/guiperry/promptinspector/llm"
	"github.com/guiperry/promptinspector/providers"
	"github.com/guiperry/promptinspector/ratelimit"
	"github.com/guiperry/promptinspector/utils"
)

const richPrompt = "You are an experienced data analyst who specializes in retail sales reporting.\n\n" +
	"Context: our team is preparing the quarterly review for regional store managers, and the audience has no statistics background.\n\n" +
	"Task: Summarize the attached sales figures in order to highlight the 3 strongest and 3 weakest product categories.\n\n" +
	"Output format:\n" +
	"- Use a markdown table with the columns Category, Revenue, and Change\n" +
	"- Keep the summary under 200 words in a friendly, professional tone\n" +
	"- Do not include raw transaction data\n\n" +
	"For example:\n" +
	"| Category | Revenue | Change |\n" +
	"| Outdoor | $120k | +8% |\n\n" +
	"Think step by step before answering."

func newInspector(t *testing.T, opts ...promptinspector.ConfigOption) (*promptinspector.Inspector, *promptinspector.Config) {
	t.Helper()
	cfg := promptinspector.NewConfig()
	cfg.RateLimit.MinInterval = 0
	promptinspector.ApplyOptions(cfg, opts...)
	in, err := promptinspector.New(cfg, promptinspector.WithLogger(utils.NewNopLogger()))
	require.NoError(t, err)
	return in, cfg
}

// provider starts an OpenAI-compatible endpoint and points cfg's openai
// settings at it.
func provider(t *testing.T, handler http.HandlerFunc) promptinspector.ConfigOption {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return func(c *promptinspector.Config) {
		promptinspector.ApplyOptions(c,
			promptinspector.SetProviderEndpoint("openai", srv.URL),
			promptinspector.SetAPIKey("openai", "sk-test"))
	}
}

func critique(t *testing.T, content string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
	})
	require.NoError(t, err)
	return body
}

func TestAnalyzeMinimalPrompt(t *testing.T) {
	in, cfg := newInspector(t)
	resp, err := in.Analyze(context.Background(), promptinspector.Request{
		Text:        "write something",
		TargetModel: "gpt-4",
	})
	require.NoError(t, err)

	assert.Less(t, resp.Scores[dimension.Specificity], cfg.Analysis.WeakThreshold)
	assert.Less(t, resp.Scores[dimension.Context], cfg.Analysis.WeakThreshold)
	assert.NotEmpty(t, resp.Weaknesses)
	assert.NotEmpty(t, resp.Suggestions)
	assert.LessOrEqual(t, len(resp.Suggestions), cfg.Analysis.MaxSuggestions)
	assert.NotEqual(t, "write something", resp.OptimizedPrompt)
	assert.Contains(t, resp.OptimizedPrompt, "write something")
	assert.False(t, resp.Detailed)
	assert.Empty(t, resp.Notice)
}

func TestAnalyzeRichPrompt(t *testing.T) {
	in, _ := newInspector(t)
	resp, err := in.Analyze(context.Background(), promptinspector.Request{Text: richPrompt, TargetModel: "general"})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, resp.OverallScore, 4.0)
	assert.Empty(t, resp.Weaknesses)
	assert.Empty(t, resp.Suggestions)
	assert.Equal(t, richPrompt, resp.OptimizedPrompt)
}

func TestAnalyzeRejectsInvalidRequests(t *testing.T) {
	in, _ := newInspector(t)
	tests := []struct {
		name string
		req  promptinspector.Request
		want string
	}{
		{"empty prompt", promptinspector.Request{Text: ""}, "Text must not be empty"},
		{"blank prompt", promptinspector.Request{Text: " \n\t "}, "Text must not be empty"},
		{"missing model", promptinspector.Request{Text: "hi"}, "TargetModel must not be empty"},
		{"blank model", promptinspector.Request{Text: "hi", TargetModel: "   "}, "TargetModel must not be empty"},
		{"odd model", promptinspector.Request{Text: "hi", TargetModel: "gpt 4; drop"}, "TargetModel failed modelid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := in.Analyze(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, llm.ErrorTypeInvalidInput, llm.TypeOf(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDetailedWithoutKeyFallsBack(t *testing.T) {
	in, cfg := newInspector(t)
	cfg.APIKeys = map[string]string{}

	req := promptinspector.Request{Text: "write something", TargetModel: "claude"}
	plain, err := in.Analyze(context.Background(), req)
	require.NoError(t, err)

	req.Detailed = true
	resp, err := in.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.Detailed)
	assert.Contains(t, resp.Notice, "API key")
	resp.Notice = ""
	assert.Equal(t, plain, resp)
}

func TestProviderTimeoutFallsBackToRuleBased(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	in, _ := newInspector(t,
		provider(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}),
		promptinspector.SetTimeout(30*time.Millisecond))

	req := promptinspector.Request{Text: "write something", TargetModel: "gpt-4"}
	plain, err := in.Analyze(context.Background(), req)
	require.NoError(t, err)

	req.Detailed = true
	resp, err := in.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.Detailed)
	assert.Contains(t, resp.Notice, "in time")

	resp.Notice = ""
	assert.Equal(t, plain, resp)
}

func TestDetailedMergesProviderCritique(t *testing.T) {
	reply := `{
		"dimension_scores": {"context": 5, "Output Format": 4},
		"weaknesses": ["The subject of the text is never named"],
		"suggestions": [{"title": "Name the subject", "description": "Say what the text is about.", "dimension": "clarity"}],
		"improved_prompt": "Write a 150-word product description for a reusable water bottle."
	}`
	in, cfg := newInspector(t, provider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(critique(t, reply))
	}))

	resp, err := in.Analyze(context.Background(), promptinspector.Request{
		Text:        "write something",
		TargetModel: "gpt-4o",
		Detailed:    true,
	})
	require.NoError(t, err)

	assert.True(t, resp.Detailed)
	assert.Empty(t, resp.Notice)
	assert.Equal(t, "openai", resp.Provider)
	assert.Equal(t, "gpt-4o", resp.Model)
	assert.Equal(t, 1.0, resp.Scores[dimension.Context])
	assert.Equal(t, 0.75, resp.Scores[dimension.Specificity])
	assert.Contains(t, resp.Weaknesses, "The subject of the text is never named")
	assert.Equal(t, "Write a 150-word product description for a reusable water bottle.", resp.LLMPrompt)
	assert.LessOrEqual(t, len(resp.Suggestions), cfg.Analysis.MaxSuggestions)
	for _, s := range resp.Suggestions {
		assert.NotEqual(t, dimension.Context, s.Dimension, "context is no longer weak")
	}
	assert.NotContains(t, resp.OptimizedPrompt, "Context:")
	assert.Contains(t, resp.OptimizedPrompt, "write something")
}

func TestRateLimitExhaustionIsReported(t *testing.T) {
	release := make(chan struct{})
	arrived := make(chan struct{}, 1)
	in, _ := newInspector(t,
		provider(t, func(w http.ResponseWriter, r *http.Request) {
			arrived <- struct{}{}
			<-release
			_, _ = w.Write(critique(t, `{"dimension_scores": {}}`))
		}),
		promptinspector.SetRateLimit(promptinspector.RateLimitConfig{
			MaxConcurrency: 1,
			MaxWait:        20 * time.Millisecond,
			MaxQueue:       10,
		}))

	req := promptinspector.Request{Text: "write something", TargetModel: "gpt-4", Detailed: true}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		resp, err := in.Analyze(context.Background(), req)
		if assert.NoError(t, err) {
			assert.True(t, resp.Detailed)
		}
	}()
	<-arrived

	_, err := in.Analyze(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, llm.ErrorTypeRateLimit, llm.TypeOf(err))
	assert.ErrorIs(t, err, ratelimit.ErrRateLimitExhausted)

	close(release)
	wg.Wait()

	stats := in.QueueStats()
	require.Len(t, stats, 1)
	assert.Equal(t, "openai", stats[0].Provider)
	assert.Equal(t, 0, stats[0].Active)
}

func TestCallerCancellationIsReturned(t *testing.T) {
	in, _ := newInspector(t, provider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no call expected for a cancelled request")
	}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := in.Analyze(ctx, promptinspector.Request{Text: "write something", TargetModel: "gpt-4", Detailed: true})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := promptinspector.NewConfig()
	promptinspector.ApplyOptions(cfg, promptinspector.SetThresholds(0.3, 0.6))
	_, err := promptinspector.New(cfg)
	assert.Error(t, err)
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	cfg := promptinspector.NewConfig()
	promptinspector.ApplyOptions(cfg, promptinspector.SetProvider("acme"))
	_, err := promptinspector.New(cfg, promptinspector.WithLogger(utils.NewNopLogger()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"acme"`)
	assert.Contains(t, err.Error(), "anthropic, openai, openrouter")

	registry := providers.NewProviderRegistry()
	registry.Register("acme", func(apiKey, model string, extraHeaders map[string]string) providers.Provider {
		return providers.NewOpenAIProvider(apiKey, model, extraHeaders)
	})
	_, err = promptinspector.New(cfg,
		promptinspector.WithLogger(utils.NewNopLogger()),
		promptinspector.WithProviderRegistry(registry))
	assert.NoError(t, err)
}

func TestDimensions(t *testing.T) {
	in, _ := newInspector(t)
	defs := in.Dimensions()
	require.Len(t, defs, len(dimension.IDs()))
	assert.Equal(t, dimension.Clarity, defs[0].ID)
}
