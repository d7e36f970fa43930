// Package refine asks an LLM provider to critique a prompt along the
// dimension catalogue and lays its answer over the rule-based analysis.
//
// Every outbound call runs under an admitted ratelimit ticket and a bounded
// timeout. Provider failures come back as llm.LLMErrors so the caller can
// fall back to the rule-based result.
package refine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/guiperry/promptinspector/analyzer"
	"github.com/guiperry/promptinspector/config"
	"github.com/guiperry/promptinspector/llm"
	"github.com/guiperry/promptinspector/optimizer"
	"github.com/guiperry/promptinspector/providers"
	"github.com/guiperry/promptinspector/ratelimit"
	"github.com/guiperry/promptinspector/utils"
)

// ErrNoAPIKey means neither the request nor the environment holds a key for
// the resolved provider.
var ErrNoAPIKey = errors.New("no API key configured")

// DefaultTarget names no particular model. It resolves to the configured
// default provider.
const DefaultTarget = "general"

// Refinement is the outcome of one successful provider critique.
type Refinement struct {
	Provider string
	Model    string

	// Analysis is the rule-based result with the provider's scores laid over
	// it. Addressed lists the dimensions whose score came from the provider.
	Analysis  *analyzer.Result
	Addressed []string

	Suggestions    []optimizer.Suggestion
	ImprovedPrompt string
	Truncated      bool
}

// Adapter turns a prompt into a Refinement through one provider call.
type Adapter struct {
	cfg        *config.Config
	registry   *providers.ProviderRegistry
	limiter    *ratelimit.Manager
	analyzer   *analyzer.Analyzer
	logger     utils.Logger
	httpClient *http.Client
	truncator  *truncator
}

type AdapterOption func(*Adapter)

// WithRegistry replaces the registry of known providers.
func WithRegistry(registry *providers.ProviderRegistry) AdapterOption {
	return func(a *Adapter) {
		a.registry = registry
	}
}

func WithLogger(logger utils.Logger) AdapterOption {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// WithHTTPClient replaces the client used for provider calls.
func WithHTTPClient(client *http.Client) AdapterOption {
	return func(a *Adapter) {
		a.httpClient = client
	}
}

func New(cfg *config.Config, limiter *ratelimit.Manager, a *analyzer.Analyzer, opts ...AdapterOption) *Adapter {
	ad := &Adapter{
		cfg:      cfg,
		registry: providers.NewProviderRegistry(),
		limiter:  limiter,
		analyzer: a,
		logger:   cfg.Logger,
	}
	for _, opt := range opts {
		opt(ad)
	}
	if ad.logger == nil {
		ad.logger = utils.NewNopLogger()
	}
	ad.truncator = newTruncator(cfg.MaxPromptTokens, ad.logger)
	return ad
}

// Resolve picks the provider and model for a target model. GPT targets go to
// openai and Claude targets to anthropic, using the target as the model;
// "openrouter" or "openrouter:<model>" selects openrouter. Anything else,
// including the default target, uses the configured provider and model.
func (a *Adapter) Resolve(targetModel string) (provider, model string) {
	t := strings.TrimSpace(targetModel)
	lower := strings.ToLower(t)
	switch {
	case lower == "gpt":
		return "openai", providers.OpenAIDefaultModel
	case lower == "gpt-3.5":
		return "openai", "gpt-3.5-turbo"
	case strings.HasPrefix(lower, "gpt"):
		return "openai", lower
	case lower == "claude":
		return "anthropic", providers.AnthropicDefaultModel
	case strings.HasPrefix(lower, "claude"):
		return "anthropic", lower
	case lower == "openrouter":
		return "openrouter", a.modelOr("openrouter", providers.OpenRouterDefaultModel)
	case strings.HasPrefix(lower, "openrouter:"):
		return "openrouter", t[len("openrouter:"):]
	}
	provider = strings.ToLower(a.cfg.Provider)
	return provider, a.modelOr(provider, a.cfg.Model)
}

func (a *Adapter) modelOr(provider, fallback string) string {
	if m := a.cfg.ModelFor(provider); m != "" {
		return m
	}
	return fallback
}

// Refine critiques prompt with the provider targetModel resolves to and
// merges the critique over base, which is left untouched.
//
// The call waits for a ticket from the provider's queue and runs on a context
// detached from ctx, bounded by the configured timeout. If ctx ends while the
// call is in flight Refine returns ctx.Err() at once; the call finishes in the
// background, releases its ticket and its result is dropped.
func (a *Adapter) Refine(ctx context.Context, prompt, targetModel string, base *analyzer.Result, apiKey string) (*Refinement, error) {
	if targetModel == "" {
		targetModel = DefaultTarget
	}
	name, model := a.Resolve(targetModel)
	if apiKey == "" {
		apiKey = a.cfg.APIKey(name)
	}
	if apiKey == "" {
		return nil, llm.NewLLMError(llm.ErrorTypeAuthentication, fmt.Sprintf("no API key for %s", name), ErrNoAPIKey)
	}

	provider, err := a.registry.Get(name, apiKey, model, nil)
	if err != nil {
		return nil, llm.NewLLMError(llm.ErrorTypeProvider, "failed to create provider", err)
	}
	if endpoint := a.cfg.EndpointFor(name); endpoint != "" {
		provider.SetEndpoint(endpoint)
	}
	client := llm.NewLLM(a.cfg, a.logger, provider)
	client.SetOption("system_prompt", systemPrompt)
	if a.httpClient != nil {
		client.SetHTTPClient(a.httpClient)
	}

	text, truncated := a.truncator.Truncate(prompt, provider.Model())
	request := critiquePrompt(text, targetModel)

	ticket, err := a.limiter.Acquire(ctx, name)
	if err != nil {
		return nil, err
	}

	type reply struct {
		text string
		err  error
	}
	done := make(chan reply, 1)
	start := time.Now()
	go func() {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Timeout)
		text, err := client.GenerateWithSchema(callCtx, request, Schema())
		cancel()
		// The slot is free before anyone sees the reply.
		ticket.Complete()
		done <- reply{text, err}
	}()

	var r reply
	select {
	case r = <-done:
	case <-ctx.Done():
		go func() {
			r := <-done
			a.logger.Debug("Discarding provider reply for abandoned request",
				"provider", name, "model", provider.Model(), "error", r.err)
		}()
		return nil, ctx.Err()
	}
	if r.err != nil {
		fields := []any{"provider", name, "model", provider.Model()}
		var le *llm.LLMError
		if errors.As(r.err, &le) {
			fields = append(fields, le.LoggableFields()...)
		} else {
			fields = append(fields, "error", r.err)
		}
		a.logger.Warn("Detailed analysis failed", fields...)
		return nil, r.err
	}

	p, err := parseCritique(r.text)
	if err != nil {
		a.logger.Warn("Unusable provider reply", "provider", name, "error", err, "reply", utils.Truncate(r.text, 200))
		return nil, llm.NewLLMError(llm.ErrorTypeResponse, "malformed critique", err)
	}
	merged, addressed := merge(a.analyzer, base, p)

	a.logger.Info("Detailed analysis complete",
		"provider", name, "model", provider.Model(),
		"addressed", len(addressed), "duration", time.Since(start))
	return &Refinement{
		Provider:       name,
		Model:          provider.Model(),
		Analysis:       merged,
		Addressed:      addressed,
		Suggestions:    p.Suggestions,
		ImprovedPrompt: p.ImprovedPrompt,
		Truncated:      truncated,
	}, nil
}
