// Package promptinspector scores prompts written for LLMs on a fixed set of
// quality dimensions, rewrites them, and explains each change.
//
// Rule-based analysis always runs. When a request asks for detailed analysis
// the prompt is also critiqued by an LLM provider, through that provider's
// rate-limited queue, and the critique is laid over the rule-based scores.
// Provider failures never fail a request: the rule-based result is returned
// with a notice instead.
package promptinspector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/guiperry/promptinspector/analyzer"
	"github.com/guiperry/promptinspector/dimension"
	"github.com/guiperry/promptinspector/llm"
	"github.com/guiperry/promptinspector/optimizer"
	"github.com/guiperry/promptinspector/providers"
	"github.com/guiperry/promptinspector/ratelimit"
	"github.com/guiperry/promptinspector/refine"
	"github.com/guiperry/promptinspector/utils"
)

// Request is one analysis request. TargetModel "general" selects the configured
// default provider.
type Request struct {
	Text        string `json:"prompt_text" validate:"notblank,max=20000"`
	TargetModel string `json:"target_model" validate:"notblank,max=100,modelid"`
	Detailed    bool   `json:"detailed_analysis"`
	APIKey      string `json:"api_key,omitempty" validate:"max=512"`
}

// Response is the outcome of Analyze.
type Response struct {
	OverallScore    float64                `json:"overall_score"`
	Scores          map[string]float64     `json:"scores"`
	Strengths       []string               `json:"strengths"`
	Weaknesses      []string               `json:"weaknesses"`
	Suggestions     []optimizer.Suggestion `json:"suggestions"`
	OptimizedPrompt string                 `json:"optimized_prompt"`

	// Detailed reports whether a provider critique was merged in. Notice
	// says why not, when one was asked for.
	Detailed  bool   `json:"detailed"`
	Notice    string `json:"notice,omitempty"`
	LLMPrompt string `json:"llm_prompt,omitempty"`
	Provider  string `json:"provider,omitempty"`
	Model     string `json:"model,omitempty"`
}

// Inspector runs analyses. It is safe for concurrent use; its only mutable
// state is the per-provider queues.
type Inspector struct {
	cfg            *Config
	logger         utils.Logger
	analyzer       *analyzer.Analyzer
	optimizer      *optimizer.Optimizer
	limiter        *ratelimit.Manager
	adapter        *refine.Adapter
	maxSuggestions int
}

type inspectorOptions struct {
	logger     utils.Logger
	registry   *providers.ProviderRegistry
	httpClient *http.Client
	registerer prometheus.Registerer
}

type Option func(*inspectorOptions)

func WithLogger(logger utils.Logger) Option {
	return func(o *inspectorOptions) {
		o.logger = logger
	}
}

// WithProviderRegistry replaces the providers detailed analysis can use.
func WithProviderRegistry(registry *providers.ProviderRegistry) Option {
	return func(o *inspectorOptions) {
		o.registry = registry
	}
}

// WithHTTPClient sets the client used for provider calls.
func WithHTTPClient(client *http.Client) Option {
	return func(o *inspectorOptions) {
		o.httpClient = client
	}
}

// WithMetrics registers the queue metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *inspectorOptions) {
		o.registerer = reg
	}
}

// New builds an Inspector from cfg. The provider queues are created here and
// live as long as the Inspector.
func New(cfg *Config, opts ...Option) (*Inspector, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &inspectorOptions{logger: cfg.Logger}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = utils.NewLoggerTo(os.Stderr, cfg.LogLevel, cfg.LogJSON)
	}

	a := analyzer.New(analyzer.Thresholds{
		Strong: cfg.Analysis.StrongThreshold,
		Weak:   cfg.Analysis.WeakThreshold,
	})
	limiter := ratelimit.NewManager(cfg,
		ratelimit.WithLogger(o.logger),
		ratelimit.WithMetrics(ratelimit.NewMetrics(o.registerer)))

	if o.registry == nil {
		o.registry = providers.NewProviderRegistry()
	}
	if !o.registry.Has(cfg.Provider) {
		return nil, fmt.Errorf("unknown default provider %q, expected one of: %s",
			cfg.Provider, strings.Join(o.registry.Names(), ", "))
	}

	adapterOpts := []refine.AdapterOption{refine.WithLogger(o.logger), refine.WithRegistry(o.registry)}
	if o.httpClient != nil {
		adapterOpts = append(adapterOpts, refine.WithHTTPClient(o.httpClient))
	}

	return &Inspector{
		cfg:            cfg,
		logger:         o.logger,
		analyzer:       a,
		optimizer:      optimizer.New(a, optimizer.WithMaxSuggestions(cfg.Analysis.MaxSuggestions), optimizer.WithLogger(o.logger)),
		limiter:        limiter,
		adapter:        refine.New(cfg, limiter, a, adapterOpts...),
		maxSuggestions: cfg.Analysis.MaxSuggestions,
	}, nil
}

// Analyze scores req's prompt and derives the optimized prompt.
//
// Errors are llm.LLMErrors: ErrorTypeInvalidInput for a bad request,
// ErrorTypeRateLimit when the provider's queue turned the request away and
// ErrorTypeInvariant for an internal fault. A caller that gives up gets
// ctx.Err(). Any other provider failure is reported in Response.Notice.
func (in *Inspector) Analyze(ctx context.Context, req Request) (*Response, error) {
	if err := Validate(&req); err != nil {
		return nil, err
	}

	analysis := in.analyzer.Analyze(req.Text)
	resp := &Response{}

	var refinement *refine.Refinement
	if req.Detailed {
		r, err := in.adapter.Refine(ctx, req.Text, req.TargetModel, analysis, req.APIKey)
		switch {
		case err == nil:
			refinement = r
			analysis = r.Analysis
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case llm.IsRecoverable(err):
			in.logger.Warn("Falling back to rule-based analysis", "target_model", req.TargetModel, "error", err)
			resp.Notice = notice(err)
		default:
			return nil, err
		}
	}

	if err := analysis.Check(); err != nil {
		in.logger.Error("Analysis failed its own checks", "error", err)
		return nil, llm.NewLLMError(llm.ErrorTypeInvariant, "internal analysis error", err)
	}

	result := in.optimizer.Optimize(req.Text, analysis)
	if refinement != nil {
		result.AppendSuggestions(refinement.Suggestions, in.maxSuggestions)
		resp.Detailed = true
		resp.LLMPrompt = refinement.ImprovedPrompt
		resp.Provider = refinement.Provider
		resp.Model = refinement.Model
	}

	resp.OverallScore = analysis.OverallScore
	resp.Scores = analysis.Scores
	resp.Strengths = analysis.Strengths
	resp.Weaknesses = analysis.Weaknesses
	resp.Suggestions = result.Suggestions
	if resp.Suggestions == nil {
		resp.Suggestions = []optimizer.Suggestion{}
	}
	resp.OptimizedPrompt = result.OptimizedPrompt

	in.logger.Debug("Prompt analyzed",
		"overall_score", resp.OverallScore, "weaknesses", len(resp.Weaknesses),
		"suggestions", len(resp.Suggestions), "detailed", resp.Detailed)
	return resp, nil
}

func notice(err error) string {
	switch {
	case errors.Is(err, refine.ErrNoAPIKey):
		return "Detailed analysis needs an API key for the selected model; showing rule-based results."
	case llm.IsType(err, llm.ErrorTypeAuthentication):
		return "The provider rejected the API key; showing rule-based results."
	case llm.IsType(err, llm.ErrorTypeTimeout):
		return "The provider did not answer in time; showing rule-based results."
	case llm.IsType(err, llm.ErrorTypeResponse):
		return "The provider's answer could not be read; showing rule-based results."
	}
	return "Detailed analysis is unavailable right now; showing rule-based results."
}

// Dimensions returns the catalogue the Inspector scores against.
func (in *Inspector) Dimensions() []dimension.Definition {
	return dimension.List()
}

// QueueStats snapshots the provider queues created so far.
func (in *Inspector) QueueStats() []ratelimit.Stats {
	return in.limiter.Stats()
}

// Config returns the configuration the Inspector was built with.
func (in *Inspector) Config() *Config {
	return in.cfg
}
