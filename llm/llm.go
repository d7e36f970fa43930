package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/guiperry/promptinspector/config"
	"github.com/guiperry/promptinspector/providers"
	"github.com/guiperry/promptinspector/utils"
)

// maxResponseBytes caps how much of a provider reply is read.
const maxResponseBytes = 4 << 20

// LLM sends a single prompt to a provider and returns its text reply.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateWithSchema(ctx context.Context, prompt string, schema any) (string, error)
	SetOption(key string, value any)
	ProviderName() string
	Model() string
}

// LLMImpl implements the LLM interface over net/http.
type LLMImpl struct {
	Provider   providers.Provider
	Options    map[string]any
	MaxRetries int
	RetryDelay time.Duration
	client     *http.Client
	logger     utils.Logger
}

// NewLLM wraps provider with the transport settings of cfg. The provider's
// default options are taken from cfg as well.
func NewLLM(cfg *config.Config, logger utils.Logger, provider providers.Provider) *LLMImpl {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	provider.SetLogger(logger)
	provider.SetDefaultOptions(cfg)
	return &LLMImpl{
		Provider:   provider,
		Options:    make(map[string]any),
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		client:     &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// SetHTTPClient replaces the client used for outbound calls.
func (l *LLMImpl) SetHTTPClient(client *http.Client) {
	l.client = client
}

func (l *LLMImpl) SetOption(key string, value any) {
	l.Options[key] = value
}

func (l *LLMImpl) ProviderName() string { return l.Provider.Name() }
func (l *LLMImpl) Model() string        { return l.Provider.Model() }

// Generate sends prompt and returns the provider's reply.
func (l *LLMImpl) Generate(ctx context.Context, prompt string) (string, error) {
	return l.generate(ctx, func() ([]byte, error) {
		return l.Provider.PrepareRequest(prompt, l.Options)
	})
}

// GenerateWithSchema is Generate with a JSON schema the reply should follow.
func (l *LLMImpl) GenerateWithSchema(ctx context.Context, prompt string, schema any) (string, error) {
	return l.generate(ctx, func() ([]byte, error) {
		return l.Provider.PrepareRequestWithSchema(prompt, l.Options, schema)
	})
}

func (l *LLMImpl) generate(ctx context.Context, prepare func() ([]byte, error)) (string, error) {
	name := l.Provider.Name()
	var lastErr error
	for attempt := 0; attempt <= l.MaxRetries; attempt++ {
		l.logger.Debug("Generating text", "provider", name, "model", l.Provider.Model(), "attempt", attempt+1)

		result, err := l.attemptGenerate(ctx, prepare)
		if err == nil {
			return result, nil
		}
		lastErr = err

		l.logger.Warn("Generation attempt failed", "provider", name, "error", err, "attempt", attempt+1)
		if !retryable(err) {
			break
		}

		if attempt < l.MaxRetries {
			l.logger.Debug("Retrying", "delay", l.RetryDelay)
			if err := l.wait(ctx); err != nil {
				return "", classifyTransport(ctx, err)
			}
		}
	}

	return "", NewLLMError(ErrorTypeProvider, fmt.Sprintf("%s call failed", name), lastErr)
}

func (l *LLMImpl) wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(l.RetryDelay):
		return nil
	}
}

func (l *LLMImpl) attemptGenerate(ctx context.Context, prepare func() ([]byte, error)) (string, error) {
	reqBody, err := prepare()
	if err != nil {
		return "", NewLLMError(ErrorTypeProvider, "failed to prepare request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.Provider.Endpoint(), bytes.NewReader(reqBody))
	if err != nil {
		return "", NewLLMError(ErrorTypeRequest, "failed to create request", err)
	}
	for k, v := range l.Provider.Headers() {
		req.Header.Set(k, v)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return "", classifyTransport(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", NewLLMError(ErrorTypeResponse, "failed to read response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		l.logger.Error("API error", "provider", l.Provider.Name(), "status", resp.StatusCode,
			"body", utils.Truncate(string(body), 200))
		return "", statusError(resp.StatusCode)
	}

	result, err := l.Provider.ParseResponse(body)
	if err != nil {
		return "", NewLLMError(ErrorTypeResponse, "failed to parse response", err)
	}

	l.logger.Debug("Text generated successfully", "provider", l.Provider.Name(), "chars", len(result))
	return result, nil
}

// statusError maps a non-200 reply to the error taxonomy. A provider's own
// 429 is an API error: it is recoverable, unlike exhaustion of our limiter.
func statusError(status int) *LLMError {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewLLMError(ErrorTypeAuthentication, fmt.Sprintf("provider rejected credentials: status code %d", status), nil)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return NewLLMError(ErrorTypeTimeout, fmt.Sprintf("provider timed out: status code %d", status), nil)
	default:
		return NewLLMError(ErrorTypeAPI, fmt.Sprintf("API error: status code %d", status), &StatusError{Code: status})
	}
}

// StatusError carries the HTTP status of a failed provider call.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d %s", e.Code, http.StatusText(e.Code))
}

// classifyTransport turns a failure to complete the round trip into a
// Timeout or Request error. Cancellation stays visible through errors.Is.
func classifyTransport(ctx context.Context, err error) *LLMError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return NewLLMError(ErrorTypeTimeout, "provider call timed out", context.DeadlineExceeded)
	}
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return NewLLMError(ErrorTypeRequest, "provider call cancelled", context.Canceled)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewLLMError(ErrorTypeTimeout, "provider call timed out", err)
	}
	return NewLLMError(ErrorTypeRequest, "failed to send request", err)
}

// retryable reports whether another attempt could succeed: transport
// failures, provider throttling and server errors.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch TypeOf(err) {
	case ErrorTypeRequest:
		return true
	case ErrorTypeAPI:
		var se *StatusError
		if errors.As(err, &se) {
			return se.Code == http.StatusTooManyRequests || se.Code >= 500
		}
	}
	return false
}
