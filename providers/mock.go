package providers

import (
	"encoding/json"
	"errors"
	"maps"
	"sync"

	"github.com/guiperry/promptinspector/config"
	"github.com/guiperry/promptinspector/utils"
)

// MockProvider implements the Provider interface for tests. It sends a small
// JSON body to its endpoint and ignores whatever comes back, answering
// instead from a configured queue of responses.
type MockProvider struct {
	mu           sync.Mutex
	endpoint     string
	model        string
	extraHeaders map[string]string
	options      map[string]any
	logger       utils.Logger

	responseText  string
	shouldError   bool
	errorMsg      string
	responses     []string
	currentIndex  int
	loopResponses bool
	prompts       []string
}

// NewMockProvider creates a new mock provider instance for testing.
func NewMockProvider(endpoint, model string, extraHeaders map[string]string) *MockProvider {
	if extraHeaders == nil {
		extraHeaders = make(map[string]string)
	}
	return &MockProvider{
		endpoint:     endpoint,
		model:        model,
		extraHeaders: extraHeaders,
		options:      make(map[string]any),
		logger:       utils.NewNopLogger(),
		responseText: "This is a mock response",
	}
}

// SetMockResponse configures the response returned when no queue is set.
func (p *MockProvider) SetMockResponse(response string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responseText = response
}

// SetMockError makes PrepareRequest and ParseResponse fail with errorMsg.
func (p *MockProvider) SetMockError(shouldError bool, errorMsg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shouldError = shouldError
	p.errorMsg = errorMsg
}

// SetResponses configures a list of responses to be returned in sequence
func (p *MockProvider) SetResponses(responses []string, loop bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses = responses
	p.currentIndex = 0
	p.loopResponses = loop
}

// Prompts returns every prompt passed to PrepareRequest so far.
func (p *MockProvider) Prompts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.prompts...)
}

func (p *MockProvider) SetLogger(logger utils.Logger) { p.logger = logger }
func (p *MockProvider) Name() string                  { return "mock" }
func (p *MockProvider) Model() string                 { return p.model }
func (p *MockProvider) Endpoint() string              { return p.endpoint }
func (p *MockProvider) SetEndpoint(endpoint string)   { p.endpoint = endpoint }
func (p *MockProvider) SupportsJSONSchema() bool      { return true }

func (p *MockProvider) SetOption(key string, value any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.options[key] = value
}

func (p *MockProvider) SetExtraHeaders(headers map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.extraHeaders = headers
}

func (p *MockProvider) SetDefaultOptions(cfg *config.Config) {
	p.SetOption("temperature", cfg.Temperature)
	p.SetOption("max_tokens", cfg.MaxTokens)
}

func (p *MockProvider) Headers() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	headers := map[string]string{"Content-Type": "application/json"}
	maps.Copy(headers, p.extraHeaders)
	return headers
}

func (p *MockProvider) PrepareRequest(prompt string, options map[string]any) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.shouldError {
		return nil, errors.New(p.errorMsg)
	}
	p.prompts = append(p.prompts, prompt)

	requestBody := make(map[string]any)
	mergeOptions(requestBody, p.options, options)
	requestBody["model"] = p.model
	requestBody["prompt"] = prompt
	return json.Marshal(requestBody)
}

func (p *MockProvider) PrepareRequestWithSchema(prompt string, options map[string]any, _ any) ([]byte, error) {
	return p.PrepareRequest(prompt, options)
}

func (p *MockProvider) ParseResponse(_ []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.shouldError {
		return "", errors.New(p.errorMsg)
	}
	return p.nextResponse()
}

func (p *MockProvider) nextResponse() (string, error) {
	if len(p.responses) == 0 {
		return p.responseText, nil
	}
	if p.currentIndex >= len(p.responses) {
		if !p.loopResponses {
			return "", errors.New("mock responses exhausted")
		}
		p.currentIndex = 0
	}
	response := p.responses[p.currentIndex]
	p.currentIndex++
	return response, nil
}
