package providers

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"

	"github.com/guiperry/promptinspector/config"
	"github.com/guiperry/promptinspector/utils"
)

const (
	openAIEndpoint     = "https://api.openai.com/v1/chat/completions"
	OpenAIDefaultModel = "gpt-4o-mini"
	schemaName         = "prompt_critique"
)

// OpenAIProvider implements the Provider interface for OpenAI's chat
// completions API. OpenRouter speaks the same protocol and reuses it.
type OpenAIProvider struct {
	name         string
	apiKey       string
	model        string
	endpoint     string
	extraHeaders map[string]string
	options      map[string]any
	logger       utils.Logger
}

// NewOpenAIProvider creates a new OpenAI provider instance
func NewOpenAIProvider(apiKey, model string, extraHeaders map[string]string) *OpenAIProvider {
	return newChatCompletions("openai", openAIEndpoint, apiKey, model, extraHeaders)
}

func newChatCompletions(name, endpoint, apiKey, model string, extraHeaders map[string]string) *OpenAIProvider {
	if extraHeaders == nil {
		extraHeaders = make(map[string]string)
	}
	return &OpenAIProvider{
		name:         name,
		apiKey:       apiKey,
		model:        model,
		endpoint:     endpoint,
		extraHeaders: extraHeaders,
		options:      make(map[string]any),
		logger:       utils.NewNopLogger(),
	}
}

func (p *OpenAIProvider) Name() string                  { return p.name }
func (p *OpenAIProvider) Model() string                 { return p.model }
func (p *OpenAIProvider) Endpoint() string              { return p.endpoint }
func (p *OpenAIProvider) SetEndpoint(endpoint string)   { p.endpoint = endpoint }
func (p *OpenAIProvider) SetLogger(logger utils.Logger) { p.logger = logger }
func (p *OpenAIProvider) SupportsJSONSchema() bool      { return true }

// SetOption sets a specific option for the provider
func (p *OpenAIProvider) SetOption(key string, value any) {
	p.options[key] = value
	p.logger.Debug("Option set", "provider", p.name, "key", key)
}

// SetDefaultOptions sets default options based on the provided configuration
func (p *OpenAIProvider) SetDefaultOptions(cfg *config.Config) {
	p.SetOption("temperature", cfg.Temperature)
	p.SetOption(p.maxTokensKey(), cfg.MaxTokens)
}

// SetExtraHeaders sets additional headers for the API request
func (p *OpenAIProvider) SetExtraHeaders(extraHeaders map[string]string) {
	p.extraHeaders = extraHeaders
}

// Headers returns the necessary headers for API requests
func (p *OpenAIProvider) Headers() map[string]string {
	headers := map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + p.apiKey,
	}
	maps.Copy(headers, p.extraHeaders)
	return headers
}

// needsMaxCompletionTokens reports whether the model rejects max_tokens in
// favour of max_completion_tokens.
func (p *OpenAIProvider) needsMaxCompletionTokens() bool {
	if p.name != "openai" {
		return false
	}
	m := strings.ToLower(p.model)
	return strings.HasPrefix(m, "o1") || strings.HasPrefix(m, "o3") || strings.HasPrefix(m, "o4") ||
		strings.HasPrefix(m, "gpt-4o") || strings.HasPrefix(m, "gpt-5")
}

func (p *OpenAIProvider) maxTokensKey() string {
	if p.needsMaxCompletionTokens() {
		return "max_completion_tokens"
	}
	return "max_tokens"
}

// PrepareRequest prepares the request body for the API call
func (p *OpenAIProvider) PrepareRequest(prompt string, options map[string]any) ([]byte, error) {
	request := p.baseRequest(prompt, options)
	return p.marshal(request)
}

// PrepareRequestWithSchema asks for a json_schema response format.
func (p *OpenAIProvider) PrepareRequestWithSchema(prompt string, options map[string]any, schema any) ([]byte, error) {
	request := p.baseRequest(prompt, options)
	request["response_format"] = map[string]any{
		"type": "json_schema",
		"json_schema": map[string]any{
			"name":   schemaName,
			"schema": schema,
		},
	}
	return p.marshal(request)
}

func (p *OpenAIProvider) baseRequest(prompt string, options map[string]any) map[string]any {
	messages := make([]map[string]string, 0, 2)
	if sp := systemPrompt(options); sp != "" {
		messages = append(messages, map[string]string{"role": "system", "content": sp})
	}
	messages = append(messages, map[string]string{"role": "user", "content": prompt})

	request := make(map[string]any)
	mergeOptions(request, p.options, options, "system_prompt")
	if mt, ok := request["max_tokens"]; ok && p.needsMaxCompletionTokens() {
		delete(request, "max_tokens")
		request["max_completion_tokens"] = mt
	}
	request["model"] = p.model
	request["messages"] = messages
	return request
}

func (p *OpenAIProvider) marshal(request map[string]any) ([]byte, error) {
	reqJSON, err := json.Marshal(request)
	if err != nil {
		p.logger.Error("Failed to marshal request", "provider", p.name, "error", err)
		return nil, err
	}
	p.logger.Debug("Request prepared", "provider", p.name, "bytes", len(reqJSON))
	return reqJSON, nil
}

// ParseResponse extracts the first choice's message content.
func (p *OpenAIProvider) ParseResponse(body []byte) (string, error) {
	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	if response.Error != nil {
		return "", fmt.Errorf("provider returned an error: %s", response.Error.Message)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("empty response from API")
	}
	return response.Choices[0].Message.Content, nil
}
