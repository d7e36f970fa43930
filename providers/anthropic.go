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
	anthropicEndpoint     = "https://api.anthropic.com/v1/messages"
	anthropicVersion      = "2023-06-01"
	AnthropicDefaultModel = "claude-3-5-haiku-latest"
	// The messages API requires max_tokens on every request.
	anthropicMaxTokens = 1000
)

// AnthropicProvider implements the Provider interface for Anthropic's
// messages API.
type AnthropicProvider struct {
	apiKey       string
	model        string
	endpoint     string
	extraHeaders map[string]string
	options      map[string]any
	logger       utils.Logger
}

func NewAnthropicProvider(apiKey, model string, extraHeaders map[string]string) *AnthropicProvider {
	if extraHeaders == nil {
		extraHeaders = make(map[string]string)
	}
	if model == "" {
		model = AnthropicDefaultModel
	}
	return &AnthropicProvider{
		apiKey:       apiKey,
		model:        model,
		endpoint:     anthropicEndpoint,
		extraHeaders: extraHeaders,
		options:      make(map[string]any),
		logger:       utils.NewNopLogger(),
	}
}

func (p *AnthropicProvider) Name() string                  { return "anthropic" }
func (p *AnthropicProvider) Model() string                 { return p.model }
func (p *AnthropicProvider) Endpoint() string              { return p.endpoint }
func (p *AnthropicProvider) SetEndpoint(endpoint string)   { p.endpoint = endpoint }
func (p *AnthropicProvider) SetLogger(logger utils.Logger) { p.logger = logger }
func (p *AnthropicProvider) SupportsJSONSchema() bool      { return false }

func (p *AnthropicProvider) SetOption(key string, value any) {
	p.options[key] = value
}

func (p *AnthropicProvider) SetDefaultOptions(cfg *config.Config) {
	p.SetOption("temperature", cfg.Temperature)
	p.SetOption("max_tokens", cfg.MaxTokens)
}

func (p *AnthropicProvider) SetExtraHeaders(headers map[string]string) {
	p.extraHeaders = headers
}

func (p *AnthropicProvider) Headers() map[string]string {
	headers := map[string]string{
		"Content-Type":      "application/json",
		"x-api-key":         p.apiKey,
		"anthropic-version": anthropicVersion,
	}
	maps.Copy(headers, p.extraHeaders)
	return headers
}

func (p *AnthropicProvider) PrepareRequest(prompt string, options map[string]any) ([]byte, error) {
	requestBody := make(map[string]any)
	mergeOptions(requestBody, p.options, options, "system_prompt")
	if _, ok := requestBody["max_tokens"]; !ok {
		requestBody["max_tokens"] = anthropicMaxTokens
	}
	if sp := systemPrompt(options); sp != "" {
		requestBody["system"] = sp
	}
	requestBody["model"] = p.model
	requestBody["messages"] = []map[string]any{
		{
			"role": "user",
			"content": []map[string]any{
				{"type": "text", "text": prompt},
			},
		},
	}
	return json.Marshal(requestBody)
}

// PrepareRequestWithSchema embeds the schema in the prompt, since the
// messages API has no response_format.
func (p *AnthropicProvider) PrepareRequestWithSchema(prompt string, options map[string]any, schema any) ([]byte, error) {
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\nRespond only with a JSON object that matches this schema:\n")
	b.Write(schemaJSON)
	return p.PrepareRequest(b.String(), options)
}

// ParseResponse concatenates the text blocks of the reply.
func (p *AnthropicProvider) ParseResponse(body []byte) (string, error) {
	var response struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content"`
		Error *struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	if response.Error != nil {
		return "", fmt.Errorf("provider returned %s: %s", response.Error.Type, response.Error.Message)
	}

	var text strings.Builder
	for _, content := range response.Content {
		if content.Type == "text" {
			text.WriteString(content.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty response from LLM")
	}
	p.logger.Debug("Response parsed", "provider", "anthropic", "chars", text.Len())
	return text.String(), nil
}
