// Package providers adapts the public chat APIs of the supported LLM services
// to the single request/response shape the inspector needs: one critique
// prompt in, one text completion out.
package providers

import (
	"github.com/guiperry/promptinspector/config"
	"github.com/guiperry/promptinspector/utils"
)

// Provider defines the interface every LLM service adapter implements.
type Provider interface {
	Name() string
	Model() string
	Endpoint() string
	// SetEndpoint overrides the service URL, for proxies and tests.
	SetEndpoint(endpoint string)
	Headers() map[string]string
	SetExtraHeaders(extraHeaders map[string]string)
	SetDefaultOptions(cfg *config.Config)
	SetOption(key string, value any)
	SetLogger(logger utils.Logger)

	// PrepareRequest builds the request body. The "system_prompt" option, if
	// present, becomes the provider's system message.
	PrepareRequest(prompt string, options map[string]any) ([]byte, error)
	// PrepareRequestWithSchema is PrepareRequest plus a JSON schema the
	// response should follow. Providers without native support describe the
	// schema in the prompt instead.
	PrepareRequestWithSchema(prompt string, options map[string]any, schema any) ([]byte, error)
	ParseResponse(body []byte) (string, error)

	SupportsJSONSchema() bool
}

// ProviderConstructor defines a function type for creating new provider instances.
type ProviderConstructor func(apiKey, model string, extraHeaders map[string]string) Provider

// mergeOptions layers request options over the provider defaults, dropping
// keys the caller handles separately.
func mergeOptions(request, defaults, options map[string]any, skip ...string) {
	for k, v := range defaults {
		request[k] = v
	}
	for k, v := range options {
		request[k] = v
	}
	for _, k := range skip {
		delete(request, k)
	}
}

func systemPrompt(options map[string]any) string {
	sp, _ := options["system_prompt"].(string)
	return sp
}
