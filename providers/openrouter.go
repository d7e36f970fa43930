package providers

import "maps"

const (
	openRouterEndpoint = "https://openrouter.ai/api/v1/chat/completions"
	// OpenRouterDefaultModel is a free model, so detailed analysis works with
	// a fresh OpenRouter key.
	OpenRouterDefaultModel = "meta-llama/llama-3.3-8b-instruct:free"
)

// OpenRouterProvider routes chat completions through OpenRouter, which
// exposes many upstream models behind the OpenAI protocol.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider creates a new OpenRouter provider instance. OpenRouter
// asks callers to identify themselves with HTTP-Referer and X-Title.
func NewOpenRouterProvider(apiKey, model string, extraHeaders map[string]string) *OpenRouterProvider {
	headers := map[string]string{
		"HTTP-Referer": "https://github.com/guiperry/promptinspector",
		"X-Title":      "Prompt Inspector",
	}
	maps.Copy(headers, extraHeaders)
	if model == "" {
		model = OpenRouterDefaultModel
	}
	return &OpenRouterProvider{
		OpenAIProvider: newChatCompletions("openrouter", openRouterEndpoint, apiKey, model, headers),
	}
}
