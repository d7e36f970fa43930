package providers

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ProviderRegistry manages the registration and retrieval of LLM providers.
// It is safe for concurrent use.
type ProviderRegistry struct {
	providers map[string]ProviderConstructor
	mutex     sync.RWMutex
}

// NewProviderRegistry creates a new provider registry with the specified providers.
// If no providers are specified, all known providers are registered by default.
func NewProviderRegistry(providerNames ...string) *ProviderRegistry {
	registry := &ProviderRegistry{
		providers: make(map[string]ProviderConstructor),
	}

	knownProviders := getKnownProviders()
	if len(providerNames) == 0 {
		for name, constructor := range knownProviders {
			registry.providers[name] = constructor
		}
		return registry
	}
	for _, name := range providerNames {
		if constructor, ok := knownProviders[name]; ok {
			registry.providers[name] = constructor
		}
	}
	return registry
}

// getKnownProviders returns all known provider constructors
func getKnownProviders() map[string]ProviderConstructor {
	return map[string]ProviderConstructor{
		"openai": func(apiKey, model string, extraHeaders map[string]string) Provider {
			return NewOpenAIProvider(apiKey, model, extraHeaders)
		},
		"anthropic": func(apiKey, model string, extraHeaders map[string]string) Provider {
			return NewAnthropicProvider(apiKey, model, extraHeaders)
		},
		"openrouter": func(apiKey, model string, extraHeaders map[string]string) Provider {
			return NewOpenRouterProvider(apiKey, model, extraHeaders)
		},
	}
}

// Register adds or replaces a provider constructor.
func (pr *ProviderRegistry) Register(name string, constructor ProviderConstructor) {
	pr.mutex.Lock()
	defer pr.mutex.Unlock()
	pr.providers[strings.ToLower(name)] = constructor
}

// Get builds a provider instance by name.
func (pr *ProviderRegistry) Get(name, apiKey, model string, extraHeaders map[string]string) (Provider, error) {
	pr.mutex.RLock()
	constructor, exists := pr.providers[strings.ToLower(name)]
	pr.mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
	return constructor(apiKey, model, extraHeaders), nil
}

// Has reports whether name is registered.
func (pr *ProviderRegistry) Has(name string) bool {
	pr.mutex.RLock()
	defer pr.mutex.RUnlock()
	_, ok := pr.providers[strings.ToLower(name)]
	return ok
}

// Names lists the registered providers in sorted order.
func (pr *ProviderRegistry) Names() []string {
	pr.mutex.RLock()
	defer pr.mutex.RUnlock()
	names := make([]string, 0, len(pr.providers))
	for name := range pr.providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
