package llm

import "fmt"

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

var openrouterAliases = map[string]string{
	"gemini-flash": "google/gemini-2.0-flash-001",
	"claude-haiku": "anthropic/claude-haiku-4.5",
}

// OpenRouterProvider reuses the OpenAI client against OpenRouter's
// compatible endpoint.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider builds a client for cfg.
func NewOpenRouterProvider(cfg VendorConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenRouterBaseURL
	}
	return &OpenRouterProvider{OpenAIProvider: newOpenAIProviderRaw(cfg, openrouterAliases)}, nil
}
