package llm

import (
	"context"
	"fmt"
	"os"
)

// NewProvider builds the configured provider wrapped as
// timeout → retry → journal → vendor. journal may be nil.
func NewProvider(ctx context.Context, cfg Config, journal Journal) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderMock:
		base = NewMockProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	p := base
	if journal != nil {
		p = WithJournal(p, cfg.Provider, journal)
	}
	p = WithRetry(p, cfg.Retry)
	return WithTimeout(p, cfg.Timeout), nil
}

// NewProviderFromEnv honours MEDSIM_LLM_PROVIDER when set and otherwise
// discovers a vendor from the standard API key variables. It returns
// ErrNotConfigured when neither yields a provider.
func NewProviderFromEnv(ctx context.Context, journal Journal) (Provider, error) {
	cfg, ok := ConfigFromEnv(), os.Getenv("MEDSIM_LLM_PROVIDER") != ""
	if !ok {
		cfg, ok = DiscoverConfig()
	}
	if !ok {
		return nil, ErrNotConfigured
	}
	return NewProvider(ctx, cfg, journal)
}
