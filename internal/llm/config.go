package llm

import (
	"fmt"
	"os"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config selects and configures one provider.
type Config struct {
	Provider string

	Anthropic  VendorConfig
	OpenAI     VendorConfig
	Gemini     VendorConfig
	OpenRouter VendorConfig
	Retry      RetryConfig

	// Timeout bounds one Generate call including retries.
	Timeout time.Duration
}

// VendorConfig holds credentials and model selection for one vendor.
// BaseURL is only honoured by the OpenAI-compatible vendors.
type VendorConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig controls backoff for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig targets Gemini Flash, which the game was tuned against.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderGemini,
		Anthropic:  VendorConfig{Model: "claude-haiku"},
		OpenAI:     VendorConfig{Model: "gpt-4o-mini"},
		Gemini:     VendorConfig{Model: "gemini-flash"},
		OpenRouter: VendorConfig{Model: "google/gemini-2.0-flash-001", BaseURL: defaultOpenRouterBaseURL},
		Retry: RetryConfig{
			MaxAttempts: 2,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     4 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 20 * time.Second,
	}
}

// Vendor returns the settings for the selected provider.
func (c *Config) Vendor() *VendorConfig {
	switch c.Provider {
	case ProviderAnthropic:
		return &c.Anthropic
	case ProviderOpenAI:
		return &c.OpenAI
	case ProviderGemini:
		return &c.Gemini
	case ProviderOpenRouter:
		return &c.OpenRouter
	}
	return nil
}

// ConfigFromEnv reads MEDSIM_* variables over the defaults. Vendor keys
// fall back to the vendors' standard variable names.
//
//	MEDSIM_LLM_PROVIDER   anthropic|openai|gemini|openrouter|mock
//	MEDSIM_LLM_MODEL      model alias or id for the selected provider
//	MEDSIM_LLM_BASE_URL   override for OpenAI-compatible endpoints
//	MEDSIM_LLM_TIMEOUT    Go duration, e.g. 15s
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if p := os.Getenv("MEDSIM_LLM_PROVIDER"); p != "" {
		cfg.Provider = p
	}

	cfg.Anthropic.APIKey = firstEnv("MEDSIM_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	cfg.OpenAI.APIKey = firstEnv("MEDSIM_OPENAI_API_KEY", "OPENAI_API_KEY")
	cfg.Gemini.APIKey = firstEnv("MEDSIM_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY")
	cfg.OpenRouter.APIKey = firstEnv("MEDSIM_OPENROUTER_API_KEY", "OPENROUTER_API_KEY")

	if v := cfg.Vendor(); v != nil {
		if m := os.Getenv("MEDSIM_LLM_MODEL"); m != "" {
			v.Model = m
		}
		if u := os.Getenv("MEDSIM_LLM_BASE_URL"); u != "" {
			v.BaseURL = u
		}
	}
	if t := os.Getenv("MEDSIM_LLM_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	return cfg
}

// DiscoverConfig picks the first vendor with an API key in the environment,
// probing Gemini, OpenAI, Anthropic, then OpenRouter.
func DiscoverConfig() (Config, bool) {
	cfg := ConfigFromEnv()
	for _, p := range []string{ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderOpenRouter} {
		cfg.Provider = p
		if cfg.Vendor().APIKey != "" {
			return cfg, true
		}
	}
	return Config{}, false
}

// Validate checks that the selected provider can be constructed.
func (c Config) Validate() error {
	if c.Provider == ProviderMock {
		return nil
	}
	v := c.Vendor()
	if v == nil {
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if v.APIKey == "" {
		return fmt.Errorf("an API key is required for the %s provider", c.Provider)
	}
	return nil
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}
