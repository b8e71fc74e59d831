package llm

import (
	"fmt"
	"os"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderUpstage   = "upstage"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderMock      = "mock"
)

// DefaultUpstageBaseURL is the OpenAI-compatible Solar endpoint root; the
// SDK appends /chat/completions.
const DefaultUpstageBaseURL = "https://api.upstage.ai/v1/solar"

// Config selects and configures the chat-completion provider.
type Config struct {
	// Provider selects which chat provider to use.
	// Values: "upstage", "openai", "anthropic", "gemini", "mock"
	Provider string `yaml:"provider"`

	Upstage   OpenAIConfig    `yaml:"upstage"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Gemini    GeminiConfig    `yaml:"gemini"`

	// Timeout bounds a single chat call. Default: 120s.
	Timeout time.Duration `yaml:"timeout"`
}

// OpenAIConfig configures any OpenAI-compatible endpoint, Upstage Solar
// included.
type OpenAIConfig struct {
	APIKey  string `yaml:"-"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey    string `yaml:"-"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string `yaml:"-"`
	Model  string `yaml:"model"`
}

// DefaultConfig returns a Config targeting Upstage Solar.
func DefaultConfig() Config {
	return Config{
		Provider: ProviderUpstage,
		Upstage: OpenAIConfig{
			Model:   "solar-pro",
			BaseURL: DefaultUpstageBaseURL,
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Anthropic: AnthropicConfig{
			Model:     "claude-haiku",
			MaxTokens: 4096,
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		Timeout: 120 * time.Second,
	}
}

// ApplyEnvKeys fills provider credentials from the process environment.
// Only the credential variables are read; everything else comes from the
// config file.
func (c *Config) ApplyEnvKeys() {
	if k := os.Getenv("UPSTAGE_API_KEY"); k != "" {
		c.Upstage.APIKey = k
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		c.OpenAI.APIKey = k
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		c.Anthropic.APIKey = k
	}
	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		c.Gemini.APIKey = k
	}
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderUpstage:
		if c.Upstage.APIKey == "" {
			return fmt.Errorf("UPSTAGE_API_KEY is required for the upstage provider")
		}
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
	case ProviderAnthropic:
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
	case ProviderMock:
		// No API key needed.
	default:
		return fmt.Errorf("unknown chat provider: %q", c.Provider)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("chat timeout must not be negative")
	}
	return nil
}
