// Package config provides application configuration.
//
// Defaults are overlaid by an optional YAML file. Credentials are never read
// from the file; they come from the process environment (a .env file is
// loaded into it by the CLI before Load runs).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Jiyoung0219/doc2plan-coach/internal/llm"
)

// Upstage document-AI endpoints.
const (
	DefaultParseURL     = "https://api.upstage.ai/v1/document-ai/document-parse"
	DefaultExtractURL   = "https://api.upstage.ai/v1/solar/chat/completions"
	DefaultExtractModel = "information-extract"

	// DefaultFallbackModel is the Upstage Solar model used for chat
	// extraction when the chat provider is Upstage.
	DefaultFallbackModel = "solar-pro"
)

// Config holds all application configuration.
type Config struct {
	Upstage Upstage    `yaml:"upstage"`
	Chat    llm.Config `yaml:"chat"`
	Coach   Coach      `yaml:"coach"`
	Server  Server     `yaml:"server"`

	// EventsDB is the SQLite call ledger path. Empty disables the ledger.
	EventsDB string `yaml:"events_db"`
}

// Upstage configures the document parse and structured extraction calls.
type Upstage struct {
	APIKey         string        `yaml:"-"`
	ParseURL       string        `yaml:"parse_url"`
	ExtractURL     string        `yaml:"extract_url"`
	ExtractModel   string        `yaml:"extract_model"`
	ParseTimeout   time.Duration `yaml:"parse_timeout"`
	ExtractTimeout time.Duration `yaml:"extract_timeout"`
}

// Coach configures the orchestration steps.
type Coach struct {
	// ChatModel is used for coaching and review. Empty uses the chat
	// provider's default model.
	ChatModel string `yaml:"chat_model"`

	// FallbackModel is used for chat-based extraction when structured
	// extraction fails. Empty uses the chat provider's default model, except
	// for the upstage provider where it becomes DefaultFallbackModel.
	FallbackModel string `yaml:"fallback_model"`

	// Locale selects prompt and message language: "ko" or "en".
	Locale string `yaml:"locale"`

	Temperature float64 `yaml:"temperature"`
}

// Server configures the HTTP surface.
type Server struct {
	Addr           string        `yaml:"addr"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
	CORSOrigins    []string      `yaml:"cors_origins"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Upstage: Upstage{
			ParseURL:       DefaultParseURL,
			ExtractURL:     DefaultExtractURL,
			ExtractModel:   DefaultExtractModel,
			ParseTimeout:   120 * time.Second,
			ExtractTimeout: 180 * time.Second,
		},
		Chat: llm.DefaultConfig(),
		Coach: Coach{
			Locale:      "ko",
			Temperature: 0.3,
		},
		Server: Server{
			Addr:           ":8080",
			SessionTTL:     60 * time.Minute,
			SweepInterval:  5 * time.Minute,
			MaxUploadBytes: 50 << 20,
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path (skipped
// when path is empty) and the credentials from the environment. The result
// is not validated; commands that reach a remote service call Validate.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv()
	cfg.resolveFallbackModel()
	return cfg, nil
}

// resolveFallbackModel picks the Solar fallback model only when Solar is
// the chat provider. Other providers keep their own default.
func (c *Config) resolveFallbackModel() {
	if c.Coach.FallbackModel == "" && c.Chat.Provider == llm.ProviderUpstage {
		c.Coach.FallbackModel = DefaultFallbackModel
	}
}

// isSolarModel reports whether model names an Upstage Solar model.
func isSolarModel(model string) bool {
	return strings.HasPrefix(strings.ToLower(model), "solar-")
}

// ApplyEnv reads the API credentials. The Upstage key also serves the chat
// provider when that provider is Upstage Solar.
func (c *Config) ApplyEnv() {
	if k := os.Getenv("UPSTAGE_API_KEY"); k != "" {
		c.Upstage.APIKey = k
	}
	c.Chat.ApplyEnvKeys()
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Upstage.APIKey == "" {
		return errors.New("UPSTAGE_API_KEY is missing; set it in the environment or a .env file")
	}
	if c.Upstage.ParseURL == "" || c.Upstage.ExtractURL == "" {
		return errors.New("upstage parse_url and extract_url cannot be empty")
	}
	if c.Upstage.ParseTimeout <= 0 || c.Upstage.ExtractTimeout <= 0 {
		return errors.New("upstage timeouts must be > 0")
	}
	if err := c.Chat.Validate(); err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	switch c.Coach.Locale {
	case "ko", "en":
	default:
		return fmt.Errorf("coach locale must be \"ko\" or \"en\", got %q", c.Coach.Locale)
	}
	// Zero is dropped from OpenAI-compatible requests and would silently
	// become the provider default.
	if c.Coach.Temperature <= 0 || c.Coach.Temperature > 1 {
		return fmt.Errorf("coach temperature must be within (0, 1], got %v", c.Coach.Temperature)
	}
	switch c.Chat.Provider {
	case llm.ProviderUpstage, llm.ProviderMock:
	default:
		if isSolarModel(c.Coach.FallbackModel) {
			return fmt.Errorf("coach fallback_model %q is an Upstage model but chat provider is %q", c.Coach.FallbackModel, c.Chat.Provider)
		}
		if isSolarModel(c.Coach.ChatModel) {
			return fmt.Errorf("coach chat_model %q is an Upstage model but chat provider is %q", c.Coach.ChatModel, c.Chat.Provider)
		}
	}
	if c.Server.MaxUploadBytes <= 0 {
		return errors.New("server max_upload_bytes must be > 0")
	}
	if c.Server.SessionTTL <= 0 {
		return errors.New("server session_ttl must be > 0")
	}
	if c.Server.SweepInterval <= 0 {
		return errors.New("server sweep_interval must be > 0")
	}
	return nil
}
