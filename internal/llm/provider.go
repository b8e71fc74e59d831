package llm

import (
	"context"
)

// Provider is the core abstraction for chat-completion calls.
// Consumers call Generate with a Request and receive the assistant's text.
type Provider interface {
	// Generate sends a prompt to the model and returns its reply.
	// A Request.Model override, when set, replaces the provider default for
	// this call only.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the default model identifier this provider uses.
	ModelID() string

	// Name returns the provider name recorded with each call ("upstage",
	// "openai", "anthropic", "gemini", "mock").
	Name() string
}

// Request describes what to send to the model.
type Request struct {
	// System is the system prompt. Sets the model's role and constraints.
	System string

	// Messages is the conversation history. Every call in doc2plan is
	// single-turn, so this holds one user message.
	Messages []Message

	// Model overrides the provider's default model when non-empty.
	Model string

	// MaxTokens caps the reply length. Zero leaves it to the provider.
	MaxTokens int

	// Temperature controls randomness, within (0, 1]. Zero leaves it to
	// the provider default.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema describes the JSON structure expected from an extraction.
type Schema struct {
	// Name identifies this schema, e.g. "assignment".
	Name string

	// Description is a human-readable description of what this schema
	// represents.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the model's output.
type Response struct {
	// Content is the assistant reply text, exactly as returned.
	Content string

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "max_tokens"
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// UserRequest builds the two-message request used by every chat call: a
// system instruction plus one user turn.
func UserRequest(system, user, model string, temperature float64) Request {
	return Request{
		System:      system,
		Messages:    []Message{{Role: RoleUser, Content: user}},
		Model:       model,
		Temperature: temperature,
	}
}
