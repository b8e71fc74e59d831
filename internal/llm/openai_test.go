package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := openai.DefaultConfig("test-key")
	config.BaseURL = server.URL + "/v1/solar"
	client := openai.NewClientWithConfig(config)

	return &OpenAIProvider{
		client: client,
		model:  "solar-pro",
		name:   ProviderUpstage,
	}
}

func writeChatCompletion(w http.ResponseWriter, model, content string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1234567890,
		"model":   model,
		"choices": []map[string]any{
			{
				"index": 0,
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     40,
			"completion_tokens": 25,
			"total_tokens":      65,
		},
	})
}

func TestOpenAIProvider_HappyPath(t *testing.T) {
	var gotPath string
	var gotBody openai.ChatCompletionRequest
	handler := func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		writeChatCompletion(w, "solar-pro", "1주차: 요구사항 정리")
	}

	p := newTestOpenAIProvider(t, handler)
	resp, err := p.Generate(context.Background(), UserRequest("너는 코치다.", "계획을 세워줘", "", 0.3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/v1/solar/chat/completions" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotBody.Model != "solar-pro" {
		t.Fatalf("expected model solar-pro, got %q", gotBody.Model)
	}
	if len(gotBody.Messages) != 2 || gotBody.Messages[0].Role != "system" || gotBody.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages: %+v", gotBody.Messages)
	}
	if resp.Content != "1주차: 요구사항 정리" {
		t.Fatalf("unexpected content %q", resp.Content)
	}
	if resp.Usage.InputTokens != 40 {
		t.Fatalf("expected 40 input tokens, got %d", resp.Usage.InputTokens)
	}
	if resp.Usage.OutputTokens != 25 {
		t.Fatalf("expected 25 output tokens, got %d", resp.Usage.OutputTokens)
	}
	if resp.StopReason != "end" {
		t.Fatalf("expected stop reason 'end', got %q", resp.StopReason)
	}
}

func TestOpenAIProvider_ModelOverride(t *testing.T) {
	var gotModel string
	handler := func(w http.ResponseWriter, r *http.Request) {
		var body openai.ChatCompletionRequest
		json.NewDecoder(r.Body).Decode(&body)
		gotModel = body.Model
		writeChatCompletion(w, body.Model, "{}")
	}

	p := newTestOpenAIProvider(t, handler)
	resp, err := p.Generate(context.Background(), UserRequest("", "x", "solar-mini", 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotModel != "solar-mini" {
		t.Fatalf("expected override model solar-mini, got %q", gotModel)
	}
	if resp.Model != "solar-mini" {
		t.Fatalf("expected response model solar-mini, got %q", resp.Model)
	}
}

func TestOpenAIProvider_ServiceError(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"type":    "invalid_request_error",
				"message": "model not supported",
			},
		})
	}

	p := newTestOpenAIProvider(t, handler)
	_, err := p.Generate(context.Background(), UserRequest("", "test", "", 0))
	if err == nil {
		t.Fatal("expected error")
	}
	var svc *ErrService
	if !errors.As(err, &svc) {
		t.Fatalf("expected ErrService, got: %T (%v)", err, err)
	}
	if svc.Status != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", svc.Status)
	}
	if svc.Body != "model not supported" {
		t.Fatalf("unexpected body %q", svc.Body)
	}
	if !IsRemoteFailure(err) {
		t.Fatal("expected service error to count as a remote failure")
	}
}

func TestOpenAIProvider_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	config := openai.DefaultConfig("test-key")
	config.BaseURL = url + "/v1/solar"
	p := &OpenAIProvider{client: openai.NewClientWithConfig(config), model: "solar-pro", name: ProviderUpstage}

	_, err := p.Generate(context.Background(), UserRequest("", "test", "", 0))
	var tr *ErrTransport
	if !errors.As(err, &tr) {
		t.Fatalf("expected ErrTransport, got: %T (%v)", err, err)
	}
}

func TestOpenAIProvider_CanceledPassesThrough(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		writeChatCompletion(w, "solar-pro", "late")
	}
	p := newTestOpenAIProvider(t, handler)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Generate(ctx, UserRequest("", "test", "", 0))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got: %v", err)
	}
	if IsRemoteFailure(err) {
		t.Fatal("cancellation must not be treated as a remote failure")
	}
}

func TestOpenAIProvider_NoChoices(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"model":   "solar-pro",
			"choices": []any{},
		})
	}

	p := newTestOpenAIProvider(t, handler)
	_, err := p.Generate(context.Background(), UserRequest("", "test", "", 0))
	var mal *ErrMalformedResult
	if !errors.As(err, &mal) {
		t.Fatalf("expected ErrMalformedResult, got: %T (%v)", err, err)
	}
}

func TestNewUpstageProvider_Defaults(t *testing.T) {
	p, err := NewUpstageProvider(OpenAIConfig{APIKey: "k", Model: "solar-pro"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != ProviderUpstage {
		t.Fatalf("expected name upstage, got %q", p.Name())
	}
	if p.ModelID() != "solar-pro" {
		t.Fatalf("expected 'solar-pro', got %q", p.ModelID())
	}

	if _, err := NewUpstageProvider(OpenAIConfig{}); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestOpenAIModelMapping(t *testing.T) {
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "gpt-4o-mini" {
		t.Fatalf("expected 'gpt-4o-mini', got %q", p.ModelID())
	}
	if p.Name() != ProviderOpenAI {
		t.Fatalf("expected name openai, got %q", p.Name())
	}
}
