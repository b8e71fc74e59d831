package llm

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Jiyoung0219/doc2plan-coach/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "calls.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWithLogging_RecordsSuccess(t *testing.T) {
	st := openTestStore(t)
	mock := NewMockProvider(MockResponse{
		Content: "주차별 계획",
		Usage:   Usage{InputTokens: 12, OutputTokens: 7},
	})
	p := WithLogging(mock, st.EventRepo(), discardLogger())

	ctx := WithPurpose(context.Background(), PurposeAssignmentCoach)
	if _, err := p.Generate(ctx, UserRequest("sys prompt", "user prompt", "solar-pro", 0.3)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls, err := st.EventRepo().QueryRemoteCalls(context.Background(), store.QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected 1 recorded call, got %d", len(calls))
	}
	c := calls[0]
	if c.Service != store.ServiceChat || c.Purpose != PurposeAssignmentCoach {
		t.Fatalf("unexpected service/purpose %q/%q", c.Service, c.Purpose)
	}
	if !c.Success || c.StatusCode != 200 {
		t.Fatalf("expected success with status 200, got %v/%d", c.Success, c.StatusCode)
	}
	if c.Model != "solar-pro" || c.Provider != ProviderMock {
		t.Fatalf("unexpected model/provider %q/%q", c.Model, c.Provider)
	}
	if c.InputTokens != 12 || c.OutputTokens != 7 {
		t.Fatalf("unexpected tokens %d/%d", c.InputTokens, c.OutputTokens)
	}
	if !strings.Contains(c.RequestBody, "[system]\nsys prompt") || !strings.Contains(c.RequestBody, "[user]\nuser prompt") {
		t.Fatalf("unexpected request body %q", c.RequestBody)
	}
	if c.ResponseBody != "주차별 계획" {
		t.Fatalf("unexpected response body %q", c.ResponseBody)
	}
}

func TestWithLogging_RecordsFailure(t *testing.T) {
	st := openTestStore(t)
	mock := NewMockProvider(MockResponse{Err: &ErrService{Status: 401, Body: "unauthorized"}})
	p := WithLogging(mock, st.EventRepo(), discardLogger())

	_, err := p.Generate(context.Background(), UserRequest("", "x", "", 0))
	if err == nil {
		t.Fatal("expected error to pass through")
	}

	calls, err := st.EventRepo().QueryRemoteCalls(context.Background(), store.QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected 1 recorded call, got %d", len(calls))
	}
	c := calls[0]
	if c.Success {
		t.Fatal("expected failure to be recorded")
	}
	if c.StatusCode != 401 {
		t.Fatalf("expected status 401, got %d", c.StatusCode)
	}
	if c.Purpose != "unknown" {
		t.Fatalf("expected purpose 'unknown', got %q", c.Purpose)
	}
	if c.Model != "mock" {
		t.Fatalf("expected default model 'mock', got %q", c.Model)
	}
	if !strings.Contains(c.ErrorMessage, "unauthorized") {
		t.Fatalf("unexpected error message %q", c.ErrorMessage)
	}
}

func TestWithLogging_NilRepoAndLogger(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: "ok"})
	p := WithLogging(mock, nil, nil)

	resp, err := p.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "ok" {
		t.Fatalf("expected 'ok', got %q", resp.Content)
	}
	if p.ModelID() != "mock" || p.Name() != ProviderMock {
		t.Fatalf("decorator must delegate ModelID and Name")
	}
}
