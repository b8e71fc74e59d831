package store

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "calls.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "calls.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)

	var mode string
	if err := s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("journal_mode = %q, want wal", mode)
	}
}

func TestAppendAndQueryRemoteCalls(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	calls := []RemoteCallData{
		{Service: ServiceParse, Purpose: "document-parse", StatusCode: 200, LatencyMs: 900, Success: true},
		{Service: ServiceExtract, Purpose: "structured-extract", StatusCode: 422, LatencyMs: 300, ErrorMessage: "service error 422"},
		{Service: ServiceChat, Provider: "upstage", Model: "solar-pro", Purpose: "fallback-extract",
			StatusCode: 200, InputTokens: 1200, OutputTokens: 300, LatencyMs: 2100, Success: true},
	}
	for _, c := range calls {
		if err := repo.AppendRemoteCall(ctx, c); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := repo.QueryRemoteCalls(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(all))
	}
	if all[0].Service != ServiceChat {
		t.Fatalf("expected newest first, got %q", all[0].Service)
	}

	limited, err := repo.QueryRemoteCalls(ctx, QueryOpts{Limit: 1, Service: ServiceExtract})
	if err != nil {
		t.Fatalf("query limited: %v", err)
	}
	if len(limited) != 1 || limited[0].StatusCode != 422 || limited[0].Success {
		t.Fatalf("unexpected filtered result: %+v", limited)
	}

	got, err := repo.GetRemoteCall(ctx, all[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Model != "solar-pro" || got.InputTokens != 1200 {
		t.Fatalf("unexpected call: %+v", got)
	}

	missing, err := repo.GetRemoteCall(ctx, 9999)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown id, got %+v", missing)
	}
}

func TestUsageAggregates(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_ = repo.AppendRemoteCall(ctx, RemoteCallData{
			Service: ServiceChat, Model: "solar-pro", Purpose: "assignment-coach",
			InputTokens: 100, OutputTokens: 50, LatencyMs: 1000, Success: true,
		})
	}
	_ = repo.AppendRemoteCall(ctx, RemoteCallData{
		Service: ServiceChat, Model: "solar-pro", Purpose: "draft-review",
		StatusCode: 500, LatencyMs: 200,
	})

	byPurpose, err := repo.UsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("usage by purpose: %v", err)
	}
	if len(byPurpose) != 2 {
		t.Fatalf("expected 2 purposes, got %d", len(byPurpose))
	}
	coach := byPurpose[0]
	if coach.Purpose != "assignment-coach" || coach.Calls != 2 || coach.InputTokens != 200 || coach.AvgLatencyMs != 1000 {
		t.Fatalf("unexpected coach usage: %+v", coach)
	}
	if byPurpose[1].Failures != 1 {
		t.Fatalf("expected 1 failure for draft-review, got %d", byPurpose[1].Failures)
	}

	byModel, err := repo.UsageByModel(ctx)
	if err != nil {
		t.Fatalf("usage by model: %v", err)
	}
	if len(byModel) != 1 || byModel[0].Calls != 3 || byModel[0].OutputTokens != 100 {
		t.Fatalf("unexpected model usage: %+v", byModel)
	}
}

func TestDiscardRepo(t *testing.T) {
	repo := Discard()
	ctx := context.Background()
	if err := repo.AppendRemoteCall(ctx, RemoteCallData{Service: ServiceChat}); err != nil {
		t.Fatalf("discard append: %v", err)
	}
	calls, err := repo.QueryRemoteCalls(ctx, QueryOpts{})
	if err != nil || len(calls) != 0 {
		t.Fatalf("expected no calls, got %v (%v)", calls, err)
	}
}
