package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jiyoung0219/doc2plan-coach/internal/coach"
	"github.com/Jiyoung0219/doc2plan-coach/internal/config"
	"github.com/Jiyoung0219/doc2plan-coach/internal/docai"
	"github.com/Jiyoung0219/doc2plan-coach/internal/llm"
	"github.com/Jiyoung0219/doc2plan-coach/internal/store"
)

// deps is the wired object graph shared by serve and run.
type deps struct {
	orch  *coach.Orchestrator
	store *store.Store // nil when the ledger is disabled
}

func (d *deps) Close(logger *slog.Logger) {
	if d.store == nil {
		return
	}
	if err := d.store.Close(); err != nil {
		logger.Error("failed to close call ledger", "error", err)
	}
}

// buildDeps validates cfg, opens the optional ledger and builds the
// remote client and orchestrator.
func buildDeps(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*deps, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	d := &deps{}
	repo := store.Discard()
	if cfg.EventsDB != "" {
		st, err := store.Open(cfg.EventsDB)
		if err != nil {
			return nil, fmt.Errorf("open call ledger: %w", err)
		}
		if err := st.Ping(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("call ledger health check: %w", err)
		}
		d.store = st
		repo = st.EventRepo()
		logger.Info("call ledger enabled", "path", cfg.EventsDB)
	}

	provider, err := llm.NewProvider(ctx, cfg.Chat, repo, logger)
	if err != nil {
		d.Close(logger)
		return nil, fmt.Errorf("chat provider: %w", err)
	}

	client, err := docai.New(cfg.Upstage, provider,
		docai.WithEventRepo(repo),
		docai.WithLogger(logger),
		docai.WithChatTimeout(cfg.Chat.Timeout),
		docai.WithTemperature(cfg.Coach.Temperature),
	)
	if err != nil {
		d.Close(logger)
		return nil, fmt.Errorf("document client: %w", err)
	}

	d.orch, err = coach.New(client, coach.Config{
		ChatModel:     cfg.Coach.ChatModel,
		FallbackModel: cfg.Coach.FallbackModel,
		Locale:        coach.Locale(cfg.Coach.Locale),
	}, logger)
	if err != nil {
		d.Close(logger)
		return nil, err
	}

	logger.Debug("dependencies ready",
		"chat_provider", provider.Name(),
		"chat_model", provider.ModelID(),
		"locale", cfg.Coach.Locale,
	)
	return d, nil
}
