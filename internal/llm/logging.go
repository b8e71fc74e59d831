package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Jiyoung0219/doc2plan-coach/internal/store"
)

// LoggingProvider is a decorator that logs every chat call and records it
// in the call ledger.
type LoggingProvider struct {
	inner     Provider
	eventRepo store.EventRepo
	logger    *slog.Logger
}

// WithLogging wraps a Provider with call logging. A nil repo discards
// ledger rows; a nil logger uses slog.Default().
func WithLogging(p Provider, repo store.EventRepo, logger *slog.Logger) Provider {
	if repo == nil {
		repo = store.Discard()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingProvider{inner: p, eventRepo: repo, logger: logger}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	latencyMs := time.Since(start).Milliseconds()

	model := req.Model
	if model == "" {
		model = l.inner.ModelID()
	}

	data := store.RemoteCallData{
		Service:     store.ServiceChat,
		Provider:    l.inner.Name(),
		Model:       model,
		Purpose:     purpose,
		LatencyMs:   latencyMs,
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}

	if resp != nil {
		data.StatusCode = 200
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			data.Model = resp.Model
		}
		data.ResponseBody = resp.Content
	}

	if err != nil {
		data.ErrorMessage = err.Error()
		var svc *ErrService
		if errors.As(err, &svc) {
			data.StatusCode = svc.Status
		}
		l.logger.Warn("chat call failed",
			"purpose", purpose, "provider", data.Provider, "model", data.Model,
			"latency_ms", latencyMs, "status", data.StatusCode, "error", err)
	} else {
		l.logger.Info("chat call",
			"purpose", purpose, "provider", data.Provider, "model", data.Model,
			"latency_ms", latencyMs, "input_tokens", data.InputTokens, "output_tokens", data.OutputTokens)
	}

	// Record the call but don't fail the request if the ledger write fails.
	if logErr := l.eventRepo.AppendRemoteCall(context.WithoutCancel(ctx), data); logErr != nil {
		l.logger.Warn("failed to record chat call", "error", logErr)
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

func (l *LoggingProvider) Name() string {
	return l.inner.Name()
}

// serializeRequest builds a readable representation of the chat request.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	for _, m := range req.Messages {
		b.WriteString(fmt.Sprintf("[%s]\n", m.Role))
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}

	return b.String()
}
