// Package api provides the JSON HTTP surface for a browser front-end. It
// maps requests to orchestrator steps on the caller's session.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Jiyoung0219/doc2plan-coach/internal/coach"
	"github.com/Jiyoung0219/doc2plan-coach/internal/llm"
	"github.com/Jiyoung0219/doc2plan-coach/internal/session"
)

// Handler serves the session and workflow routes.
type Handler struct {
	orch      *coach.Orchestrator
	sessions  *session.Manager
	maxUpload int64
	logger    *slog.Logger
}

// NewHandler creates a Handler. maxUpload bounds the document size in bytes.
func NewHandler(orch *coach.Orchestrator, sessions *session.Manager, maxUpload int64, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		orch:      orch,
		sessions:  sessions,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// Notice writes a validation message. No remote call was made.
func Notice(w http.ResponseWriter, message string) {
	JSON(w, http.StatusUnprocessableEntity, map[string]string{"notice": message})
}

// stepError maps a failed step to a response: service failures are 502,
// transport failures 504.
func (h *Handler) stepError(w http.ResponseWriter, r *http.Request, step string, err error) {
	h.logger.Warn("step failed", "step", step, "request_id", requestID(r), "error", err)

	var svc *llm.ErrService
	if errors.As(err, &svc) {
		JSON(w, http.StatusBadGateway, map[string]any{
			"error":  err.Error(),
			"status": svc.Status,
			"body":   svc.Body,
		})
		return
	}
	var tr *llm.ErrTransport
	if errors.As(err, &tr) {
		Error(w, http.StatusGatewayTimeout, err.Error())
		return
	}
	var mal *llm.ErrMalformedResult
	if errors.As(err, &mal) {
		Error(w, http.StatusBadGateway, err.Error())
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		Error(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	Error(w, http.StatusInternalServerError, err.Error())
}
