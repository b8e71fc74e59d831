package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Jiyoung0219/doc2plan-coach/internal/coach"
	"github.com/Jiyoung0219/doc2plan-coach/internal/docai"
	"github.com/Jiyoung0219/doc2plan-coach/internal/session"
)

type documentView struct {
	Filename string `json:"filename"`
	Size     int    `json:"size"`
}

type slotView struct {
	Status   coach.SlotStatus `json:"status"`
	Source   coach.Source     `json:"source,omitempty"`
	Content  string           `json:"content,omitempty"`
	Conforms bool             `json:"conforms"`
}

type sessionView struct {
	ID         string              `json:"id"`
	CreatedAt  time.Time           `json:"created_at"`
	Document   *documentView       `json:"document,omitempty"`
	ParsedText string              `json:"parsed_text"`
	Slots      map[string]slotView `json:"slots"`
}

type fallbackView struct {
	Cause    string `json:"cause"`
	Reparsed bool   `json:"reparsed"`
}

type stepResponse struct {
	Text     string        `json:"text"`
	Fallback *fallbackView `json:"fallback,omitempty"`
	Session  sessionView   `json:"session"`
}

func snapshot(s *session.Session, d *session.Data) sessionView {
	v := sessionView{
		ID:         s.ID,
		CreatedAt:  s.CreatedAt,
		ParsedText: d.State.ParsedText,
		Slots:      make(map[string]slotView, 2),
	}
	if !d.Document.Empty() {
		v.Document = &documentView{Filename: d.Document.Filename, Size: len(d.Document.Bytes)}
	}
	for _, kind := range []coach.SchemaKind{coach.Assignment, coach.Project} {
		sv := slotView{Status: d.State.Status(kind)}
		if r := d.State.Slot(kind); r != nil {
			sv.Source = r.Source
			sv.Content = r.Display()
			sv.Conforms = r.Conforms
		}
		v.Slots[kind.String()] = sv
	}
	return v
}

// lookup resolves the {id} URL parameter. It writes a 404 when the
// session does not exist.
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, ok := h.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		Error(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return s, true
}

// stepContext detaches a step from the request so a disconnecting client
// does not abort a remote call halfway.
func stepContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

// CreateSession handles POST /api/sessions.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()
	h.logger.Info("session started", "session_id", s.ID, "request_id", requestID(r))
	JSON(w, http.StatusCreated, map[string]string{"id": s.ID})
}

// GetSession handles GET /api/sessions/{id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var view sessionView
	_ = s.Do(func(d *session.Data) error {
		view = snapshot(s, d)
		return nil
	})
	JSON(w, http.StatusOK, view)
}

// DeleteSession handles DELETE /api/sessions/{id}.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Delete(chi.URLParam(r, "id")) {
		Error(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func isPDF(filename string, data []byte) bool {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return true
	}
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

// UploadDocument handles POST /api/sessions/{id}/document. A new document
// resets the derived state of the session.
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if r.ContentLength > h.maxUpload {
		Error(w, http.StatusRequestEntityTooLarge, "document exceeds the upload limit")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, http.StatusRequestEntityTooLarge, "document exceeds the upload limit")
			return
		}
		Error(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		Error(w, http.StatusBadRequest, "missing form field \"file\"")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		Error(w, http.StatusBadRequest, "failed to read document")
		return
	}
	if len(data) == 0 {
		Error(w, http.StatusBadRequest, "document is empty")
		return
	}
	if !isPDF(header.Filename, data) {
		Error(w, http.StatusUnsupportedMediaType, "only PDF documents are accepted")
		return
	}

	var view sessionView
	_ = s.Do(func(d *session.Data) error {
		d.Document = docai.Document{Filename: header.Filename, Bytes: data}
		d.State = coach.State{}
		view = snapshot(s, d)
		return nil
	})

	h.logger.Info("document uploaded",
		"session_id", s.ID,
		"filename", header.Filename,
		"bytes", len(data),
		"request_id", requestID(r),
	)
	JSON(w, http.StatusOK, view)
}

// runStep runs fn under the session lock and writes the outcome.
func (h *Handler) runStep(w http.ResponseWriter, r *http.Request, s *session.Session, step string,
	fn func(ctx context.Context, d *session.Data) (coach.Outcome, error),
) {
	var (
		out  coach.Outcome
		view sessionView
	)
	err := s.Do(func(d *session.Data) error {
		var err error
		out, err = fn(stepContext(r), d)
		view = snapshot(s, d)
		return err
	})
	if err != nil {
		h.stepError(w, r, step, err)
		return
	}
	if out.Notice != "" {
		Notice(w, out.Notice)
		return
	}

	resp := stepResponse{Text: out.Text, Session: view}
	if fb := out.Fallback; fb != nil {
		resp.Fallback = &fallbackView{Reparsed: fb.Reparsed}
		if fb.Cause != nil {
			resp.Fallback.Cause = fb.Cause.Error()
		}
	}
	JSON(w, http.StatusOK, resp)
}

// Parse handles POST /api/sessions/{id}/parse.
func (h *Handler) Parse(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.runStep(w, r, s, "parse", func(ctx context.Context, d *session.Data) (coach.Outcome, error) {
		return h.orch.RunParse(ctx, &d.State, d.Document)
	})
}

// Extract handles POST /api/sessions/{id}/extract/{kind}.
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	kind, err := coach.ParseSchemaKind(chi.URLParam(r, "kind"))
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.runStep(w, r, s, "extract", func(ctx context.Context, d *session.Data) (coach.Outcome, error) {
		return h.orch.RunExtract(ctx, &d.State, kind, d.Document)
	})
}

type coachRequest struct {
	TeamSize int    `json:"team_size"`
	Duration string `json:"duration"`
}

// Coach handles POST /api/sessions/{id}/coach/{kind}. The body is
// optional for assignment coaching.
func (h *Handler) Coach(w http.ResponseWriter, r *http.Request) {
	kind, err := coach.ParseCoachKind(chi.URLParam(r, "kind"))
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	var req coachRequest
	if err := decodeOptional(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	params := coach.ProjectParams{TeamSize: req.TeamSize, Duration: req.Duration}
	h.runStep(w, r, s, "coach", func(ctx context.Context, d *session.Data) (coach.Outcome, error) {
		return h.orch.RunCoaching(ctx, &d.State, kind, params)
	})
}

type reviewRequest struct {
	Draft string `json:"draft"`
}

// Review handles POST /api/sessions/{id}/review.
func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.runStep(w, r, s, "review", func(ctx context.Context, d *session.Data) (coach.Outcome, error) {
		return h.orch.RunReview(ctx, &d.State, req.Draft)
	})
}

// decodeOptional decodes a JSON body into v. An empty body leaves v as is.
func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
