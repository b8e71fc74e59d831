// Package coach sequences the doc2plan workflow: document parse, schema
// extraction with a chat fallback, and coaching generation.
//
// Every step operates on a caller-owned *State. A step that fails its
// precondition returns an Outcome with a Notice and makes no remote call.
package coach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Jiyoung0219/doc2plan-coach/internal/docai"
	"github.com/Jiyoung0219/doc2plan-coach/internal/llm"
)

// Team size limits for project coaching.
const (
	MinTeamSize     = 2
	MaxTeamSize     = 10
	DefaultTeamSize = 4
)

// Remote is the set of remote operations the orchestrator depends on.
// *docai.Client implements it.
type Remote interface {
	ParseDocument(ctx context.Context, doc docai.Document) (*docai.ParsedDocument, error)
	ExtractStructured(ctx context.Context, doc docai.Document, schema *llm.Schema, opts docai.ExtractOptions) (*docai.Extraction, error)
	ChatComplete(ctx context.Context, system, user, model string) (string, error)
}

// Config configures an Orchestrator.
type Config struct {
	// ChatModel is used for coaching and review; empty means the chat
	// provider default.
	ChatModel string

	// FallbackModel is used for chat-based extraction.
	FallbackModel string

	Locale Locale
}

// CoachKind selects the coaching template.
type CoachKind int

const (
	AssignmentCoach CoachKind = iota + 1
	ProjectCoach
)

func (k CoachKind) String() string {
	switch k {
	case AssignmentCoach:
		return "assignment"
	case ProjectCoach:
		return "project"
	default:
		return fmt.Sprintf("CoachKind(%d)", int(k))
	}
}

// ParseCoachKind maps "assignment" or "project" to a CoachKind.
func ParseCoachKind(s string) (CoachKind, error) {
	switch s {
	case "assignment":
		return AssignmentCoach, nil
	case "project":
		return ProjectCoach, nil
	default:
		return 0, fmt.Errorf("unknown coach kind %q", s)
	}
}

// ProjectParams are the team parameters for project coaching. Zero values
// take the defaults.
type ProjectParams struct {
	TeamSize int
	Duration string
}

// FallbackInfo describes a structured extraction that was replaced by a
// chat extraction.
type FallbackInfo struct {
	// Cause is the structured extraction failure.
	Cause error

	// Reparsed is set when the document had to be parsed first.
	Reparsed bool
}

// Outcome is what a step returns for display.
type Outcome struct {
	Text string

	// Notice is a user-facing validation message. When set, the step
	// made no remote call and Text is empty.
	Notice string

	Fallback *FallbackInfo
}

// Orchestrator runs the workflow steps.
type Orchestrator struct {
	remote  Remote
	prompts *Prompts
	cfg     Config
	logger  *slog.Logger
}

// New creates an Orchestrator. A nil logger uses slog.Default().
func New(remote Remote, cfg Config, logger *slog.Logger) (*Orchestrator, error) {
	if remote == nil {
		return nil, errors.New("remote client is required")
	}
	locale, err := ParseLocale(string(cfg.Locale))
	if err != nil {
		return nil, err
	}
	cfg.Locale = locale
	prompts, err := NewPrompts(locale)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{remote: remote, prompts: prompts, cfg: cfg, logger: logger}, nil
}

// Prompts returns the orchestrator's prompt templates.
func (o *Orchestrator) Prompts() *Prompts { return o.prompts }

func (o *Orchestrator) notice(key MessageKey) Outcome {
	return Outcome{Notice: o.prompts.Message(key)}
}

// RunParse parses doc and stores the serialized result in st.ParsedText.
// On error ParsedText is left unchanged.
func (o *Orchestrator) RunParse(ctx context.Context, st *State, doc docai.Document) (Outcome, error) {
	if doc.Empty() {
		return o.notice(MsgNoDocument), nil
	}

	parsed, err := o.remote.ParseDocument(llm.WithPurpose(ctx, llm.PurposeParse), doc)
	if err != nil {
		return Outcome{}, fmt.Errorf("parse %s: %w", doc.Filename, err)
	}
	text := parsed.Text()
	if strings.TrimSpace(text) == "" {
		return Outcome{}, &llm.ErrMalformedResult{Err: errors.New(o.prompts.Message(MsgEmptyParse))}
	}

	st.ParsedText = text
	return Outcome{Text: text}, nil
}

// RunExtract fills the slot for kind. It tries structured extraction in
// enhanced mode; when that fails with a service or transport error it
// makes one chat extraction instead, parsing the document first if
// st.ParsedText is empty. The slot is empty while the step runs and stays
// empty if the fallback fails too.
func (o *Orchestrator) RunExtract(ctx context.Context, st *State, kind SchemaKind, doc docai.Document) (Outcome, error) {
	schema := SchemaFor(kind)
	if schema == nil {
		return Outcome{}, fmt.Errorf("unknown schema kind %v", kind)
	}
	if doc.Empty() {
		return o.notice(MsgNoDocument), nil
	}

	st.setSlot(kind, nil)

	ext, err := o.remote.ExtractStructured(llm.WithPurpose(ctx, llm.PurposeExtract), doc, schema,
		docai.ExtractOptions{Mode: docai.ModeEnhanced})
	if err == nil {
		var res *ExtractionResult
		if ext.Malformed {
			res = RawResult(ext.Content, SourceExtract)
		} else {
			res = Classify(ext.Content, SourceExtract, schema)
		}
		st.setSlot(kind, res)
		return Outcome{Text: res.Display()}, nil
	}
	if !llm.IsRemoteFailure(err) {
		return Outcome{}, fmt.Errorf("extract %s: %w", kind, err)
	}

	o.logger.Warn("structured extraction failed, falling back to chat",
		"schema", kind.String(), "error", err)
	info := &FallbackInfo{Cause: err}

	if st.ParsedText == "" {
		if _, err := o.RunParse(ctx, st, doc); err != nil {
			return Outcome{Fallback: info}, fmt.Errorf("fallback %s: %w", kind, err)
		}
		info.Reparsed = true
	}

	prompt, err := o.prompts.FallbackExtractionPrompt(schema, st.ParsedText)
	if err != nil {
		return Outcome{Fallback: info}, err
	}
	reply, err := o.remote.ChatComplete(llm.WithPurpose(ctx, llm.PurposeFallbackExtract),
		o.prompts.FallbackSystem(), prompt, o.cfg.FallbackModel)
	if err != nil {
		return Outcome{Fallback: info}, fmt.Errorf("fallback %s: %w", kind, err)
	}

	res := Classify(reply, SourceFallback, schema)
	st.setSlot(kind, res)
	return Outcome{Text: res.Display(), Fallback: info}, nil
}

// RunCoaching generates coaching text from the stored extraction. State is
// never modified.
func (o *Orchestrator) RunCoaching(ctx context.Context, st *State, kind CoachKind, params ProjectParams) (Outcome, error) {
	var (
		prompt  string
		purpose string
		err     error
	)

	switch kind {
	case AssignmentCoach:
		if st.Assignment == nil {
			return o.notice(MsgNoAssignment), nil
		}
		purpose = llm.PurposeAssignmentCoach
		prompt, err = o.prompts.AssignmentCoachPrompt(st.Assignment.PromptJSON())
	case ProjectCoach:
		if st.Project == nil {
			return o.notice(MsgNoProject), nil
		}
		if params.TeamSize == 0 {
			params.TeamSize = DefaultTeamSize
		}
		if params.TeamSize < MinTeamSize || params.TeamSize > MaxTeamSize {
			return o.notice(MsgTeamSize), nil
		}
		params.Duration = strings.TrimSpace(params.Duration)
		if params.Duration == "" {
			params.Duration = o.prompts.DefaultDuration()
		}
		purpose = llm.PurposeProjectCoach
		prompt, err = o.prompts.PMCoachPrompt(st.Project.PromptJSON(), params.TeamSize, params.Duration)
	default:
		return Outcome{}, fmt.Errorf("unknown coach kind %v", kind)
	}
	if err != nil {
		return Outcome{}, err
	}

	text, err := o.remote.ChatComplete(llm.WithPurpose(ctx, purpose), o.prompts.CoachSystem(), prompt, o.cfg.ChatModel)
	if err != nil {
		return Outcome{}, fmt.Errorf("%s coaching: %w", kind, err)
	}
	return Outcome{Text: text}, nil
}

// RunReview gives feedback on draft against the stored assignment.
func (o *Orchestrator) RunReview(ctx context.Context, st *State, draft string) (Outcome, error) {
	if st.Assignment == nil {
		return o.notice(MsgNoAssignment), nil
	}
	draft = strings.TrimSpace(draft)
	if draft == "" {
		return o.notice(MsgEmptyDraft), nil
	}

	prompt, err := o.prompts.ReviewerPrompt(st.Assignment.PromptJSON(), draft)
	if err != nil {
		return Outcome{}, err
	}
	text, err := o.remote.ChatComplete(llm.WithPurpose(ctx, llm.PurposeReview), o.prompts.CoachSystem(), prompt, o.cfg.ChatModel)
	if err != nil {
		return Outcome{}, fmt.Errorf("draft review: %w", err)
	}
	return Outcome{Text: text}, nil
}
