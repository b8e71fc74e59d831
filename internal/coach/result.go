package coach

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/Jiyoung0219/doc2plan-coach/internal/llm"
)

// ResultKind tags an ExtractionResult.
type ResultKind int

const (
	// Structured content is a JSON object.
	Structured ResultKind = iota + 1
	// RawText content is anything else, kept verbatim.
	RawText
)

func (k ResultKind) String() string {
	switch k {
	case Structured:
		return "structured"
	case RawText:
		return "raw_text"
	default:
		return "unknown"
	}
}

// Source records which path produced a result.
type Source string

const (
	SourceExtract  Source = "extract"
	SourceFallback Source = "fallback"
)

// ExtractionResult is the content of one extraction slot. Its Kind is
// decided once, when the reply is received, and never re-derived.
type ExtractionResult struct {
	Kind    ResultKind
	Content string
	Source  Source

	// Conforms reports whether structured content validates against the
	// schema it was extracted for. Always false for RawText.
	Conforms bool
}

// Classify decides the kind of a reply. Surrounding code fences are
// dropped; a JSON object becomes Structured, anything else is kept
// verbatim as RawText.
func Classify(content string, source Source, schema *llm.Schema) *ExtractionResult {
	trimmed := stripCodeFences(content)
	if gjson.Valid(trimmed) && gjson.Parse(trimmed).IsObject() {
		return &ExtractionResult{
			Kind:     Structured,
			Content:  trimmed,
			Source:   source,
			Conforms: llm.ValidateContent(schema, []byte(trimmed)) == nil,
		}
	}
	return RawResult(content, source)
}

// RawResult wraps content that must not be treated as JSON.
func RawResult(content string, source Source) *ExtractionResult {
	return &ExtractionResult{Kind: RawText, Content: content, Source: source}
}

// Display returns the content for showing to the user.
func (r *ExtractionResult) Display() string {
	if r.Kind == Structured {
		if s, err := PrettyJSON(r.Content); err == nil {
			return s
		}
	}
	return r.Content
}

// PromptJSON returns the content as JSON for embedding in a prompt: the
// pretty-printed object when structured, a JSON string literal otherwise.
func (r *ExtractionResult) PromptJSON() string {
	if r.Kind == Structured {
		if s, err := PrettyJSON(r.Content); err == nil {
			return s
		}
	}
	s, err := encodeIndented(r.Content)
	if err != nil {
		return r.Content
	}
	return s
}

// stripCodeFences removes a leading ```lang line and a trailing ```.
func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimLeft(trimmed, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
		trimmed = strings.TrimSpace(trimmed)
	}
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
