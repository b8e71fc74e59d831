package llm

import "context"

type contextKey string

const purposeKey contextKey = "doc2plan_purpose"

// Purpose labels recorded with every remote call.
const (
	PurposeParse           = "document-parse"
	PurposeExtract         = "structured-extract"
	PurposeFallbackExtract = "fallback-extract"
	PurposeAssignmentCoach = "assignment-coach"
	PurposeProjectCoach    = "project-coach"
	PurposeReview          = "draft-review"
)

// WithPurpose attaches a purpose label to the context so the call ledger
// and logs can tell the orchestration steps apart.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom extracts the purpose label from the context, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok && v != "" {
		return v
	}
	return "unknown"
}
