package store

import (
	"context"
	"time"
)

// Service names recorded in the ledger.
const (
	ServiceParse   = "parse"
	ServiceExtract = "extract"
	ServiceChat    = "chat"
)

// QueryOpts configures call queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	Purpose string    // exact purpose match when non-empty
	Service string    // exact service match when non-empty
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
}

// RemoteCallData captures one remote call: a document parse, a structured
// extraction or a chat completion.
type RemoteCallData struct {
	Service      string
	Provider     string
	Model        string
	Purpose      string
	StatusCode   int
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// RemoteCall is a stored ledger row.
type RemoteCall struct {
	ID        int64
	Timestamp time.Time
	RemoteCallData
}

// PurposeUsage aggregates calls per purpose label.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates token usage per model for cost estimates.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo records and queries remote calls.
type EventRepo interface {
	// AppendRemoteCall records a single remote call.
	AppendRemoteCall(ctx context.Context, data RemoteCallData) error

	// QueryRemoteCalls returns calls newest first.
	QueryRemoteCalls(ctx context.Context, opts QueryOpts) ([]RemoteCall, error)

	// GetRemoteCall returns one call, or nil if the id is unknown.
	GetRemoteCall(ctx context.Context, id int64) (*RemoteCall, error)

	// UsageByPurpose aggregates calls per purpose label.
	UsageByPurpose(ctx context.Context) ([]PurposeUsage, error)

	// UsageByModel aggregates token usage per model.
	UsageByModel(ctx context.Context) ([]ModelUsage, error)
}

// Discard returns an EventRepo that drops every call. It is used when the
// ledger is not configured.
func Discard() EventRepo { return discardRepo{} }

type discardRepo struct{}

func (discardRepo) AppendRemoteCall(context.Context, RemoteCallData) error { return nil }

func (discardRepo) QueryRemoteCalls(context.Context, QueryOpts) ([]RemoteCall, error) {
	return nil, nil
}

func (discardRepo) GetRemoteCall(context.Context, int64) (*RemoteCall, error) { return nil, nil }

func (discardRepo) UsageByPurpose(context.Context) ([]PurposeUsage, error) { return nil, nil }

func (discardRepo) UsageByModel(context.Context) ([]ModelUsage, error) { return nil, nil }
