// Package docai is the client for the remote document-AI and chat services:
// document parse, schema-guided structured extraction and chat completion.
//
// Failures are normalized into the typed errors of package llm. The client
// holds only its credential and collaborators; it keeps no per-document
// state and never retries.
package docai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Jiyoung0219/doc2plan-coach/internal/config"
	"github.com/Jiyoung0219/doc2plan-coach/internal/llm"
	"github.com/Jiyoung0219/doc2plan-coach/internal/store"
)

// Document is an uploaded file.
type Document struct {
	Filename string
	Bytes    []byte
}

// Empty reports whether no document has been uploaded.
func (d Document) Empty() bool {
	return len(d.Bytes) == 0
}

// Client performs the three remote operations.
type Client struct {
	cfg         config.Upstage
	chat        llm.Provider
	http        *http.Client
	events      store.EventRepo
	logger      *slog.Logger
	chatTimeout time.Duration
	temperature float64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for parse and extract.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithEventRepo records parse and extract calls in the ledger. Chat calls
// are recorded by the provider's logging decorator.
func WithEventRepo(repo store.EventRepo) Option {
	return func(c *Client) {
		if repo != nil {
			c.events = repo
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithChatTimeout bounds each chat completion. Default 120s.
func WithChatTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.chatTimeout = d
		}
	}
}

// WithTemperature sets the chat sampling temperature. Default 0.3.
func WithTemperature(t float64) Option {
	return func(c *Client) { c.temperature = t }
}

// New creates a Client. It fails when the API key is missing.
func New(cfg config.Upstage, chat llm.Provider, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("UPSTAGE_API_KEY is missing")
	}
	if chat == nil {
		return nil, errors.New("chat provider is required")
	}
	if cfg.ParseURL == "" {
		cfg.ParseURL = config.DefaultParseURL
	}
	if cfg.ExtractURL == "" {
		cfg.ExtractURL = config.DefaultExtractURL
	}
	if cfg.ExtractModel == "" {
		cfg.ExtractModel = config.DefaultExtractModel
	}
	if cfg.ParseTimeout <= 0 {
		cfg.ParseTimeout = 120 * time.Second
	}
	if cfg.ExtractTimeout <= 0 {
		cfg.ExtractTimeout = 180 * time.Second
	}

	c := &Client{
		cfg:  cfg,
		chat: chat,
		http: &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		events:      store.Discard(),
		logger:      slog.Default(),
		chatTimeout: 120 * time.Second,
		temperature: 0.3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// send performs one authenticated POST and returns the response body.
// A status outside 2xx becomes *llm.ErrService; a request that never got
// a response becomes *llm.ErrTransport. Cancellation is returned as is.
func (c *Client) send(ctx context.Context, endpoint, contentType string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return 0, nil, err
		}
		return 0, nil, &llm.ErrTransport{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &llm.ErrTransport{Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, data, &llm.ErrService{
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(data)),
		}
	}
	return resp.StatusCode, data, nil
}

// record logs a parse or extract call and appends it to the ledger.
func (c *Client) record(ctx context.Context, data store.RemoteCallData, err error) {
	data.Purpose = llm.PurposeFrom(ctx)
	data.Provider = llm.ProviderUpstage
	data.Success = err == nil
	if err != nil {
		data.ErrorMessage = err.Error()
		c.logger.Warn("remote call failed",
			"service", data.Service, "purpose", data.Purpose, "model", data.Model,
			"status", data.StatusCode, "latency_ms", data.LatencyMs, "error", err)
	} else {
		c.logger.Info("remote call",
			"service", data.Service, "purpose", data.Purpose, "model", data.Model,
			"status", data.StatusCode, "latency_ms", data.LatencyMs)
	}

	if logErr := c.events.AppendRemoteCall(context.WithoutCancel(ctx), data); logErr != nil {
		c.logger.Warn("failed to record remote call", "error", logErr)
	}
}
