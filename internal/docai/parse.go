package docai

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/Jiyoung0219/doc2plan-coach/internal/store"
)

// ParsedDocument is the provider-defined parse result.
type ParsedDocument struct {
	Raw []byte
}

var prettyOptions = &pretty.Options{Width: 80, Indent: "  ", SortKeys: true}

// Text returns a deterministic serialization of the parse result: sorted
// keys, 2-space indent. A body that is not JSON is returned unchanged.
func (p *ParsedDocument) Text() string {
	if !gjson.ValidBytes(p.Raw) {
		return string(p.Raw)
	}
	return string(bytes.TrimSpace(pretty.PrettyOptions(p.Raw, prettyOptions)))
}

// Content returns the plain document text when the service provided one,
// preferring text over markdown over html.
func (p *ParsedDocument) Content() string {
	for _, path := range []string{"content.text", "content.markdown", "content.html"} {
		if v := gjson.GetBytes(p.Raw, path); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

// Pages returns the page count reported by the service, or 0.
func (p *ParsedDocument) Pages() int {
	return int(gjson.GetBytes(p.Raw, "usage.pages").Int())
}

// ParseDocument uploads the document as the multipart field "document".
func (c *Client) ParseDocument(ctx context.Context, doc Document) (*ParsedDocument, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("document", doc.Filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(doc.Bytes); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.ParseTimeout)
	defer cancel()

	start := time.Now()
	status, data, err := c.send(ctx, c.cfg.ParseURL, w.FormDataContentType(), &body)
	c.record(ctx, store.RemoteCallData{
		Service:      store.ServiceParse,
		Model:        "document-parse",
		StatusCode:   status,
		LatencyMs:    time.Since(start).Milliseconds(),
		RequestBody:  fmt.Sprintf("document=%s bytes=%d", doc.Filename, len(doc.Bytes)),
		ResponseBody: string(data),
	}, err)
	if err != nil {
		return nil, err
	}

	parsed := &ParsedDocument{Raw: data}
	c.logger.Debug("document parsed",
		"filename", doc.Filename, "pages", parsed.Pages(),
		"elements", gjson.GetBytes(data, "elements.#").Int())
	return parsed, nil
}
