package docai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/Jiyoung0219/doc2plan-coach/internal/llm"
	"github.com/Jiyoung0219/doc2plan-coach/internal/store"
)

// Mode selects the extraction quality tier.
type Mode string

const (
	ModeStandard Mode = "standard"
	ModeEnhanced Mode = "enhanced"
)

// ExtractOptions are the extraction flags. Location and Confidence default
// to off.
type ExtractOptions struct {
	Mode       Mode
	Location   bool
	Confidence bool
}

// Extraction is the outcome of a structured extraction that got a success
// response.
type Extraction struct {
	// Content is choices[0].message.content, or the whole body when the
	// envelope lacks it.
	Content string

	// Malformed is set when the envelope did not have the expected shape.
	Malformed bool

	Usage llm.Usage
}

type extractRequest struct {
	Model          string           `json:"model"`
	Messages       []extractMessage `json:"messages"`
	ResponseFormat responseFormat   `json:"response_format"`
	ExtraBody      extraBody        `json:"extra_body"`
}

type extractMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string   `json:"type"`
	ImageURL imageURL `json:"image_url"`
}

type imageURL struct {
	URL string `json:"url"`
}

type responseFormat struct {
	Type       string     `json:"type"`
	JSONSchema jsonSchema `json:"json_schema"`
}

type jsonSchema struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
}

type extraBody struct {
	Mode       Mode `json:"mode"`
	Location   bool `json:"location"`
	Confidence bool `json:"confidence"`
}

// ExtractStructured sends the document, embedded as a base64 data URL,
// with a response_format constraining the reply to schema. Any status of
// 400 or above is returned as *llm.ErrService. A success body without the
// expected envelope is not an error: the body itself becomes the content.
func (c *Client) ExtractStructured(ctx context.Context, doc Document, schema *llm.Schema, opts ExtractOptions) (*Extraction, error) {
	if schema == nil {
		return nil, fmt.Errorf("extract %s: schema is required", doc.Filename)
	}
	if opts.Mode == "" {
		opts.Mode = ModeStandard
	}

	payload, err := json.Marshal(extractRequest{
		Model: c.cfg.ExtractModel,
		Messages: []extractMessage{{
			Role: "user",
			Content: []contentPart{{
				Type:     "image_url",
				ImageURL: imageURL{URL: dataURL(doc.Bytes)},
			}},
		}},
		ResponseFormat: responseFormat{
			Type:       "json_schema",
			JSONSchema: jsonSchema{Name: "document_schema", Schema: schema.Definition},
		},
		ExtraBody: extraBody{
			Mode:       opts.Mode,
			Location:   opts.Location,
			Confidence: opts.Confidence,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal extract request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.ExtractTimeout)
	defer cancel()

	start := time.Now()
	status, data, err := c.send(ctx, c.cfg.ExtractURL, "application/json", bytes.NewReader(payload))

	call := store.RemoteCallData{
		Service:    store.ServiceExtract,
		Model:      c.cfg.ExtractModel,
		StatusCode: status,
		LatencyMs:  time.Since(start).Milliseconds(),
		RequestBody: fmt.Sprintf("schema=%s mode=%s location=%t confidence=%t document=%s bytes=%d",
			schema.Name, opts.Mode, opts.Location, opts.Confidence, doc.Filename, len(doc.Bytes)),
		ResponseBody: string(data),
	}
	if err != nil {
		c.record(ctx, call, err)
		return nil, err
	}

	ext := &Extraction{
		Usage: llm.Usage{
			InputTokens:  int(gjson.GetBytes(data, "usage.prompt_tokens").Int()),
			OutputTokens: int(gjson.GetBytes(data, "usage.completion_tokens").Int()),
			TotalTokens:  int(gjson.GetBytes(data, "usage.total_tokens").Int()),
		},
	}
	content := gjson.GetBytes(data, "choices.0.message.content")
	if content.Type == gjson.String {
		ext.Content = content.String()
	} else {
		ext.Content = string(data)
		ext.Malformed = true
		c.logger.Warn("extraction envelope missing message content", "schema", schema.Name)
	}

	call.InputTokens = ext.Usage.InputTokens
	call.OutputTokens = ext.Usage.OutputTokens
	c.record(ctx, call, nil)
	return ext, nil
}

func dataURL(b []byte) string {
	return "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(b)
}
