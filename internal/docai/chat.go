package docai

import (
	"context"

	"github.com/Jiyoung0219/doc2plan-coach/internal/llm"
)

// ChatComplete sends a system and a user message and returns the reply
// text. An empty model uses the provider default.
func (c *Client) ChatComplete(ctx context.Context, system, user, model string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.chatTimeout)
	defer cancel()

	resp, err := c.chat.Generate(ctx, llm.UserRequest(system, user, model, c.temperature))
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
