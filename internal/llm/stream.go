// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// StreamChunk is one incremental delta from a streaming generation.
// Thought deltas come from the model's reasoning channel and are kept
// separate from final-answer text.
type StreamChunk struct {
	Text    string
	Thought bool

	// Restart marks a synthetic delta emitted by cascade drivers when
	// generation starts over on a fallback model. Text delivered before
	// a restart belongs to a dead attempt and must be discarded. The
	// API itself never sends this.
	Restart bool
}

// StreamGenerateContent performs a streaming generation call, invoking fn
// for every non-empty delta in arrival order. A non-nil error from fn
// aborts the stream and is returned as-is; context cancellation stops the
// stream promptly.
func (c *Client) StreamGenerateContent(ctx context.Context, model string, req Request, fn func(StreamChunk) error) error {
	endpoint := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", c.BaseURL, model)

	resp, err := c.post(ctx, endpoint, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return statusError(resp.StatusCode, body)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}

		var chunk Response
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return fmt.Errorf("parsing stream chunk: %w", err)
		}
		if chunk.Error != nil {
			return &APIError{
				Kind:    kindForStatus(chunk.Error.Code),
				Status:  chunk.Error.Code,
				Message: chunk.Error.Message,
			}
		}
		if len(chunk.Candidates) == 0 {
			continue
		}

		for _, part := range chunk.Candidates[0].Content.Parts {
			if part.Text == "" {
				continue
			}
			if err := fn(StreamChunk{Text: part.Text, Thought: part.Thought}); err != nil {
				return err
			}
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("reading stream: %w", err)
	}
	return nil
}
