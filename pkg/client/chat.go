package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/corelens-ai/corelens/pkg/assistant"
)

// ChatRequest is one user turn sent to the assistant.
type ChatRequest struct {
	Content   string `json:"content"`
	Assistant string `json:"assistant,omitempty"`
	DatasetID string `json:"dataset_id,omitempty"`
}

// ChatMessage is the buffered (non-streaming) chat response.
type ChatMessage struct {
	MessageID string                      `json:"message_id"`
	Content   string                      `json:"content"`
	ToolCalls []assistant.ToolCallEvent   `json:"tool_calls,omitempty"`
	Results   []assistant.ToolResultEvent `json:"results,omitempty"`
}

// Chat sends one turn and waits for the complete response.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatMessage, error) {
	payload := map[string]any{
		"content":    req.Content,
		"assistant":  req.Assistant,
		"dataset_id": req.DatasetID,
		"stream":     false,
	}

	var msg ChatMessage
	if err := c.doJSON(ctx, http.MethodPost, "/chat", payload, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// StreamChat sends one turn and returns the raw SSE body. The caller owns
// the returned ReadCloser and typically hands it to stream.NewReader.
func (c *Client) StreamChat(ctx context.Context, req ChatRequest) (io.ReadCloser, error) {
	payload := map[string]any{
		"content":    req.Content,
		"assistant":  req.Assistant,
		"dataset_id": req.DatasetID,
		"stream":     true,
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling API: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, apiError(resp)
	}

	return resp.Body, nil
}
