// Package ollama implements the chat provider against Ollama's /api/chat
// endpoint, including its NDJSON streaming format.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/corelens-ai/corelens/pkg/llm"
)

// DefaultBaseURL is the default Ollama API URL.
const DefaultBaseURL = "http://localhost:11434"

// Client is an Ollama chat provider.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client targeting the given base URL.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			// LLM responses can be slow
			Timeout: 5 * time.Minute,
		},
	}
}

func (c *Client) Name() string {
	return "ollama"
}

// Chat performs a non-streaming completion.
func (c *Client) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	httpResp, err := c.send(ctx, req, false)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	var resp ollamaResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decoding chat response: %w", err)
	}

	return convertResponse(&resp), nil
}

// ChatStream performs a streaming completion, invoking fn once per NDJSON
// chunk until the final done chunk.
func (c *Client) ChatStream(ctx context.Context, req *llm.ChatRequest, fn func(chunk *llm.StreamChunk) error) error {
	httpResp, err := c.send(ctx, req, true)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()

	scanner := bufio.NewScanner(httpResp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var resp ollamaResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			return fmt.Errorf("parsing stream chunk: %w", err)
		}

		if err := fn(convertChunk(&resp)); err != nil {
			return err
		}

		if resp.Done {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading stream: %w", err)
	}

	return nil
}

func (c *Client) send(ctx context.Context, req *llm.ChatRequest, stream bool) (*http.Response, error) {
	body, err := json.Marshal(convertRequest(req, stream))
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		return nil, fmt.Errorf("ollama returned status %d: %s", httpResp.StatusCode, string(respBody))
	}

	return httpResp, nil
}

func convertRequest(req *llm.ChatRequest, stream bool) *ollamaRequest {
	out := &ollamaRequest{
		Model:  req.Model,
		Stream: stream,
	}

	if req.System != "" {
		out.Messages = append(out.Messages, ollamaMessage{Role: "system", Content: req.System})
	}

	for _, msg := range req.Messages {
		converted := ollamaMessage{
			Role:     msg.Role,
			Content:  msg.Content,
			ToolName: msg.ToolName,
		}

		for _, call := range msg.ToolCalls {
			var tc ollamaToolCall
			tc.Function.Name = call.Name
			tc.Function.Arguments = call.Input
			converted.ToolCalls = append(converted.ToolCalls, tc)
		}

		out.Messages = append(out.Messages, converted)
	}

	for _, tool := range req.Tools {
		var t ollamaTool
		t.Type = "function"
		t.Function.Name = tool.Name
		t.Function.Description = tool.Description
		t.Function.Parameters = tool.Parameters
		out.Tools = append(out.Tools, t)
	}

	if req.Temperature != nil || req.MaxTokens != nil {
		out.Options = &ollamaOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		}
	}

	return out
}

func convertMessage(msg *ollamaMessage) llm.Message {
	out := llm.Message{
		Role:    msg.Role,
		Content: msg.Content,
	}

	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
			Name:  tc.Function.Name,
			Input: tc.Function.Arguments,
		})
	}

	return out
}

func convertResponse(resp *ollamaResponse) *llm.ChatResponse {
	return &llm.ChatResponse{
		Model:      resp.Model,
		CreatedAt:  resp.CreatedAt,
		Message:    convertMessage(&resp.Message),
		StopReason: resp.DoneReason,
		Usage:      convertUsage(resp),
	}
}

func convertChunk(resp *ollamaResponse) *llm.StreamChunk {
	return &llm.StreamChunk{
		Model:   resp.Model,
		Message: convertMessage(&resp.Message),
		Done:    resp.Done,
		Usage:   convertUsage(resp),
	}
}

func convertUsage(resp *ollamaResponse) *llm.Usage {
	if resp.PromptEvalCount == 0 && resp.EvalCount == 0 {
		return nil
	}

	return &llm.Usage{
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
		TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
	}
}
