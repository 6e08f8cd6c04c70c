// Package llm defines the provider-agnostic chat types used by the corelens
// assistants. Provider-specific request/response formats are handled by the
// implementations under pkg/llm/provider.
package llm

import "time"

// Message is a single message in a conversation.
type Message struct {
	// Role is one of "system", "user", "assistant", "tool".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`

	// ToolCalls carries tool invocations requested by the assistant.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolName names the tool a "tool" role message is the result of.
	ToolName string `json:"tool_name,omitempty"`
}

// ToolCall is an assistant request to execute a named tool.
type ToolCall struct {
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// Tool describes a callable tool advertised to the model.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ChatRequest is a provider-agnostic chat completion request.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	System      string    `json:"system,omitempty"`
	Tools       []Tool    `json:"tools,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

// ChatResponse is a provider-agnostic chat completion response.
type ChatResponse struct {
	Model      string    `json:"model"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
	Message    Message   `json:"message"`
	StopReason string    `json:"stop_reason,omitempty"`
	Usage      *Usage    `json:"usage,omitempty"`
}

// StreamChunk is a single chunk of a streaming chat response.
type StreamChunk struct {
	Model string `json:"model"`

	// Message holds the partial content and any tool calls carried by this
	// chunk.
	Message Message `json:"message"`

	// Done marks the final chunk of the response.
	Done bool `json:"done"`

	// Usage metrics, typically only present on the final chunk.
	Usage *Usage `json:"usage,omitempty"`
}

// Usage contains token counts reported by the provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// ErrorResponse is the standard JSON error envelope returned by the API.
type ErrorResponse struct {
	Error string `json:"error"`
}
