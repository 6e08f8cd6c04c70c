// Package provider defines the chat provider interface and its registry.
package provider

import (
	"context"
	"fmt"

	"github.com/corelens-ai/corelens/pkg/llm"
	"github.com/corelens-ai/corelens/pkg/llm/provider/ollama"
)

// Provider executes chat completions against an LLM backend.
type Provider interface {
	// Name returns the canonical provider name (e.g., "ollama").
	Name() string

	// Chat performs a blocking, non-streaming completion.
	Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)

	// ChatStream performs a streaming completion, invoking fn once per
	// chunk. Returning an error from fn aborts the stream.
	ChatStream(ctx context.Context, req *llm.ChatRequest, fn func(chunk *llm.StreamChunk) error) error
}

// New creates a provider by type name targeting the given base URL.
func New(providerType, baseURL string) (Provider, error) {
	switch providerType {
	case "ollama":
		return ollama.New(baseURL), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %q", providerType)
	}
}
