// Package assistant runs profile-scoped chat conversations over the
// platform's datasets, streaming deltas and tool activity to the caller.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corelens-ai/corelens/pkg/llm"
	"github.com/corelens-ai/corelens/pkg/llm/provider"
	"github.com/corelens-ai/corelens/pkg/storage"
)

// Wire event names emitted during a chat.
const (
	EventDelta      = "delta"
	EventToolCall   = "tool_call"
	EventToolResult = "tool_result"
	EventDone       = "done"
	EventError      = "error"
)

// maxToolRounds bounds how many tool round-trips a single chat may take.
const maxToolRounds = 8

// EmitFunc receives each chat event as it happens. Returning an error stops
// the conversation.
type EmitFunc func(eventType string, payload any) error

// DeltaEvent carries one assistant text fragment.
type DeltaEvent struct {
	Content string `json:"content"`
}

// ToolCallEvent announces a tool invocation.
type ToolCallEvent struct {
	ToolName  string         `json:"tool_name"`
	ToolInput map[string]any `json:"tool_input"`
}

// ToolResultEvent carries a tool's outcome.
type ToolResultEvent struct {
	ToolName string `json:"tool_name"`
	Result   any    `json:"result"`
}

// DoneEvent terminates a successful chat.
type DoneEvent struct {
	MessageID string `json:"message_id"`
}

// ErrorEvent reports a failed chat.
type ErrorEvent struct {
	Error string `json:"error"`
}

// ChatRequest describes one user turn.
type ChatRequest struct {
	Content   string `json:"content"`
	Assistant string `json:"assistant"`
	DatasetID string `json:"dataset_id,omitempty"`
}

// Service drives assistant conversations.
type Service struct {
	provider provider.Provider
	model    string
	store    storage.Store
	toolbox  *Toolbox
	logger   *zap.Logger
}

// NewService wires a chat service over an LLM provider and the toolbox.
func NewService(p provider.Provider, model string, store storage.Store, toolbox *Toolbox, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		provider: p,
		model:    model,
		store:    store,
		toolbox:  toolbox,
		logger:   logger,
	}
}

// Chat streams one conversation turn. Text fragments, tool calls, and tool
// results are emitted in order; a done event closes a successful turn and an
// error event reports failure. The returned error mirrors the error event.
func (s *Service) Chat(ctx context.Context, req *ChatRequest, emit EmitFunc) error {
	profile, err := ProfileByName(req.Assistant)
	if err != nil {
		s.emitError(emit, err.Error())
		return err
	}

	system, err := s.buildSystem(ctx, profile, req.DatasetID)
	if err != nil {
		s.emitError(emit, err.Error())
		return err
	}

	messages := []llm.Message{
		{Role: "user", Content: req.Content},
	}

	for round := 0; round < maxToolRounds; round++ {
		var calls []llm.ToolCall
		var text strings.Builder

		err := s.provider.ChatStream(ctx, &llm.ChatRequest{
			Model:    s.model,
			System:   system,
			Messages: messages,
			Tools:    s.toolbox.Definitions(),
		}, func(chunk *llm.StreamChunk) error {
			if chunk.Message.Content != "" {
				text.WriteString(chunk.Message.Content)
				if err := emit(EventDelta, DeltaEvent{Content: chunk.Message.Content}); err != nil {
					return err
				}
			}
			calls = append(calls, chunk.Message.ToolCalls...)

			return nil
		})
		if err != nil {
			s.emitError(emit, "chat completion failed")
			return fmt.Errorf("streaming completion: %w", err)
		}

		messages = append(messages, llm.Message{
			Role:      "assistant",
			Content:   text.String(),
			ToolCalls: calls,
		})

		if len(calls) == 0 {
			messageID := uuid.NewString()
			s.logger.Debug("chat turn complete",
				zap.String("assistant", profile.Name),
				zap.String("message_id", messageID),
				zap.Int("rounds", round+1),
			)

			return emit(EventDone, DoneEvent{MessageID: messageID})
		}

		for _, call := range calls {
			if err := emit(EventToolCall, ToolCallEvent{ToolName: call.Name, ToolInput: call.Input}); err != nil {
				return err
			}

			result, err := s.toolbox.Invoke(ctx, call.Name, call.Input)
			if err != nil {
				s.logger.Warn("tool invocation failed",
					zap.String("tool", call.Name),
					zap.Error(err),
				)
				result = map[string]any{"error": err.Error()}
			}

			if err := emit(EventToolResult, ToolResultEvent{ToolName: call.Name, Result: result}); err != nil {
				return err
			}

			encoded, err := json.Marshal(result)
			if err != nil {
				encoded = []byte(`{"error":"unencodable tool result"}`)
			}
			messages = append(messages, llm.Message{
				Role:     "tool",
				ToolName: call.Name,
				Content:  string(encoded),
			})
		}
	}

	s.emitError(emit, "tool round limit exceeded")
	return fmt.Errorf("tool round limit exceeded after %d rounds", maxToolRounds)
}

func (s *Service) buildSystem(ctx context.Context, profile Profile, datasetID string) (string, error) {
	if datasetID == "" {
		return profile.System, nil
	}

	ds, err := s.store.GetDataset(ctx, datasetID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(profile.System)
	fmt.Fprintf(&b, "\n\nThe user is working with dataset %q (%d rows) stored in SQL table %s. Columns:\n", ds.Name, ds.RowCount, ds.TableName)
	for _, col := range ds.Columns {
		fmt.Fprintf(&b, "- %s (%s)\n", col.Name, col.Type)
	}

	return b.String(), nil
}

func (s *Service) emitError(emit EmitFunc, message string) {
	if err := emit(EventError, ErrorEvent{Error: message}); err != nil {
		s.logger.Debug("emitting error event failed", zap.Error(err))
	}
}
