package api

import (
	"context"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/corelens-ai/corelens/pkg/assistant"
	"github.com/corelens-ai/corelens/pkg/llm"
	"github.com/corelens-ai/corelens/pkg/sse"
)

// chatRequest is the wire shape of POST /chat.
type chatRequest struct {
	Content   string `json:"content"`
	Assistant string `json:"assistant"`
	DatasetID string `json:"dataset_id,omitempty"`
	Stream    *bool  `json:"stream,omitempty"`
}

// chatMessage is the non-streaming response shape: the full assistant turn
// collected into one message.
type chatMessage struct {
	MessageID string                      `json:"message_id"`
	Content   string                      `json:"content"`
	ToolCalls []assistant.ToolCallEvent   `json:"tool_calls,omitempty"`
	Results   []assistant.ToolResultEvent `json:"tool_results,omitempty"`
}

// handleChat runs one assistant turn. With stream:true (the default) the
// response is text/event-stream carrying delta, tool_call, tool_result, and
// a final done or error frame. With stream:false the full turn is collected
// into a single JSON message.
func (s *Server) handleChat(c *fiber.Ctx) error {
	if s.svcs.Assistant == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(llm.ErrorResponse{
			Error: "chat is not configured: an LLM provider is required",
		})
	}

	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}
	if strings.TrimSpace(req.Content) == "" {
		return badRequest(c, "content field required")
	}

	// Reject unknown assistants before committing to a stream; once SSE
	// starts the HTTP status is already written.
	if _, err := assistant.ProfileByName(req.Assistant); err != nil {
		return badRequest(c, err.Error())
	}

	chatReq := &assistant.ChatRequest{
		Content:   req.Content,
		Assistant: req.Assistant,
		DatasetID: req.DatasetID,
	}

	if req.Stream != nil && !*req.Stream {
		return s.handleBufferedChat(c, chatReq)
	}

	return s.handleStreamingChat(c, chatReq)
}

func (s *Server) handleStreamingChat(c *fiber.Ctx, req *assistant.ChatRequest) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	// Use io.Pipe + SetBodyStream instead of SetBodyStreamWriter.
	// SetBodyStreamWriter buffers chunks internally, so Flush() in the
	// callback does not reach the TCP socket per chunk. With io.Pipe,
	// pw.Write blocks until fasthttp's chunked writer consumes the data,
	// giving backpressure and true per-event streaming.
	pr, pw := io.Pipe()

	// The chat loop runs after this handler returns and fasthttp recycles
	// its RequestCtx, so it must not touch c. context.Background keeps the
	// provider connection open for the stream's lifetime.
	go func() {
		defer pw.Close()

		encoder := sse.NewEncoder(pw)
		emit := func(eventType string, payload any) error {
			return encoder.WriteJSON(eventType, payload)
		}

		if err := s.svcs.Assistant.Chat(context.Background(), req, emit); err != nil {
			s.logger.Warn("chat turn failed",
				zap.String("assistant", req.Assistant),
				zap.Error(err),
			)
		}
	}()

	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

func (s *Server) handleBufferedChat(c *fiber.Ctx, req *assistant.ChatRequest) error {
	var msg chatMessage
	var content strings.Builder
	var chatErr string

	emit := func(eventType string, payload any) error {
		switch eventType {
		case assistant.EventDelta:
			if delta, ok := payload.(assistant.DeltaEvent); ok {
				content.WriteString(delta.Content)
			}
		case assistant.EventToolCall:
			if call, ok := payload.(assistant.ToolCallEvent); ok {
				msg.ToolCalls = append(msg.ToolCalls, call)
			}
		case assistant.EventToolResult:
			if result, ok := payload.(assistant.ToolResultEvent); ok {
				msg.Results = append(msg.Results, result)
			}
		case assistant.EventDone:
			if done, ok := payload.(assistant.DoneEvent); ok {
				msg.MessageID = done.MessageID
			}
		case assistant.EventError:
			if failure, ok := payload.(assistant.ErrorEvent); ok {
				chatErr = failure.Error
			}
		}
		return nil
	}

	if err := s.svcs.Assistant.Chat(c.Context(), req, emit); err != nil {
		if chatErr == "" {
			chatErr = err.Error()
		}
		return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: chatErr})
	}

	msg.Content = content.String()

	return c.JSON(msg)
}
