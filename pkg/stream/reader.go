// Package stream provides the incremental reader for the corelens chat
// streaming protocol: an SSE-shaped wire format where each frame is an
// "event:" line naming the event type followed by a "data:" line carrying a
// JSON payload. The reader reassembles lines across arbitrary network chunk
// boundaries and dispatches each complete frame to caller-supplied handlers.
//
// One Reader consumes exactly one response body. Concurrent streams are
// independent Reader instances with no shared state.
package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

const (
	// Event types emitted by the chat endpoint. The set is open ended:
	// frames with any other event type are skipped so that server-side
	// additions do not break older clients.
	EventDelta      = "delta"
	EventToolCall   = "tool_call"
	EventToolResult = "tool_result"
	EventDone       = "done"
	EventError      = "error"
)

const readChunkSize = 32 * 1024

// Handlers holds the per-event callbacks invoked by Reader.Run.
// Nil callbacks are skipped.
type Handlers struct {
	// OnDelta receives the full accumulated assistant text so far, not just
	// the latest fragment. A UI can replace its displayed buffer on every
	// call instead of concatenating.
	OnDelta func(text string)

	// OnToolCall is invoked once per tool_call frame. Multiple calls may
	// arrive between deltas; each is a distinct invocation.
	OnToolCall func(name string, input map[string]any)

	// OnToolResult receives the raw result payload for a finished tool.
	// Matching a result to a specific in-flight call is the caller's
	// responsibility; see ToolCallTracker.
	OnToolResult func(name string, result json.RawMessage)

	// OnDone is invoked when the turn completes. The reader clears its
	// delta accumulator afterwards.
	OnDone func(messageID string)

	// OnError is invoked for server-signalled error frames and, with a
	// generic transport message, when the underlying read fails.
	OnError func(message string)
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the logger used to report skipped malformed frames.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Reader) {
		r.logger = logger
	}
}

// Reader turns a chunked HTTP response body into a sequence of typed,
// fully-parsed chat events. It is not restartable: a fresh stream requires
// a fresh Reader over a fresh body.
type Reader struct {
	src      io.Reader
	handlers Handlers
	logger   *zap.Logger

	// buffer holds undecoded trailing bytes: at most one incomplete line
	// carried over from the previous chunk.
	buffer string

	// eventType is the most recent "event:" value, carried across lines
	// until overwritten by the next "event:" line.
	eventType string

	// accum concatenates all delta fragments of the current turn.
	accum strings.Builder
}

// NewReader creates a Reader over src dispatching to the given handlers.
func NewReader(src io.Reader, handlers Handlers, opts ...Option) *Reader {
	r := &Reader{
		src:      src,
		handlers: handlers,
		logger:   zap.NewNop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run pulls chunks from the source until end-of-stream, dispatching one
// callback per complete frame. It returns nil on a clean end-of-stream and
// an error when the source itself fails, after invoking OnError with a
// generic transport message. Run performs no retries and enforces no
// timeout; cancellation is caller-driven by closing the source.
//
// Any incomplete final line left in the buffer at end-of-stream is
// discarded: a well-formed stream always terminates with a done or error
// frame on a complete line.
func (r *Reader) Run() error {
	chunk := make([]byte, readChunkSize)

	for {
		n, err := r.src.Read(chunk)
		if n > 0 {
			r.buffer += string(chunk[:n])
			r.drainLines()
		}

		if err == io.EOF {
			return nil
		}
		if err != nil {
			if r.handlers.OnError != nil {
				r.handlers.OnError("stream transport failed")
			}
			return fmt.Errorf("reading stream: %w", err)
		}
	}
}

// drainLines strips and processes every complete line in the buffer. The
// piece after the last newline (possibly empty) stays buffered as the
// carried-over partial line.
func (r *Reader) drainLines() {
	for {
		idx := strings.IndexByte(r.buffer, '\n')
		if idx < 0 {
			return
		}

		line := r.buffer[:idx]
		r.buffer = r.buffer[idx+1:]
		r.processLine(line)
	}
}

// processLine handles a single complete line. Blank lines and unknown
// fields are skipped without touching the current event type.
func (r *Reader) processLine(line string) {
	switch {
	case strings.HasPrefix(line, "event:"):
		r.eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))

	case strings.HasPrefix(line, "data:"):
		r.dispatch(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
	}
}

// dispatch parses a data payload and invokes the handler matching the
// current event type. A malformed payload is logged and skipped; it
// isolates to this frame only and never aborts the stream.
func (r *Reader) dispatch(payload string) {
	raw := []byte(payload)

	if !json.Valid(raw) {
		r.logger.Warn("skipping malformed stream payload",
			zap.String("event", r.eventType),
			zap.String("payload", payload),
		)
		return
	}

	switch r.eventType {
	case EventDelta:
		var p struct {
			Content *string `json:"content"`
		}
		if err := json.Unmarshal(raw, &p); err != nil {
			r.logWarn(err, payload)
			return
		}
		if p.Content == nil {
			return
		}
		r.accum.WriteString(*p.Content)
		if r.handlers.OnDelta != nil {
			r.handlers.OnDelta(r.accum.String())
		}

	case EventToolCall:
		var p struct {
			ToolName  string         `json:"tool_name"`
			ToolInput map[string]any `json:"tool_input"`
		}
		if err := json.Unmarshal(raw, &p); err != nil {
			r.logWarn(err, payload)
			return
		}
		if r.handlers.OnToolCall != nil {
			r.handlers.OnToolCall(p.ToolName, p.ToolInput)
		}

	case EventToolResult:
		var p struct {
			ToolName string          `json:"tool_name"`
			Result   json.RawMessage `json:"result"`
		}
		if err := json.Unmarshal(raw, &p); err != nil {
			r.logWarn(err, payload)
			return
		}
		if r.handlers.OnToolResult != nil {
			r.handlers.OnToolResult(p.ToolName, p.Result)
		}

	case EventDone:
		var p struct {
			MessageID string `json:"message_id"`
		}
		if err := json.Unmarshal(raw, &p); err != nil {
			r.logWarn(err, payload)
			return
		}
		if r.handlers.OnDone != nil {
			r.handlers.OnDone(p.MessageID)
		}
		r.accum.Reset()

	case EventError:
		var p struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(raw, &p); err != nil {
			r.logWarn(err, payload)
			return
		}
		if r.handlers.OnError != nil {
			r.handlers.OnError(p.Error)
		}

	default:
		// Unknown event type: skip for forward compatibility.
	}
}

func (r *Reader) logWarn(err error, payload string) {
	r.logger.Warn("skipping malformed stream payload",
		zap.Error(err),
		zap.String("event", r.eventType),
		zap.String("payload", payload),
	)
}
