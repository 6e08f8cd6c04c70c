package sse

import (
	"encoding/json"
	"fmt"
	"io"
)

// Encoder writes SSE frames to a destination writer. The destination is
// typically an io.Pipe feeding a chunked HTTP response body, so every
// WriteEvent becomes visible to the client as soon as the pipe reader
// consumes it.
type Encoder struct {
	dest io.Writer
}

// NewEncoder returns an Encoder writing frames to dest.
func NewEncoder(dest io.Writer) *Encoder {
	return &Encoder{dest: dest}
}

// WriteEvent writes one complete frame: the event line, the data line, and
// the blank-line delimiter.
func (e *Encoder) WriteEvent(ev Event) error {
	if _, err := fmt.Fprintf(e.dest, "event: %s\ndata: %s\n\n", ev.Type, ev.Data); err != nil {
		return fmt.Errorf("writing SSE event: %w", err)
	}

	return nil
}

// WriteJSON marshals payload and writes it as a frame of the given event
// type.
func (e *Encoder) WriteJSON(eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding SSE payload: %w", err)
	}

	return e.WriteEvent(Event{Type: eventType, Data: string(data)})
}
