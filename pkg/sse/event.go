// Package sse provides the SSE (Server-Sent Events) wire helpers for the
// corelens chat endpoint: the Event frame type and an Encoder that writes
// "event:"/"data:" framed events to an io.Writer.
//
// The client-side incremental parse loop lives in pkg/stream, whose line
// discipline is fixed by the chat streaming contract.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

// Event is a single SSE frame: an event type plus a data payload, delimited
// on the wire by a blank line.
type Event struct {
	// Type is the SSE event type written as the "event:" field.
	Type string

	// Data is the payload written as the "data:" field, conventionally a
	// JSON-encoded object for the chat endpoint.
	Data string
}
