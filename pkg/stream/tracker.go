package stream

// PendingCall is a tool call observed on the stream whose result has not
// arrived yet.
type PendingCall struct {
	// Seq is the 1-based order in which the call was issued on the stream.
	Seq int

	// Name is the tool name from the tool_call frame.
	Name string

	// Input is the tool input payload from the tool_call frame.
	Input map[string]any
}

// ToolCallTracker matches tool_result frames to in-flight tool_call frames.
//
// The wire format carries no call IDs, so matching is by tool name with a
// most-recent-pending policy: a result resolves the last-issued pending call
// with the same name. This is a heuristic inherited from the observed
// backend behavior, not a correctness guarantee if a server ever interleaves
// concurrent calls to the same tool name.
//
// The tracker is caller-side state; the Reader itself never tracks calls.
// It is not safe for concurrent use, matching the one-goroutine-per-stream
// model.
type ToolCallTracker struct {
	pending []PendingCall
	nextSeq int
}

// NewToolCallTracker returns an empty tracker.
func NewToolCallTracker() *ToolCallTracker {
	return &ToolCallTracker{}
}

// Record notes a newly issued tool call and returns its sequence number.
func (t *ToolCallTracker) Record(name string, input map[string]any) int {
	t.nextSeq++
	t.pending = append(t.pending, PendingCall{
		Seq:   t.nextSeq,
		Name:  name,
		Input: input,
	})

	return t.nextSeq
}

// Resolve removes and returns the most recently issued pending call with
// the given name. The second return value is false when no call with that
// name is pending.
func (t *ToolCallTracker) Resolve(name string) (PendingCall, bool) {
	for i := len(t.pending) - 1; i >= 0; i-- {
		if t.pending[i].Name != name {
			continue
		}

		call := t.pending[i]
		t.pending = append(t.pending[:i], t.pending[i+1:]...)
		return call, true
	}

	return PendingCall{}, false
}

// Pending returns the in-flight calls in issue order.
func (t *ToolCallTracker) Pending() []PendingCall {
	out := make([]PendingCall, len(t.pending))
	copy(out, t.pending)
	return out
}
