package testutils

import (
	"context"

	"github.com/corelens-ai/corelens/pkg/eventstream"
)

// MockPublisher records published events and optionally fails.
type MockPublisher struct {
	// Events accumulates every event passed to Publish.
	Events []*eventstream.Event

	// FailPublish causes Publish to return an error.
	FailPublish error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		Events: make([]*eventstream.Event, 0),
	}
}

func (m *MockPublisher) Publish(_ context.Context, event *eventstream.Event) error {
	if m.FailPublish != nil {
		return m.FailPublish
	}
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}
