package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeDatasetIngested is emitted after a dataset upload is ingested
	// and profiled.
	EventTypeDatasetIngested = "corelens.dataset.ingested"

	// EventTypeRunCompleted is emitted when a recipe run reaches a terminal
	// status.
	EventTypeRunCompleted = "corelens.run.completed"

	// EventTypeInsightGenerated is emitted after an insight is stored.
	EventTypeInsightGenerated = "corelens.insight.generated"
)

// Event is a transport-neutral envelope for platform lifecycle events.
// Exactly one of the payload fields is set, matching EventType.
type Event struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	Dataset *DatasetIngestedPayload  `json:"dataset,omitempty"`
	Run     *RunCompletedPayload     `json:"run,omitempty"`
	Insight *InsightGeneratedPayload `json:"insight,omitempty"`
}

// DatasetIngestedPayload describes a freshly ingested dataset.
type DatasetIngestedPayload struct {
	DatasetID string `json:"dataset_id"`
	Name      string `json:"name"`
	RowCount  int    `json:"row_count"`
	Columns   int    `json:"columns"`
}

// RunCompletedPayload describes a recipe run that finished.
type RunCompletedPayload struct {
	RunID      string             `json:"run_id"`
	RecipeID   string             `json:"recipe_id"`
	Status     string             `json:"status"`
	Error      string             `json:"error,omitempty"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
	DurationMs int64              `json:"duration_ms"`
}

// InsightGeneratedPayload describes a stored insight.
type InsightGeneratedPayload struct {
	InsightID string `json:"insight_id"`
	DatasetID string `json:"dataset_id"`
	Title     string `json:"title"`
	Model     string `json:"model"`
}

func newEvent(eventType string) *Event {
	return &Event{
		SchemaVersion: SchemaVersionV1,
		EventType:     eventType,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
	}
}

// NewDatasetIngested builds a dataset.ingested event.
func NewDatasetIngested(payload DatasetIngestedPayload) *Event {
	ev := newEvent(EventTypeDatasetIngested)
	ev.Dataset = &payload

	return ev
}

// NewRunCompleted builds a run.completed event.
func NewRunCompleted(payload RunCompletedPayload) *Event {
	ev := newEvent(EventTypeRunCompleted)
	ev.Run = &payload

	return ev
}

// NewInsightGenerated builds an insight.generated event.
func NewInsightGenerated(payload InsightGeneratedPayload) *Event {
	ev := newEvent(EventTypeInsightGenerated)
	ev.Insight = &payload

	return ev
}
