// Package storage defines the persistence interface for corelens platform
// entities: datasets, dictionary entries, insights, and the ML registry
// (models, recipes, runs). Implementations live in the subpackages.
package storage

import (
	"context"
	"time"
)

// Run status values. Transitions: pending -> running -> succeeded | failed.
const (
	RunStatusPending   = "pending"
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// ColumnMeta describes one column of an ingested dataset, including the
// profile counters computed at ingestion time.
type ColumnMeta struct {
	Name          string `json:"name"`
	Type          string `json:"type"` // "integer", "real", "text", "boolean", "timestamp"
	NullCount     int    `json:"null_count"`
	DistinctCount int    `json:"distinct_count"`
}

// Dataset is an uploaded, ingested dataset. Row data lives in a per-dataset
// SQL table named TableName; this record is the catalog entry.
type Dataset struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Filename  string       `json:"filename"`
	TableName string       `json:"table_name"`
	RowCount  int          `json:"row_count"`
	Columns   []ColumnMeta `json:"columns"`
	CreatedAt time.Time    `json:"created_at"`
}

// DictionaryEntry documents one dataset column. Entries are auto-seeded at
// ingestion with empty descriptions; filling them in closes a documentation
// gap reported by the quality module.
type DictionaryEntry struct {
	ID          string    `json:"id"`
	DatasetID   string    `json:"dataset_id"`
	Column      string    `json:"column"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Insight is a generated, markdown-formatted analysis of a dataset.
type Insight struct {
	ID        string    `json:"id"`
	DatasetID string    `json:"dataset_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

// Model is a registered ML model.
type Model struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Task      string    `json:"task"`
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

// Recipe is a reusable training/evaluation definition bound to a model.
type Recipe struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	ModelID    string         `json:"model_id"`
	Definition map[string]any `json:"definition"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Run is one execution of a recipe.
type Run struct {
	ID         string             `json:"id"`
	RecipeID   string             `json:"recipe_id"`
	Status     string             `json:"status"`
	Error      string             `json:"error,omitempty"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt *time.Time         `json:"finished_at,omitempty"`
}

// Store persists and retrieves platform entities. Get methods return
// ErrNotFound when no entity with the given ID exists.
type Store interface {
	PutDataset(ctx context.Context, ds *Dataset) error
	GetDataset(ctx context.Context, id string) (*Dataset, error)
	ListDatasets(ctx context.Context) ([]*Dataset, error)
	DeleteDataset(ctx context.Context, id string) error

	PutDictionaryEntry(ctx context.Context, entry *DictionaryEntry) error
	GetDictionaryEntry(ctx context.Context, id string) (*DictionaryEntry, error)
	ListDictionaryEntries(ctx context.Context, datasetID string) ([]*DictionaryEntry, error)

	PutInsight(ctx context.Context, insight *Insight) error
	GetInsight(ctx context.Context, id string) (*Insight, error)
	ListInsights(ctx context.Context, datasetID string) ([]*Insight, error)

	PutModel(ctx context.Context, model *Model) error
	GetModel(ctx context.Context, id string) (*Model, error)
	ListModels(ctx context.Context) ([]*Model, error)

	PutRecipe(ctx context.Context, recipe *Recipe) error
	GetRecipe(ctx context.Context, id string) (*Recipe, error)
	ListRecipes(ctx context.Context) ([]*Recipe, error)

	PutRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, recipeID string) ([]*Run, error)

	// Close releases any resources held by the store.
	Close() error
}
