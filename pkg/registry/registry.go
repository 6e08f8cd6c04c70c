// Package registry manages the ML side of the catalog: models, recipes, and
// runs with their status lifecycle.
package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corelens-ai/corelens/pkg/eventstream"
	"github.com/corelens-ai/corelens/pkg/storage"
)

// ErrInvalidTransition rejects run status changes outside the
// pending -> running -> succeeded/failed lifecycle.
type ErrInvalidTransition struct {
	From string
	To   string
}

func (e ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid run transition: %s -> %s", e.From, e.To)
}

// Service manages models, recipes, and runs.
type Service struct {
	store  storage.Store
	events eventstream.Publisher
	logger *zap.Logger
}

// NewService wires the registry over the catalog store.
func NewService(store storage.Store, events eventstream.Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{store: store, events: events, logger: logger}
}

// CreateModel registers a model.
func (s *Service) CreateModel(ctx context.Context, name, task, version string) (*storage.Model, error) {
	if name == "" {
		return nil, fmt.Errorf("model name is required")
	}

	model := &storage.Model{
		ID:        uuid.NewString(),
		Name:      name,
		Task:      task,
		Version:   version,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.PutModel(ctx, model); err != nil {
		return nil, fmt.Errorf("storing model: %w", err)
	}

	return model, nil
}

// GetModel returns one model.
func (s *Service) GetModel(ctx context.Context, id string) (*storage.Model, error) {
	return s.store.GetModel(ctx, id)
}

// ListModels returns all models.
func (s *Service) ListModels(ctx context.Context) ([]*storage.Model, error) {
	return s.store.ListModels(ctx)
}

// CreateRecipe registers a recipe bound to an existing model.
func (s *Service) CreateRecipe(ctx context.Context, name, modelID string, definition map[string]any) (*storage.Recipe, error) {
	if name == "" {
		return nil, fmt.Errorf("recipe name is required")
	}
	if _, err := s.store.GetModel(ctx, modelID); err != nil {
		return nil, err
	}
	if definition == nil {
		definition = map[string]any{}
	}

	recipe := &storage.Recipe{
		ID:         uuid.NewString(),
		Name:       name,
		ModelID:    modelID,
		Definition: definition,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.PutRecipe(ctx, recipe); err != nil {
		return nil, fmt.Errorf("storing recipe: %w", err)
	}

	return recipe, nil
}

// GetRecipe returns one recipe.
func (s *Service) GetRecipe(ctx context.Context, id string) (*storage.Recipe, error) {
	return s.store.GetRecipe(ctx, id)
}

// ListRecipes returns all recipes.
func (s *Service) ListRecipes(ctx context.Context) ([]*storage.Recipe, error) {
	return s.store.ListRecipes(ctx)
}

// CreateRun starts the lifecycle of a run in pending state.
func (s *Service) CreateRun(ctx context.Context, recipeID string) (*storage.Run, error) {
	if _, err := s.store.GetRecipe(ctx, recipeID); err != nil {
		return nil, err
	}

	run := &storage.Run{
		ID:        uuid.NewString(),
		RecipeID:  recipeID,
		Status:    storage.RunStatusPending,
		Metrics:   map[string]float64{},
		StartedAt: time.Now().UTC(),
	}
	if err := s.store.PutRun(ctx, run); err != nil {
		return nil, fmt.Errorf("storing run: %w", err)
	}

	return run, nil
}

// GetRun returns one run.
func (s *Service) GetRun(ctx context.Context, id string) (*storage.Run, error) {
	return s.store.GetRun(ctx, id)
}

// ListRuns returns runs, optionally scoped to a recipe.
func (s *Service) ListRuns(ctx context.Context, recipeID string) ([]*storage.Run, error) {
	return s.store.ListRuns(ctx, recipeID)
}

// StartRun moves a pending run to running.
func (s *Service) StartRun(ctx context.Context, id string) (*storage.Run, error) {
	run, err := s.store.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.Status != storage.RunStatusPending {
		return nil, ErrInvalidTransition{From: run.Status, To: storage.RunStatusRunning}
	}

	run.Status = storage.RunStatusRunning
	run.StartedAt = time.Now().UTC()
	if err := s.store.PutRun(ctx, run); err != nil {
		return nil, fmt.Errorf("storing run: %w", err)
	}

	return run, nil
}

// CompleteRun moves a running run to succeeded and records its metrics.
func (s *Service) CompleteRun(ctx context.Context, id string, metrics map[string]float64) (*storage.Run, error) {
	return s.finishRun(ctx, id, storage.RunStatusSucceeded, "", metrics)
}

// FailRun moves a pending or running run to failed with an error message.
func (s *Service) FailRun(ctx context.Context, id, message string) (*storage.Run, error) {
	return s.finishRun(ctx, id, storage.RunStatusFailed, message, nil)
}

func (s *Service) finishRun(ctx context.Context, id, status, message string, metrics map[string]float64) (*storage.Run, error) {
	run, err := s.store.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}

	switch run.Status {
	case storage.RunStatusRunning:
	case storage.RunStatusPending:
		if status != storage.RunStatusFailed {
			return nil, ErrInvalidTransition{From: run.Status, To: status}
		}
	default:
		return nil, ErrInvalidTransition{From: run.Status, To: status}
	}

	now := time.Now().UTC()
	run.Status = status
	run.Error = message
	run.FinishedAt = &now
	if metrics != nil {
		run.Metrics = metrics
	}

	if err := s.store.PutRun(ctx, run); err != nil {
		return nil, fmt.Errorf("storing run: %w", err)
	}

	s.logger.Info("run finished",
		zap.String("run_id", run.ID),
		zap.String("status", run.Status),
	)

	if s.events != nil {
		ev := eventstream.NewRunCompleted(eventstream.RunCompletedPayload{
			RunID:      run.ID,
			RecipeID:   run.RecipeID,
			Status:     run.Status,
			Error:      run.Error,
			Metrics:    run.Metrics,
			DurationMs: now.Sub(run.StartedAt).Milliseconds(),
		})
		if err := s.events.Publish(ctx, ev); err != nil {
			s.logger.Warn("publishing run event failed", zap.Error(err))
		}
	}

	return run, nil
}
