// Package inmemory implements storage.Store with in-process maps. It backs
// tests and ephemeral servers where nothing should touch disk.
package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/corelens-ai/corelens/pkg/storage"
)

type Store struct {
	mu       sync.RWMutex
	datasets map[string]*storage.Dataset
	entries  map[string]*storage.DictionaryEntry
	insights map[string]*storage.Insight
	models   map[string]*storage.Model
	recipes  map[string]*storage.Recipe
	runs     map[string]*storage.Run
}

func New() *Store {
	return &Store{
		datasets: make(map[string]*storage.Dataset),
		entries:  make(map[string]*storage.DictionaryEntry),
		insights: make(map[string]*storage.Insight),
		models:   make(map[string]*storage.Model),
		recipes:  make(map[string]*storage.Recipe),
		runs:     make(map[string]*storage.Run),
	}
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) PutDataset(_ context.Context, ds *storage.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *ds
	s.datasets[ds.ID] = &cp

	return nil
}

func (s *Store) GetDataset(_ context.Context, id string) (*storage.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, ok := s.datasets[id]
	if !ok {
		return nil, storage.ErrNotFound{Kind: "dataset", ID: id}
	}

	cp := *ds
	return &cp, nil
}

func (s *Store) ListDatasets(_ context.Context) ([]*storage.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*storage.Dataset, 0, len(s.datasets))
	for _, ds := range s.datasets {
		cp := *ds
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

func (s *Store) DeleteDataset(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.datasets, id)
	for entryID, entry := range s.entries {
		if entry.DatasetID == id {
			delete(s.entries, entryID)
		}
	}
	for insightID, insight := range s.insights {
		if insight.DatasetID == id {
			delete(s.insights, insightID)
		}
	}

	return nil
}

func (s *Store) PutDictionaryEntry(_ context.Context, entry *storage.DictionaryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *entry
	s.entries[entry.ID] = &cp

	return nil
}

func (s *Store) GetDictionaryEntry(_ context.Context, id string) (*storage.DictionaryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, storage.ErrNotFound{Kind: "dictionary entry", ID: id}
	}

	cp := *entry
	return &cp, nil
}

func (s *Store) ListDictionaryEntries(_ context.Context, datasetID string) ([]*storage.DictionaryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*storage.DictionaryEntry
	for _, entry := range s.entries {
		if datasetID != "" && entry.DatasetID != datasetID {
			continue
		}
		cp := *entry
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DatasetID != out[j].DatasetID {
			return out[i].DatasetID < out[j].DatasetID
		}
		return out[i].Column < out[j].Column
	})

	return out, nil
}

func (s *Store) PutInsight(_ context.Context, insight *storage.Insight) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *insight
	s.insights[insight.ID] = &cp

	return nil
}

func (s *Store) GetInsight(_ context.Context, id string) (*storage.Insight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	insight, ok := s.insights[id]
	if !ok {
		return nil, storage.ErrNotFound{Kind: "insight", ID: id}
	}

	cp := *insight
	return &cp, nil
}

func (s *Store) ListInsights(_ context.Context, datasetID string) ([]*storage.Insight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*storage.Insight
	for _, insight := range s.insights {
		if datasetID != "" && insight.DatasetID != datasetID {
			continue
		}
		cp := *insight
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

func (s *Store) PutModel(_ context.Context, model *storage.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *model
	s.models[model.ID] = &cp

	return nil
}

func (s *Store) GetModel(_ context.Context, id string) (*storage.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	model, ok := s.models[id]
	if !ok {
		return nil, storage.ErrNotFound{Kind: "model", ID: id}
	}

	cp := *model
	return &cp, nil
}

func (s *Store) ListModels(_ context.Context) ([]*storage.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*storage.Model, 0, len(s.models))
	for _, model := range s.models {
		cp := *model
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

func (s *Store) PutRecipe(_ context.Context, recipe *storage.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *recipe
	s.recipes[recipe.ID] = &cp

	return nil
}

func (s *Store) GetRecipe(_ context.Context, id string) (*storage.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recipe, ok := s.recipes[id]
	if !ok {
		return nil, storage.ErrNotFound{Kind: "recipe", ID: id}
	}

	cp := *recipe
	return &cp, nil
}

func (s *Store) ListRecipes(_ context.Context) ([]*storage.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*storage.Recipe, 0, len(s.recipes))
	for _, recipe := range s.recipes {
		cp := *recipe
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

func (s *Store) PutRun(_ context.Context, run *storage.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *run
	s.runs[run.ID] = &cp

	return nil
}

func (s *Store) GetRun(_ context.Context, id string) (*storage.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, storage.ErrNotFound{Kind: "run", ID: id}
	}

	cp := *run
	return &cp, nil
}

func (s *Store) ListRuns(_ context.Context, recipeID string) ([]*storage.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*storage.Run
	for _, run := range s.runs {
		if recipeID != "" && run.RecipeID != recipeID {
			continue
		}
		cp := *run
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})

	return out, nil
}
