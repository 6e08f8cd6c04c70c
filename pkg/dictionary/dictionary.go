// Package dictionary manages column descriptions for datasets and serves
// both exact and semantic lookups over them.
package dictionary

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corelens-ai/corelens/pkg/dictionary/worker"
	"github.com/corelens-ai/corelens/pkg/embeddings"
	"github.com/corelens-ai/corelens/pkg/storage"
	"github.com/corelens-ai/corelens/pkg/vector"
)

// Indexer queues entries for background embedding and indexing.
// *worker.Pool satisfies this.
type Indexer interface {
	Enqueue(job worker.Job) bool
}

// DefaultSearchLimit bounds search results when no limit is given.
const DefaultSearchLimit = 10

// SearchResult pairs a dictionary entry with its relevance score.
type SearchResult struct {
	Entry *storage.DictionaryEntry `json:"entry"`
	Score float32                  `json:"score"`
}

// Service manages dictionary entries. The embedder and vector driver are
// optional; without them Search falls back to substring matching.
type Service struct {
	store    storage.Store
	embedder embeddings.Embedder
	vectors  vector.Driver
	indexer  Indexer
	logger   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithSemanticSearch enables embedding-backed search.
func WithSemanticSearch(embedder embeddings.Embedder, vectors vector.Driver) Option {
	return func(s *Service) {
		s.embedder = embedder
		s.vectors = vectors
	}
}

// WithAsyncIndexer routes indexing through a background worker pool instead
// of embedding synchronously on the write path. Search still uses the
// embedder and vector driver from WithSemanticSearch.
func WithAsyncIndexer(indexer Indexer) Option {
	return func(s *Service) {
		s.indexer = indexer
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a dictionary service over the catalog store.
func NewService(store storage.Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Upsert creates or updates the entry for a dataset column. The column must
// exist on the dataset. An existing entry for the same column keeps its ID.
func (s *Service) Upsert(ctx context.Context, datasetID, column, description string, tags []string) (*storage.DictionaryEntry, error) {
	ds, err := s.store.GetDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	if !hasColumn(ds, column) {
		return nil, fmt.Errorf("dataset %s has no column %q", datasetID, column)
	}

	entry := &storage.DictionaryEntry{
		ID:          uuid.NewString(),
		DatasetID:   datasetID,
		Column:      column,
		Description: description,
		Tags:        tags,
		UpdatedAt:   time.Now().UTC(),
	}
	if tags == nil {
		entry.Tags = []string{}
	}

	existing, err := s.store.ListDictionaryEntries(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	for _, e := range existing {
		if e.Column == column {
			entry.ID = e.ID
			break
		}
	}

	if err := s.store.PutDictionaryEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("storing dictionary entry: %w", err)
	}

	if s.indexer != nil {
		s.indexer.Enqueue(worker.Job{Entry: entry})
	} else {
		s.index(ctx, entry)
	}

	return entry, nil
}

// index embeds the entry text and stores the vector. Index failures are
// logged, not returned: the entry itself is already persisted.
func (s *Service) index(ctx context.Context, entry *storage.DictionaryEntry) {
	if s.embedder == nil || s.vectors == nil {
		return
	}

	embedding, err := s.embedder.Embed(ctx, entryText(entry))
	if err != nil {
		s.logger.Warn("embedding dictionary entry failed",
			zap.String("entry_id", entry.ID),
			zap.Error(err),
		)
		return
	}

	err = s.vectors.Add(ctx, []vector.Document{{
		ID:        entry.ID,
		DatasetID: entry.DatasetID,
		Embedding: embedding,
	}})
	if err != nil {
		s.logger.Warn("indexing dictionary entry failed",
			zap.String("entry_id", entry.ID),
			zap.Error(err),
		)
	}
}

// Get returns a single entry by ID.
func (s *Service) Get(ctx context.Context, id string) (*storage.DictionaryEntry, error) {
	return s.store.GetDictionaryEntry(ctx, id)
}

// List returns entries, optionally scoped to a dataset.
func (s *Service) List(ctx context.Context, datasetID string) ([]*storage.DictionaryEntry, error) {
	return s.store.ListDictionaryEntries(ctx, datasetID)
}

// Search finds entries relevant to the query. With semantic search enabled
// it ranks by embedding similarity, otherwise by substring match over
// column names, descriptions, and tags.
func (s *Service) Search(ctx context.Context, datasetID, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	if s.embedder != nil && s.vectors != nil {
		results, err := s.semanticSearch(ctx, datasetID, query, limit)
		if err == nil {
			return results, nil
		}
		s.logger.Warn("semantic search failed, falling back to substring match", zap.Error(err))
	}

	return s.substringSearch(ctx, datasetID, query, limit)
}

func (s *Service) semanticSearch(ctx context.Context, datasetID, query string, limit int) ([]SearchResult, error) {
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	matches, err := s.vectors.Query(ctx, embedding, limit, datasetID)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(matches))
	for _, match := range matches {
		entry, err := s.store.GetDictionaryEntry(ctx, match.ID)
		if err != nil {
			// The vector index can lag behind deletions.
			continue
		}
		results = append(results, SearchResult{Entry: entry, Score: match.Score})
	}

	return results, nil
}

func (s *Service) substringSearch(ctx context.Context, datasetID, query string, limit int) ([]SearchResult, error) {
	entries, err := s.store.ListDictionaryEntries(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(query))

	var results []SearchResult
	for _, entry := range entries {
		score := matchScore(entry, needle)
		if score > 0 {
			results = append(results, SearchResult{Entry: entry, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

func matchScore(entry *storage.DictionaryEntry, needle string) float32 {
	if needle == "" {
		return 0
	}

	if strings.Contains(strings.ToLower(entry.Column), needle) {
		return 1.0
	}
	for _, tag := range entry.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return 0.75
		}
	}
	if strings.Contains(strings.ToLower(entry.Description), needle) {
		return 0.5
	}

	return 0
}

func entryText(entry *storage.DictionaryEntry) string {
	parts := []string{entry.Column, entry.Description}
	parts = append(parts, entry.Tags...)

	return strings.Join(parts, " ")
}

func hasColumn(ds *storage.Dataset, column string) bool {
	for _, col := range ds.Columns {
		if col.Name == column {
			return true
		}
	}

	return false
}
