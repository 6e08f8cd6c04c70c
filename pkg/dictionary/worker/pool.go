// Package worker provides an asynchronous worker pool for embedding and
// indexing dictionary entries using the provided embeddings.Embedder and
// vector.Driver.
//
// The pool decouples embedding calls from the API request hot path so that
// dictionary writes return as soon as the entry itself is persisted.
package worker

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/corelens-ai/corelens/pkg/embeddings"
	"github.com/corelens-ai/corelens/pkg/storage"
	"github.com/corelens-ai/corelens/pkg/vector"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	// Entry is the dictionary entry to embed and index.
	Entry *storage.DictionaryEntry
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Embedder generates text embeddings for dictionary entries.
	Embedder embeddings.Embedder

	// Vectors is the vector store the embeddings are written to.
	Vectors vector.Driver

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger is the provided zap logger
	Logger *zap.Logger
}

// Pool indexes dictionary entries asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewPool creates a new indexing pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if c.Vectors == nil {
		return nil, fmt.Errorf("vector driver is required")
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits an entry for indexing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("index job queued",
			zap.String("entry_id", job.Entry.ID),
			zap.String("column", job.Entry.Column),
		)
		return true
	default:
		p.logger.Error("index job not queued, queue full, job dropped",
			zap.String("entry_id", job.Entry.ID),
			zap.String("column", job.Entry.Column),
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the API server has stopped.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("index worker started", zap.Uint("worker_id", id))

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("index worker stopped", zap.Uint("worker_id", id))
}

// processJob embeds one entry and writes the vector. Failures are logged,
// not returned: the entry itself is already persisted in the catalog.
func (p *Pool) processJob(job Job) {
	ctx := context.Background()
	entry := job.Entry

	text := entryText(entry)
	if text == "" {
		p.logger.Debug("skipping entry with no text",
			zap.String("entry_id", entry.ID),
		)
		return
	}

	embedding, err := p.config.Embedder.Embed(ctx, text)
	if err != nil {
		p.logger.Warn("failed to generate embedding",
			zap.String("entry_id", entry.ID),
			zap.Error(err),
		)
		return
	}

	doc := vector.Document{
		ID:        entry.ID,
		DatasetID: entry.DatasetID,
		Embedding: embedding,
	}

	if err := p.config.Vectors.Add(ctx, []vector.Document{doc}); err != nil {
		p.logger.Warn("failed to store embedding",
			zap.String("entry_id", entry.ID),
			zap.Error(err),
		)
		return
	}

	p.logger.Debug("indexed dictionary entry",
		zap.String("entry_id", entry.ID),
		zap.Int("embedding_dim", len(embedding)),
	)
}

func entryText(entry *storage.DictionaryEntry) string {
	parts := []string{entry.Column, entry.Description}
	parts = append(parts, entry.Tags...)

	return strings.TrimSpace(strings.Join(parts, " "))
}
