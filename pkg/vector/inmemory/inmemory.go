// Package inmemory implements the vector Driver with brute-force cosine
// similarity. It backs tests and single-process deployments.
package inmemory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/corelens-ai/corelens/pkg/vector"
)

type Driver struct {
	mu   sync.RWMutex
	docs map[string]vector.Document
}

func NewDriver() *Driver {
	return &Driver{docs: make(map[string]vector.Document)}
}

func (d *Driver) Add(_ context.Context, docs []vector.Document) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, doc := range docs {
		cp := doc
		cp.Embedding = append([]float32(nil), doc.Embedding...)
		d.docs[doc.ID] = cp
	}

	return nil
}

func (d *Driver) Query(_ context.Context, embedding []float32, topK int, datasetID string) ([]vector.QueryResult, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var results []vector.QueryResult
	for _, doc := range d.docs {
		if datasetID != "" && doc.DatasetID != datasetID {
			continue
		}
		results = append(results, vector.QueryResult{
			Document: doc,
			Score:    cosine(embedding, doc.Embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}

	return results, nil
}

func (d *Driver) Delete(_ context.Context, ids []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, id := range ids {
		delete(d.docs, id)
	}

	return nil
}

func (d *Driver) Close() error {
	return nil
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
