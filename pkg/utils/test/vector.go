package testutils

import (
	"context"

	"github.com/corelens-ai/corelens/pkg/vector"
)

// MockVectorDriver is a test vector driver
type MockVectorDriver struct {
	Documents []vector.Document
	Results   []vector.QueryResult

	// Deleted accumulates IDs passed to Delete.
	Deleted []string
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		Documents: make([]vector.Document, 0),
		Results:   make([]vector.QueryResult, 0),
	}
}

func (m *MockVectorDriver) Add(_ context.Context, docs []vector.Document) error {
	m.Documents = append(m.Documents, docs...)
	return nil
}

func (m *MockVectorDriver) Query(_ context.Context, _ []float32, topK int, datasetID string) ([]vector.QueryResult, error) {
	results := m.Results
	if datasetID != "" {
		filtered := make([]vector.QueryResult, 0, len(results))
		for _, r := range results {
			if r.DatasetID == datasetID {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}

	if len(results) < topK {
		return results, nil
	}
	return results[:topK], nil
}

func (m *MockVectorDriver) Delete(_ context.Context, ids []string) error {
	m.Deleted = append(m.Deleted, ids...)
	return nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}
