// Package insights generates narrative dataset summaries with an LLM and
// records them in the catalog.
package insights

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corelens-ai/corelens/pkg/eventstream"
	"github.com/corelens-ai/corelens/pkg/llm"
	"github.com/corelens-ai/corelens/pkg/llm/provider"
	"github.com/corelens-ai/corelens/pkg/storage"
)

const systemPrompt = `You are a data analyst. Given a dataset profile, write a short
markdown report: start with a one-line title heading, then 3-5 bullet points
covering notable distributions, data quality concerns, and suggested analyses.
Be specific to the columns you are shown. Do not invent data you cannot see.`

// Service generates and stores insights.
type Service struct {
	store    storage.Store
	provider provider.Provider
	model    string
	events   eventstream.Publisher
	logger   *zap.Logger
}

// NewService wires insight generation against an LLM provider.
func NewService(store storage.Store, p provider.Provider, model string, events eventstream.Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		store:    store,
		provider: p,
		model:    model,
		events:   events,
		logger:   logger,
	}
}

// Generate profiles the dataset into a prompt, asks the model for a report,
// and stores the result as a new insight.
func (s *Service) Generate(ctx context.Context, datasetID string) (*storage.Insight, error) {
	ds, err := s.store.GetDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	entries, err := s.store.ListDictionaryEntries(ctx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("loading dictionary entries: %w", err)
	}

	resp, err := s.provider.Chat(ctx, &llm.ChatRequest{
		Model:  s.model,
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: buildPrompt(ds, entries)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("generating insight: %w", err)
	}

	content := strings.TrimSpace(resp.Message.Content)
	if content == "" {
		return nil, fmt.Errorf("model returned an empty insight")
	}

	insight := &storage.Insight{
		ID:        uuid.NewString(),
		DatasetID: ds.ID,
		Title:     extractTitle(content, ds.Name),
		Content:   content,
		Model:     s.model,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.PutInsight(ctx, insight); err != nil {
		return nil, fmt.Errorf("storing insight: %w", err)
	}

	s.logger.Info("insight generated",
		zap.String("dataset_id", ds.ID),
		zap.String("insight_id", insight.ID),
		zap.String("model", s.model),
	)

	if s.events != nil {
		ev := eventstream.NewInsightGenerated(eventstream.InsightGeneratedPayload{
			InsightID: insight.ID,
			DatasetID: ds.ID,
			Title:     insight.Title,
			Model:     s.model,
		})
		if err := s.events.Publish(ctx, ev); err != nil {
			s.logger.Warn("publishing insight event failed", zap.Error(err))
		}
	}

	return insight, nil
}

// buildPrompt renders the profile and any column documentation as the user
// message.
func buildPrompt(ds *storage.Dataset, entries []*storage.DictionaryEntry) string {
	descriptions := make(map[string]string, len(entries))
	for _, entry := range entries {
		descriptions[entry.Column] = entry.Description
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dataset %q (%d rows, file %s)\n\nColumns:\n", ds.Name, ds.RowCount, ds.Filename)
	for _, col := range ds.Columns {
		fmt.Fprintf(&b, "- %s (%s): %d nulls, %d distinct values", col.Name, col.Type, col.NullCount, col.DistinctCount)
		if desc := descriptions[col.Name]; desc != "" {
			fmt.Fprintf(&b, " - %s", desc)
		}
		b.WriteByte('\n')
	}

	return b.String()
}

// extractTitle pulls the first markdown heading, falling back to a name
// derived from the dataset.
func extractTitle(content, datasetName string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
	}

	return "Insights for " + datasetName
}
