// Package quality evaluates datasets against completeness, uniqueness, and
// documentation checks and folds the findings into a single report.
package quality

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/corelens-ai/corelens/pkg/storage"
)

// ColumnReport carries per-column findings.
type ColumnReport struct {
	Column        string  `json:"column"`
	Type          string  `json:"type"`
	NullCount     int     `json:"null_count"`
	NullRatio     float64 `json:"null_ratio"`
	DistinctCount int     `json:"distinct_count"`
	Constant      bool    `json:"constant"`
	Documented    bool    `json:"documented"`
}

// Report summarizes dataset quality. Score ranges 0 to 100.
type Report struct {
	DatasetID           string         `json:"dataset_id"`
	RowCount            int            `json:"row_count"`
	Score               float64        `json:"score"`
	DuplicateRows       int            `json:"duplicate_rows"`
	Columns             []ColumnReport `json:"columns"`
	UndocumentedColumns []string       `json:"undocumented_columns"`
	GeneratedAt         time.Time      `json:"generated_at"`
}

// Service evaluates dataset quality from the stored profile plus live SQL
// checks against the row table.
type Service struct {
	db     *sql.DB
	store  storage.Store
	logger *zap.Logger
}

// NewService wires the quality checks against the shared dataset database.
func NewService(db *sql.DB, store storage.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{db: db, store: store, logger: logger}
}

// Evaluate builds the quality report for a dataset.
func (s *Service) Evaluate(ctx context.Context, datasetID string) (*Report, error) {
	ds, err := s.store.GetDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	entries, err := s.store.ListDictionaryEntries(ctx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("loading dictionary entries: %w", err)
	}

	documented := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry.Description) != "" {
			documented[entry.Column] = true
		}
	}

	report := &Report{
		DatasetID:           ds.ID,
		RowCount:            ds.RowCount,
		Columns:             make([]ColumnReport, 0, len(ds.Columns)),
		UndocumentedColumns: []string{},
		GeneratedAt:         time.Now().UTC(),
	}

	for _, col := range ds.Columns {
		cr := ColumnReport{
			Column:        col.Name,
			Type:          col.Type,
			NullCount:     col.NullCount,
			DistinctCount: col.DistinctCount,
			Constant:      ds.RowCount > 0 && col.DistinctCount <= 1,
			Documented:    documented[col.Name],
		}
		if ds.RowCount > 0 {
			cr.NullRatio = float64(col.NullCount) / float64(ds.RowCount)
		}

		report.Columns = append(report.Columns, cr)
		if !cr.Documented {
			report.UndocumentedColumns = append(report.UndocumentedColumns, col.Name)
		}
	}

	duplicates, err := s.countDuplicateRows(ctx, ds)
	if err != nil {
		return nil, err
	}
	report.DuplicateRows = duplicates

	report.Score = score(report)

	s.logger.Debug("evaluated dataset quality",
		zap.String("dataset_id", ds.ID),
		zap.Float64("score", report.Score),
		zap.Int("duplicate_rows", duplicates),
	)

	return report, nil
}

// countDuplicateRows counts rows beyond the first occurrence of each fully
// identical row.
func (s *Service) countDuplicateRows(ctx context.Context, ds *storage.Dataset) (int, error) {
	if ds.RowCount == 0 || len(ds.Columns) == 0 {
		return 0, nil
	}

	names := make([]string, 0, len(ds.Columns))
	for _, col := range ds.Columns {
		names = append(names, `"`+col.Name+`"`)
	}
	cols := strings.Join(names, ", ")

	query := fmt.Sprintf(
		`SELECT COALESCE(SUM(n - 1), 0) FROM (SELECT COUNT(*) AS n FROM "%s" GROUP BY %s HAVING COUNT(*) > 1) dup`,
		ds.TableName, cols,
	)

	var duplicates int
	if err := s.db.QueryRowContext(ctx, query).Scan(&duplicates); err != nil {
		return 0, fmt.Errorf("counting duplicate rows: %w", err)
	}

	return duplicates, nil
}

// score weights completeness, uniqueness, and documentation coverage.
func score(report *Report) float64 {
	if len(report.Columns) == 0 {
		return 0
	}

	var nullSum float64
	for _, col := range report.Columns {
		nullSum += col.NullRatio
	}
	avgNullRatio := nullSum / float64(len(report.Columns))

	var dupRatio float64
	if report.RowCount > 0 {
		dupRatio = float64(report.DuplicateRows) / float64(report.RowCount)
	}

	undocRatio := float64(len(report.UndocumentedColumns)) / float64(len(report.Columns))

	s := 100 - avgNullRatio*40 - dupRatio*30 - undocRatio*30
	if s < 0 {
		s = 0
	}

	return s
}
