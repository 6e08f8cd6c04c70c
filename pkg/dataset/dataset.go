// Package dataset ingests uploaded CSV files into per-dataset row tables and
// records catalog metadata alongside a column profile.
package dataset

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corelens-ai/corelens/pkg/eventstream"
	"github.com/corelens-ai/corelens/pkg/storage"
	"github.com/corelens-ai/corelens/pkg/storage/sqlstore"
)

const (
	// insertBatchSize bounds the rows per INSERT statement during ingestion.
	insertBatchSize = 200

	// MaxColumns bounds the width of an ingested CSV.
	MaxColumns = 512
)

// Service ingests datasets and manages their row tables.
type Service struct {
	db      *sql.DB
	dialect sqlstore.Dialect
	store   storage.Store
	events  eventstream.Publisher
	logger  *zap.Logger
}

// NewService wires ingestion against the shared database. The db must be the
// same database the catalog store writes to so queries can join both.
func NewService(db *sql.DB, dialect sqlstore.Dialect, store storage.Store, events eventstream.Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		db:      db,
		dialect: dialect,
		store:   store,
		events:  events,
		logger:  logger,
	}
}

// Ingest parses the CSV stream, infers column types, loads the rows into a
// fresh ds_<id> table, profiles the columns, and records the dataset in the
// catalog. The first CSV record is treated as the header.
func (s *Service) Ingest(ctx context.Context, name, filename string, src io.Reader) (*storage.Dataset, error) {
	reader := csv.NewReader(src)
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty CSV: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	if len(header) > MaxColumns {
		return nil, fmt.Errorf("too many columns: %d exceeds limit of %d", len(header), MaxColumns)
	}

	columns := sanitizeColumns(header)

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row %d: %w", len(records)+2, err)
		}
		records = append(records, record)
	}

	profile := profileColumns(columns, records)

	id := uuid.NewString()
	tableName := "ds_" + strings.ReplaceAll(id, "-", "")

	if err := s.createTable(ctx, tableName, profile); err != nil {
		return nil, err
	}

	if err := s.loadRows(ctx, tableName, profile, records); err != nil {
		s.dropTable(context.WithoutCancel(ctx), tableName)
		return nil, err
	}

	ds := &storage.Dataset{
		ID:        id,
		Name:      name,
		Filename:  filename,
		TableName: tableName,
		RowCount:  len(records),
		Columns:   profile,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.PutDataset(ctx, ds); err != nil {
		s.dropTable(context.WithoutCancel(ctx), tableName)
		return nil, fmt.Errorf("recording dataset: %w", err)
	}

	// Seed one blank dictionary entry per column so gap analysis and the
	// dictionary UI see the full schema immediately.
	for _, col := range profile {
		entry := &storage.DictionaryEntry{
			ID:        uuid.NewString(),
			DatasetID: id,
			Column:    col.Name,
			Tags:      []string{},
			UpdatedAt: ds.CreatedAt,
		}
		if err := s.store.PutDictionaryEntry(ctx, entry); err != nil {
			return nil, fmt.Errorf("seeding dictionary entry for %s: %w", col.Name, err)
		}
	}

	s.logger.Info("dataset ingested",
		zap.String("dataset_id", ds.ID),
		zap.String("name", ds.Name),
		zap.Int("rows", ds.RowCount),
		zap.Int("columns", len(ds.Columns)),
	)

	if s.events != nil {
		ev := eventstream.NewDatasetIngested(eventstream.DatasetIngestedPayload{
			DatasetID: ds.ID,
			Name:      ds.Name,
			RowCount:  ds.RowCount,
			Columns:   len(ds.Columns),
		})
		if err := s.events.Publish(ctx, ev); err != nil {
			s.logger.Warn("publishing dataset event failed", zap.Error(err))
		}
	}

	return ds, nil
}

// Delete removes the dataset's row table and its catalog records.
func (s *Service) Delete(ctx context.Context, id string) error {
	ds, err := s.store.GetDataset(ctx, id)
	if err != nil {
		return err
	}

	s.dropTable(ctx, ds.TableName)

	return s.store.DeleteDataset(ctx, id)
}

func (s *Service) createTable(ctx context.Context, tableName string, columns []storage.ColumnMeta) error {
	defs := make([]string, 0, len(columns))
	for _, col := range columns {
		defs = append(defs, quoteIdent(col.Name)+" "+sqlType(col.Type))
	}

	stmt := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(tableName), strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("creating table %s: %w", tableName, err)
	}

	return nil
}

func (s *Service) dropTable(ctx context.Context, tableName string) {
	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(tableName)); err != nil {
		s.logger.Warn("dropping table failed", zap.String("table", tableName), zap.Error(err))
	}
}

func (s *Service) loadRows(ctx context.Context, tableName string, columns []storage.ColumnMeta, records [][]string) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	names := make([]string, 0, len(columns))
	for _, col := range columns {
		names = append(names, quoteIdent(col.Name))
	}

	for start := 0; start < len(records); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		placeholders := make([]string, 0, len(batch))
		args := make([]any, 0, len(batch)*len(columns))
		row := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
		for _, record := range batch {
			placeholders = append(placeholders, row)
			for i, col := range columns {
				var raw string
				if i < len(record) {
					raw = record[i]
				}
				args = append(args, convertValue(col.Type, raw))
			}
		}

		stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
			quoteIdent(tableName), strings.Join(names, ", "), strings.Join(placeholders, ", "))
		if _, err := tx.ExecContext(ctx, sqlstore.Bind(s.dialect, stmt), args...); err != nil {
			return fmt.Errorf("inserting rows %d-%d: %w", start+1, end, err)
		}
	}

	return tx.Commit()
}

// sanitizeColumns lowercases headers and replaces anything outside
// [a-z0-9_], deduplicating collisions with a numeric suffix.
func sanitizeColumns(header []string) []storage.ColumnMeta {
	seen := make(map[string]int, len(header))
	out := make([]storage.ColumnMeta, 0, len(header))

	for i, raw := range header {
		name := sanitizeIdent(raw)
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = name + "_" + strconv.Itoa(n+1)
		}
		seen[name] = 1

		out = append(out, storage.ColumnMeta{Name: name})
	}

	return out
}

func sanitizeIdent(raw string) string {
	var b strings.Builder
	for _, ch := range strings.ToLower(strings.TrimSpace(raw)) {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9', ch == '_':
			b.WriteRune(ch)
		case ch == ' ', ch == '-', ch == '.', ch == '/':
			b.WriteByte('_')
		}
	}

	name := b.String()
	if name != "" && name[0] >= '0' && name[0] <= '9' {
		name = "c_" + name
	}

	return name
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}

// profileColumns infers a type per column and computes null and distinct
// counts in a single pass over the records.
func profileColumns(columns []storage.ColumnMeta, records [][]string) []storage.ColumnMeta {
	type state struct {
		canBool  bool
		canInt   bool
		canReal  bool
		nulls    int
		distinct map[string]struct{}
	}

	states := make([]state, len(columns))
	for i := range states {
		states[i] = state{canBool: true, canInt: true, canReal: true, distinct: make(map[string]struct{})}
	}

	for _, record := range records {
		for i := range columns {
			var raw string
			if i < len(record) {
				raw = strings.TrimSpace(record[i])
			}
			if raw == "" {
				states[i].nulls++
				continue
			}

			states[i].distinct[raw] = struct{}{}

			if states[i].canBool && !isBool(raw) {
				states[i].canBool = false
			}
			if states[i].canInt {
				if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
					states[i].canInt = false
				}
			}
			if states[i].canReal {
				if _, err := strconv.ParseFloat(raw, 64); err != nil {
					states[i].canReal = false
				}
			}
		}
	}

	out := make([]storage.ColumnMeta, len(columns))
	for i, col := range columns {
		st := states[i]

		colType := "text"
		switch {
		case len(st.distinct) == 0:
			colType = "text"
		case st.canBool:
			colType = "boolean"
		case st.canInt:
			colType = "integer"
		case st.canReal:
			colType = "real"
		}

		out[i] = storage.ColumnMeta{
			Name:          col.Name,
			Type:          colType,
			NullCount:     st.nulls,
			DistinctCount: len(st.distinct),
		}
	}

	return out
}

func isBool(raw string) bool {
	switch strings.ToLower(raw) {
	case "true", "false":
		return true
	default:
		return false
	}
}

// convertValue parses the raw CSV cell into the Go type matching the column.
// Empty cells become NULL. Cells that fail to parse fall back to text so a
// late surprise cannot abort the load.
func convertValue(colType, raw string) any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	switch colType {
	case "boolean":
		return strings.EqualFold(raw, "true")
	case "integer":
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return v
		}
	case "real":
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}

	return raw
}

func sqlType(colType string) string {
	switch colType {
	case "integer":
		return "INTEGER"
	case "real":
		return "REAL"
	case "boolean":
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}
