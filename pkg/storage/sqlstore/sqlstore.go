// Package sqlstore implements storage.Store on ent's SQL dialect layer.
// It is shared by the sqlite, postgres, and libsql drivers, which differ
// only in how the *sql.DB is opened and which dialect applies. The catalog
// schema is created by ent's auto-migration (see migrate.go); queries go
// through ent's dialect-aware builders.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/corelens-ai/corelens/pkg/storage"
)

// Dialect selects the SQL dialect of the backing database.
type Dialect int

const (
	// DialectSQLite covers sqlite and libsql.
	DialectSQLite Dialect = iota

	// DialectPostgres covers postgres.
	DialectPostgres
)

var (
	datasetColumns    = []string{"id", "name", "filename", "table_name", "row_count", "columns", "created_at"}
	dictionaryColumns = []string{"id", "dataset_id", "column_name", "description", "tags", "updated_at"}
	insightColumns    = []string{"id", "dataset_id", "title", "content", "model", "created_at"}
	modelColumns      = []string{"id", "name", "task", "version", "created_at"}
	recipeColumns     = []string{"id", "name", "model_id", "definition", "created_at"}
	runColumns        = []string{"id", "recipe_id", "status", "error", "metrics", "started_at", "finished_at"}
)

// Store is a storage.Store backed by a SQL database through ent's driver.
type Store struct {
	drv     *entsql.Driver
	dialect Dialect
}

// New wraps an opened database with ent's SQL driver and runs schema
// migration. The caller owns the *sql.DB lifetime until Close is called
// on the Store.
func New(db *sql.DB, dialect Dialect) (*Store, error) {
	s := &Store{
		drv:     entsql.OpenDB(dialect.entName(), db),
		dialect: dialect,
	}

	if err := s.migrate(context.Background()); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return s, nil
}

// DB exposes the underlying database for components that manage per-dataset
// row tables (ingestion, explorer) alongside the catalog.
func (s *Store) DB() *sql.DB {
	return s.drv.DB()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.drv.Close()
}

// Dialect reports the dialect the store was opened with.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Bind rewrites ? placeholders to the dialect's style. It serves the raw
// SQL paths that manage dynamic per-dataset tables, which sit outside the
// ent-managed catalog schema.
func Bind(dialect Dialect, query string) string {
	if dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}

	return b.String()
}

func (s *Store) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.dialect.entName())
}

func (s *Store) insert(ctx context.Context, b *entsql.InsertBuilder) error {
	query, args := b.Query()

	var res sql.Result
	return s.drv.Exec(ctx, query, args, &res)
}

func (s *Store) delete(ctx context.Context, table string, p *entsql.Predicate) error {
	query, args := s.builder().Delete(table).Where(p).Query()

	var res sql.Result
	return s.drv.Exec(ctx, query, args, &res)
}

func (s *Store) query(ctx context.Context, selector *entsql.Selector) (*entsql.Rows, error) {
	query, args := selector.Query()

	rows := &entsql.Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}

	return rows, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func marshalJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding JSON column: %w", err)
	}

	return data, nil
}

func (s *Store) PutDataset(ctx context.Context, ds *storage.Dataset) error {
	columns, err := marshalJSON(ds.Columns)
	if err != nil {
		return err
	}

	return s.insert(ctx, s.builder().
		Insert(DatasetsTable.Name).
		Columns(datasetColumns...).
		Values(ds.ID, ds.Name, ds.Filename, ds.TableName, ds.RowCount, columns, ds.CreatedAt.UTC()).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()))
}

func (s *Store) GetDataset(ctx context.Context, id string) (*storage.Dataset, error) {
	rows, err := s.query(ctx, s.builder().
		Select(datasetColumns...).
		From(entsql.Table(DatasetsTable.Name)).
		Where(entsql.EQ("id", id)))
	if err != nil {
		return nil, fmt.Errorf("querying dataset: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, storage.ErrNotFound{Kind: "dataset", ID: id}
	}

	return scanDataset(rows)
}

func (s *Store) ListDatasets(ctx context.Context) ([]*storage.Dataset, error) {
	rows, err := s.query(ctx, s.builder().
		Select(datasetColumns...).
		From(entsql.Table(DatasetsTable.Name)).
		OrderBy(entsql.Desc("created_at")))
	if err != nil {
		return nil, fmt.Errorf("listing datasets: %w", err)
	}
	defer rows.Close()

	var out []*storage.Dataset
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ds)
	}

	return out, rows.Err()
}

func (s *Store) DeleteDataset(ctx context.Context, id string) error {
	if err := s.delete(ctx, DictionaryEntriesTable.Name, entsql.EQ("dataset_id", id)); err != nil {
		return err
	}
	if err := s.delete(ctx, InsightsTable.Name, entsql.EQ("dataset_id", id)); err != nil {
		return err
	}

	return s.delete(ctx, DatasetsTable.Name, entsql.EQ("id", id))
}

func scanDataset(row rowScanner) (*storage.Dataset, error) {
	var ds storage.Dataset
	var columns []byte

	if err := row.Scan(&ds.ID, &ds.Name, &ds.Filename, &ds.TableName, &ds.RowCount, &columns, &ds.CreatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(columns, &ds.Columns); err != nil {
		return nil, fmt.Errorf("decoding columns for dataset %s: %w", ds.ID, err)
	}

	return &ds, nil
}

func (s *Store) PutDictionaryEntry(ctx context.Context, entry *storage.DictionaryEntry) error {
	tags, err := marshalJSON(entry.Tags)
	if err != nil {
		return err
	}

	return s.insert(ctx, s.builder().
		Insert(DictionaryEntriesTable.Name).
		Columns(dictionaryColumns...).
		Values(entry.ID, entry.DatasetID, entry.Column, entry.Description, tags, entry.UpdatedAt.UTC()).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()))
}

func (s *Store) GetDictionaryEntry(ctx context.Context, id string) (*storage.DictionaryEntry, error) {
	rows, err := s.query(ctx, s.builder().
		Select(dictionaryColumns...).
		From(entsql.Table(DictionaryEntriesTable.Name)).
		Where(entsql.EQ("id", id)))
	if err != nil {
		return nil, fmt.Errorf("querying dictionary entry: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, storage.ErrNotFound{Kind: "dictionary entry", ID: id}
	}

	return scanDictionaryEntry(rows)
}

func (s *Store) ListDictionaryEntries(ctx context.Context, datasetID string) ([]*storage.DictionaryEntry, error) {
	selector := s.builder().
		Select(dictionaryColumns...).
		From(entsql.Table(DictionaryEntriesTable.Name)).
		OrderBy(entsql.Asc("dataset_id"), entsql.Asc("column_name"))
	if datasetID != "" {
		selector.Where(entsql.EQ("dataset_id", datasetID))
	}

	rows, err := s.query(ctx, selector)
	if err != nil {
		return nil, fmt.Errorf("listing dictionary entries: %w", err)
	}
	defer rows.Close()

	var out []*storage.DictionaryEntry
	for rows.Next() {
		entry, err := scanDictionaryEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}

	return out, rows.Err()
}

func scanDictionaryEntry(row rowScanner) (*storage.DictionaryEntry, error) {
	var entry storage.DictionaryEntry
	var tags []byte

	if err := row.Scan(&entry.ID, &entry.DatasetID, &entry.Column, &entry.Description, &tags, &entry.UpdatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(tags, &entry.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags for entry %s: %w", entry.ID, err)
	}

	return &entry, nil
}

func (s *Store) PutInsight(ctx context.Context, insight *storage.Insight) error {
	return s.insert(ctx, s.builder().
		Insert(InsightsTable.Name).
		Columns(insightColumns...).
		Values(insight.ID, insight.DatasetID, insight.Title, insight.Content, insight.Model, insight.CreatedAt.UTC()).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()))
}

func (s *Store) GetInsight(ctx context.Context, id string) (*storage.Insight, error) {
	rows, err := s.query(ctx, s.builder().
		Select(insightColumns...).
		From(entsql.Table(InsightsTable.Name)).
		Where(entsql.EQ("id", id)))
	if err != nil {
		return nil, fmt.Errorf("querying insight: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, storage.ErrNotFound{Kind: "insight", ID: id}
	}

	return scanInsight(rows)
}

func (s *Store) ListInsights(ctx context.Context, datasetID string) ([]*storage.Insight, error) {
	selector := s.builder().
		Select(insightColumns...).
		From(entsql.Table(InsightsTable.Name)).
		OrderBy(entsql.Desc("created_at"))
	if datasetID != "" {
		selector.Where(entsql.EQ("dataset_id", datasetID))
	}

	rows, err := s.query(ctx, selector)
	if err != nil {
		return nil, fmt.Errorf("listing insights: %w", err)
	}
	defer rows.Close()

	var out []*storage.Insight
	for rows.Next() {
		insight, err := scanInsight(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, insight)
	}

	return out, rows.Err()
}

func scanInsight(row rowScanner) (*storage.Insight, error) {
	var insight storage.Insight

	if err := row.Scan(&insight.ID, &insight.DatasetID, &insight.Title, &insight.Content, &insight.Model, &insight.CreatedAt); err != nil {
		return nil, err
	}

	return &insight, nil
}

func (s *Store) PutModel(ctx context.Context, model *storage.Model) error {
	return s.insert(ctx, s.builder().
		Insert(ModelsTable.Name).
		Columns(modelColumns...).
		Values(model.ID, model.Name, model.Task, model.Version, model.CreatedAt.UTC()).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()))
}

func (s *Store) GetModel(ctx context.Context, id string) (*storage.Model, error) {
	rows, err := s.query(ctx, s.builder().
		Select(modelColumns...).
		From(entsql.Table(ModelsTable.Name)).
		Where(entsql.EQ("id", id)))
	if err != nil {
		return nil, fmt.Errorf("querying model: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, storage.ErrNotFound{Kind: "model", ID: id}
	}

	return scanModel(rows)
}

func (s *Store) ListModels(ctx context.Context) ([]*storage.Model, error) {
	rows, err := s.query(ctx, s.builder().
		Select(modelColumns...).
		From(entsql.Table(ModelsTable.Name)).
		OrderBy(entsql.Desc("created_at")))
	if err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}
	defer rows.Close()

	var out []*storage.Model
	for rows.Next() {
		model, err := scanModel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, model)
	}

	return out, rows.Err()
}

func scanModel(row rowScanner) (*storage.Model, error) {
	var model storage.Model

	if err := row.Scan(&model.ID, &model.Name, &model.Task, &model.Version, &model.CreatedAt); err != nil {
		return nil, err
	}

	return &model, nil
}

func (s *Store) PutRecipe(ctx context.Context, recipe *storage.Recipe) error {
	definition, err := marshalJSON(recipe.Definition)
	if err != nil {
		return err
	}

	return s.insert(ctx, s.builder().
		Insert(RecipesTable.Name).
		Columns(recipeColumns...).
		Values(recipe.ID, recipe.Name, recipe.ModelID, definition, recipe.CreatedAt.UTC()).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()))
}

func (s *Store) GetRecipe(ctx context.Context, id string) (*storage.Recipe, error) {
	rows, err := s.query(ctx, s.builder().
		Select(recipeColumns...).
		From(entsql.Table(RecipesTable.Name)).
		Where(entsql.EQ("id", id)))
	if err != nil {
		return nil, fmt.Errorf("querying recipe: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, storage.ErrNotFound{Kind: "recipe", ID: id}
	}

	return scanRecipe(rows)
}

func (s *Store) ListRecipes(ctx context.Context) ([]*storage.Recipe, error) {
	rows, err := s.query(ctx, s.builder().
		Select(recipeColumns...).
		From(entsql.Table(RecipesTable.Name)).
		OrderBy(entsql.Desc("created_at")))
	if err != nil {
		return nil, fmt.Errorf("listing recipes: %w", err)
	}
	defer rows.Close()

	var out []*storage.Recipe
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, recipe)
	}

	return out, rows.Err()
}

func scanRecipe(row rowScanner) (*storage.Recipe, error) {
	var recipe storage.Recipe
	var definition []byte

	if err := row.Scan(&recipe.ID, &recipe.Name, &recipe.ModelID, &definition, &recipe.CreatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(definition, &recipe.Definition); err != nil {
		return nil, fmt.Errorf("decoding definition for recipe %s: %w", recipe.ID, err)
	}

	return &recipe, nil
}

func (s *Store) PutRun(ctx context.Context, run *storage.Run) error {
	metrics, err := marshalJSON(run.Metrics)
	if err != nil {
		return err
	}

	var finishedAt any
	if run.FinishedAt != nil {
		finishedAt = run.FinishedAt.UTC()
	}

	return s.insert(ctx, s.builder().
		Insert(RunsTable.Name).
		Columns(runColumns...).
		Values(run.ID, run.RecipeID, run.Status, run.Error, metrics, run.StartedAt.UTC(), finishedAt).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()))
}

func (s *Store) GetRun(ctx context.Context, id string) (*storage.Run, error) {
	rows, err := s.query(ctx, s.builder().
		Select(runColumns...).
		From(entsql.Table(RunsTable.Name)).
		Where(entsql.EQ("id", id)))
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, storage.ErrNotFound{Kind: "run", ID: id}
	}

	return scanRun(rows)
}

func (s *Store) ListRuns(ctx context.Context, recipeID string) ([]*storage.Run, error) {
	selector := s.builder().
		Select(runColumns...).
		From(entsql.Table(RunsTable.Name)).
		OrderBy(entsql.Desc("started_at"))
	if recipeID != "" {
		selector.Where(entsql.EQ("recipe_id", recipeID))
	}

	rows, err := s.query(ctx, selector)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []*storage.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}

	return out, rows.Err()
}

func scanRun(row rowScanner) (*storage.Run, error) {
	var run storage.Run
	var metrics []byte
	var finishedAt sql.NullTime

	if err := row.Scan(&run.ID, &run.RecipeID, &run.Status, &run.Error, &metrics, &run.StartedAt, &finishedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(metrics, &run.Metrics); err != nil {
		return nil, fmt.Errorf("decoding metrics for run %s: %w", run.ID, err)
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}

	return &run, nil
}
