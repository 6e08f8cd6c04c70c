package sqlstore

import (
	"context"

	"entgo.io/ent/dialect"
	entschema "entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// DatasetsColumns holds the columns for the "datasets" table.
	DatasetsColumns = []*entschema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "name", Type: field.TypeString},
		{Name: "filename", Type: field.TypeString},
		{Name: "table_name", Type: field.TypeString},
		{Name: "row_count", Type: field.TypeInt64},
		{Name: "columns", Type: field.TypeJSON},
		{Name: "created_at", Type: field.TypeTime},
	}
	// DatasetsTable holds the schema information for the "datasets" table.
	DatasetsTable = &entschema.Table{
		Name:       "datasets",
		Columns:    DatasetsColumns,
		PrimaryKey: []*entschema.Column{DatasetsColumns[0]},
	}
	// DictionaryEntriesColumns holds the columns for the "dictionary_entries" table.
	DictionaryEntriesColumns = []*entschema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "dataset_id", Type: field.TypeString},
		{Name: "column_name", Type: field.TypeString},
		{Name: "description", Type: field.TypeString},
		{Name: "tags", Type: field.TypeJSON},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// DictionaryEntriesTable holds the schema information for the "dictionary_entries" table.
	DictionaryEntriesTable = &entschema.Table{
		Name:       "dictionary_entries",
		Columns:    DictionaryEntriesColumns,
		PrimaryKey: []*entschema.Column{DictionaryEntriesColumns[0]},
		Indexes: []*entschema.Index{
			{
				Name:    "dictionaryentry_dataset_id",
				Unique:  false,
				Columns: []*entschema.Column{DictionaryEntriesColumns[1]},
			},
		},
	}
	// InsightsColumns holds the columns for the "insights" table.
	InsightsColumns = []*entschema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "dataset_id", Type: field.TypeString},
		{Name: "title", Type: field.TypeString},
		{Name: "content", Type: field.TypeString, Size: 2147483647},
		{Name: "model", Type: field.TypeString},
		{Name: "created_at", Type: field.TypeTime},
	}
	// InsightsTable holds the schema information for the "insights" table.
	InsightsTable = &entschema.Table{
		Name:       "insights",
		Columns:    InsightsColumns,
		PrimaryKey: []*entschema.Column{InsightsColumns[0]},
		Indexes: []*entschema.Index{
			{
				Name:    "insight_dataset_id",
				Unique:  false,
				Columns: []*entschema.Column{InsightsColumns[1]},
			},
		},
	}
	// ModelsColumns holds the columns for the "models" table.
	ModelsColumns = []*entschema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "name", Type: field.TypeString},
		{Name: "task", Type: field.TypeString},
		{Name: "version", Type: field.TypeString},
		{Name: "created_at", Type: field.TypeTime},
	}
	// ModelsTable holds the schema information for the "models" table.
	ModelsTable = &entschema.Table{
		Name:       "models",
		Columns:    ModelsColumns,
		PrimaryKey: []*entschema.Column{ModelsColumns[0]},
	}
	// RecipesColumns holds the columns for the "recipes" table.
	RecipesColumns = []*entschema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "name", Type: field.TypeString},
		{Name: "model_id", Type: field.TypeString},
		{Name: "definition", Type: field.TypeJSON},
		{Name: "created_at", Type: field.TypeTime},
	}
	// RecipesTable holds the schema information for the "recipes" table.
	RecipesTable = &entschema.Table{
		Name:       "recipes",
		Columns:    RecipesColumns,
		PrimaryKey: []*entschema.Column{RecipesColumns[0]},
	}
	// RunsColumns holds the columns for the "runs" table.
	RunsColumns = []*entschema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "recipe_id", Type: field.TypeString},
		{Name: "status", Type: field.TypeString},
		{Name: "error", Type: field.TypeString},
		{Name: "metrics", Type: field.TypeJSON},
		{Name: "started_at", Type: field.TypeTime},
		{Name: "finished_at", Type: field.TypeTime, Nullable: true},
	}
	// RunsTable holds the schema information for the "runs" table.
	RunsTable = &entschema.Table{
		Name:       "runs",
		Columns:    RunsColumns,
		PrimaryKey: []*entschema.Column{RunsColumns[0]},
		Indexes: []*entschema.Index{
			{
				Name:    "run_recipe_id",
				Unique:  false,
				Columns: []*entschema.Column{RunsColumns[1]},
			},
		},
	}
	// Tables holds all the tables in the catalog schema.
	Tables = []*entschema.Table{
		DatasetsTable,
		DictionaryEntriesTable,
		InsightsTable,
		ModelsTable,
		RecipesTable,
		RunsTable,
	}
)

// migrate runs ent's auto-migration for the catalog tables. It handles
// append-only schema changes (new tables, columns, indexes).
func (s *Store) migrate(ctx context.Context) error {
	m, err := entschema.NewMigrate(s.drv)
	if err != nil {
		return err
	}

	return m.Create(ctx, Tables...)
}

// entName maps the store dialect to ent's dialect name.
func (d Dialect) entName() string {
	if d == DialectPostgres {
		return dialect.Postgres
	}

	return dialect.SQLite
}
