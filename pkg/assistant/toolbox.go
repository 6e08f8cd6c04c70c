package assistant

import (
	"context"
	"fmt"

	"github.com/corelens-ai/corelens/pkg/dictionary"
	"github.com/corelens-ai/corelens/pkg/explorer"
	"github.com/corelens-ai/corelens/pkg/llm"
	"github.com/corelens-ai/corelens/pkg/storage"
)

// Toolbox exposes platform operations as LLM tools.
type Toolbox struct {
	store      storage.Store
	explorer   *explorer.Service
	dictionary *dictionary.Service
}

// NewToolbox wires the tool surface over the platform services.
func NewToolbox(store storage.Store, exp *explorer.Service, dict *dictionary.Service) *Toolbox {
	return &Toolbox{
		store:      store,
		explorer:   exp,
		dictionary: dict,
	}
}

// Definitions returns the tool schemas advertised to the model.
func (t *Toolbox) Definitions() []llm.Tool {
	return []llm.Tool{
		{
			Name:        "list_tables",
			Description: "List the datasets available to query, with their SQL table names, row counts, and columns.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		{
			Name:        "run_query",
			Description: "Run a read-only SQL SELECT against the dataset tables and return the rows.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "A single SELECT statement.",
					},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        "search_dictionary",
			Description: "Search column documentation by meaning. Returns matching columns with their descriptions and tags.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "What to look for, e.g. 'revenue' or 'customer identifier'.",
					},
					"dataset_id": map[string]any{
						"type":        "string",
						"description": "Restrict the search to one dataset.",
					},
				},
				"required": []string{"query"},
			},
		},
	}
}

// Invoke dispatches a tool call by name. The result must be JSON-encodable.
func (t *Toolbox) Invoke(ctx context.Context, name string, input map[string]any) (any, error) {
	switch name {
	case "list_tables":
		return t.listTables(ctx)
	case "run_query":
		return t.runQuery(ctx, input)
	case "search_dictionary":
		return t.searchDictionary(ctx, input)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

type tableInfo struct {
	DatasetID string   `json:"dataset_id"`
	Name      string   `json:"name"`
	TableName string   `json:"table_name"`
	RowCount  int      `json:"row_count"`
	Columns   []string `json:"columns"`
}

func (t *Toolbox) listTables(ctx context.Context) (any, error) {
	datasets, err := t.store.ListDatasets(ctx)
	if err != nil {
		return nil, err
	}

	tables := make([]tableInfo, 0, len(datasets))
	for _, ds := range datasets {
		info := tableInfo{
			DatasetID: ds.ID,
			Name:      ds.Name,
			TableName: ds.TableName,
			RowCount:  ds.RowCount,
			Columns:   make([]string, 0, len(ds.Columns)),
		}
		for _, col := range ds.Columns {
			info.Columns = append(info.Columns, col.Name+" "+col.Type)
		}
		tables = append(tables, info)
	}

	return map[string]any{"tables": tables}, nil
}

func (t *Toolbox) runQuery(ctx context.Context, input map[string]any) (any, error) {
	query, _ := input["query"].(string)
	if query == "" {
		return nil, fmt.Errorf("run_query requires a query argument")
	}

	return t.explorer.Query(ctx, query)
}

func (t *Toolbox) searchDictionary(ctx context.Context, input map[string]any) (any, error) {
	query, _ := input["query"].(string)
	if query == "" {
		return nil, fmt.Errorf("search_dictionary requires a query argument")
	}
	datasetID, _ := input["dataset_id"].(string)

	results, err := t.dictionary.Search(ctx, datasetID, query, dictionary.DefaultSearchLimit)
	if err != nil {
		return nil, err
	}

	return map[string]any{"matches": results}, nil
}
