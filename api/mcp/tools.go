package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/corelens-ai/corelens/pkg/dictionary"
)

var (
	listTablesToolName    = "list_tables"
	listTablesDescription = "List the datasets available for querying, including their SQL table names, row counts, and column types."

	runQueryToolName    = "run_query"
	runQueryDescription = "Run a read-only SQL SELECT statement against the dataset tables and return the resulting rows."

	searchDictionaryToolName    = "search_dictionary"
	searchDictionaryDescription = "Search the data dictionary for column documentation matching the query text."
)

// TableInfo describes one dataset table in ListTablesOutput.
type TableInfo struct {
	DatasetID string   `json:"dataset_id"`
	Name      string   `json:"name"`
	Table     string   `json:"table"`
	RowCount  int      `json:"row_count"`
	Columns   []string `json:"columns"`
}

// ListTablesOutput is the output of the list_tables tool.
type ListTablesOutput struct {
	Tables []TableInfo `json:"tables"`
	Count  int         `json:"count"`
}

// RunQueryInput is the input for the run_query tool.
type RunQueryInput struct {
	SQL string `json:"sql" jsonschema:"the SELECT statement to run"`
}

// RunQueryOutput is the output of the run_query tool.
type RunQueryOutput struct {
	Columns   []string `json:"columns"`
	Rows      [][]any  `json:"rows"`
	RowCount  int      `json:"row_count"`
	Truncated bool     `json:"truncated"`
}

// SearchDictionaryInput is the input for the search_dictionary tool.
type SearchDictionaryInput struct {
	Query     string `json:"query" jsonschema:"the search text to match against column documentation"`
	DatasetID string `json:"dataset_id,omitempty" jsonschema:"restrict results to one dataset"`
	Limit     int    `json:"limit,omitempty" jsonschema:"number of results to return (default: 10)"`
}

// DictionaryHit is one search_dictionary result.
type DictionaryHit struct {
	DatasetID   string   `json:"dataset_id"`
	Column      string   `json:"column"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	Score       float32  `json:"score"`
}

// SearchDictionaryOutput is the output of the search_dictionary tool.
type SearchDictionaryOutput struct {
	Query   string          `json:"query"`
	Results []DictionaryHit `json:"results"`
	Count   int             `json:"count"`
}

func (s *Server) handleListTables(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, ListTablesOutput, error) {
	datasets, err := s.config.Store.ListDatasets(ctx)
	if err != nil {
		s.config.Logger.Error("failed to list datasets", zap.Error(err))
		return toolError(fmt.Sprintf("Failed to list datasets: %v", err)), ListTablesOutput{}, nil
	}

	tables := make([]TableInfo, 0, len(datasets))
	for _, ds := range datasets {
		columns := make([]string, 0, len(ds.Columns))
		for _, col := range ds.Columns {
			columns = append(columns, fmt.Sprintf("%s (%s)", col.Name, col.Type))
		}
		tables = append(tables, TableInfo{
			DatasetID: ds.ID,
			Name:      ds.Name,
			Table:     ds.TableName,
			RowCount:  ds.RowCount,
			Columns:   columns,
		})
	}

	output := ListTablesOutput{Tables: tables, Count: len(tables)}

	return toolSuccess(output, s.config.Logger), output, nil
}

func (s *Server) handleRunQuery(ctx context.Context, _ *mcp.CallToolRequest, input RunQueryInput) (*mcp.CallToolResult, RunQueryOutput, error) {
	s.config.Logger.Debug("MCP run_query request",
		zap.String("sql", input.SQL),
	)

	result, err := s.config.Explorer.Query(ctx, input.SQL)
	if err != nil {
		return toolError(fmt.Sprintf("Query failed: %v", err)), RunQueryOutput{}, nil
	}

	output := RunQueryOutput{
		Columns:   result.Columns,
		Rows:      result.Rows,
		RowCount:  result.RowCount,
		Truncated: result.Truncated,
	}

	return toolSuccess(output, s.config.Logger), output, nil
}

func (s *Server) handleSearchDictionary(ctx context.Context, _ *mcp.CallToolRequest, input SearchDictionaryInput) (*mcp.CallToolResult, SearchDictionaryOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = dictionary.DefaultSearchLimit
	}

	s.config.Logger.Debug("MCP search_dictionary request",
		zap.String("query", input.Query),
		zap.Int("limit", limit),
	)

	results, err := s.config.Dictionary.Search(ctx, input.DatasetID, input.Query, limit)
	if err != nil {
		return toolError(fmt.Sprintf("Dictionary search failed: %v", err)), SearchDictionaryOutput{}, nil
	}

	hits := make([]DictionaryHit, 0, len(results))
	for _, result := range results {
		hits = append(hits, DictionaryHit{
			DatasetID:   result.Entry.DatasetID,
			Column:      result.Entry.Column,
			Description: result.Entry.Description,
			Tags:        result.Entry.Tags,
			Score:       result.Score,
		})
	}

	output := SearchDictionaryOutput{
		Query:   input.Query,
		Results: hits,
		Count:   len(hits),
	}

	return toolSuccess(output, s.config.Logger), output, nil
}

func toolError(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: message},
		},
	}
}

// toolSuccess serializes the structured output as JSON for the text field.
// Per MCP spec: tools returning structured content should also return
// serialized JSON in a TextContent block for backwards compatibility.
func toolSuccess(output any, logger *zap.Logger) *mcp.CallToolResult {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal tool output", zap.Error(err))
		return toolError(fmt.Sprintf("Failed to serialize results: %v", err))
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}
}
