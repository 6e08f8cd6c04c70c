// Package querycmder provides the query command for running read-only SQL
// against uploaded datasets.
package querycmder

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corelens-ai/corelens/pkg/client"
	"github.com/corelens-ai/corelens/pkg/cliui"
	"github.com/corelens-ai/corelens/pkg/config"
	"github.com/corelens-ai/corelens/pkg/explorer"
)

const queryLongDesc string = `Run a read-only SQL query against uploaded datasets.

Datasets are queryable as tables named after their dataset record
(see "corelens datasets get"). Only single SELECT statements are allowed;
writes and DDL are rejected by the server.

Examples:
  corelens query "SELECT region, SUM(amount) FROM ds_sales GROUP BY region"
  corelens query "SELECT * FROM ds_churn LIMIT 10"`

const queryShortDesc string = "Run read-only SQL against uploaded datasets"

func NewQueryCmd() *cobra.Command {
	var apiTarget string

	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: queryShortDesc,
		Long:  queryLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("api-target") {
				configDir, _ := cmd.Flags().GetString("config-dir")
				cfger, err := config.NewConfiger(configDir)
				if err != nil {
					return fmt.Errorf("loading config: %w", err)
				}
				cfg, err := cfger.LoadConfig()
				if err != nil {
					return fmt.Errorf("loading config: %w", err)
				}
				apiTarget = cfg.Client.APITarget
			}

			return runQuery(cmd.Context(), client.New(apiTarget), args[0])
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)

	return cmd
}

func runQuery(ctx context.Context, cl *client.Client, sql string) error {
	result, err := cl.Query(ctx, sql)
	if err != nil {
		return err
	}

	printTable(result)

	if result.Truncated {
		fmt.Printf("  %s\n", cliui.DimStyle.Render("Result truncated by the server row limit."))
	}
	fmt.Printf("  %s\n\n", cliui.DimStyle.Render(fmt.Sprintf("%d row(s)", result.RowCount)))

	return nil
}

// printTable renders a fixed-width text table of the query result.
func printTable(result *explorer.Result) {
	widths := make([]int, len(result.Columns))
	for i, col := range result.Columns {
		widths[i] = len(col)
	}

	cells := make([][]string, len(result.Rows))
	for r, row := range result.Rows {
		cells[r] = make([]string, len(result.Columns))
		for c := range result.Columns {
			var text string
			if c < len(row) {
				text = formatCell(row[c])
			}
			cells[r][c] = text
			if len(text) > widths[c] {
				widths[c] = len(text)
			}
		}
	}

	fmt.Println()
	var header strings.Builder
	for i, col := range result.Columns {
		header.WriteString(fmt.Sprintf("  %-*s", widths[i], col))
	}
	fmt.Printf("%s\n", cliui.KeyStyle.Render(header.String()))

	for _, row := range cells {
		for c, cell := range row {
			fmt.Printf("  %-*s", widths[c], cell)
		}
		fmt.Println()
	}
	fmt.Println()
}

func formatCell(v any) string {
	if v == nil {
		return "NULL"
	}
	switch val := v.(type) {
	case float64:
		// JSON numbers decode as float64; print integers without decimals.
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
