package dictionarycmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corelens-ai/corelens/pkg/client"
	"github.com/corelens-ai/corelens/pkg/cliui"
	"github.com/corelens-ai/corelens/pkg/config"
)

const searchLongDesc string = `Search dictionary entries.

Matches column names, descriptions, and tags. When the server has an
embedding provider configured, results are ranked by semantic similarity;
otherwise a substring match is used.

Examples:
  corelens dictionary search ds-123 revenue
  corelens dictionary search ds-123 "when the order shipped" --limit 5`

const searchShortDesc string = "Search dictionary entries"

func newSearchCmd() *cobra.Command {
	var (
		apiTarget string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "search <dataset-id> <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := resolveClient(cmd, apiTarget)
			if err != nil {
				return err
			}
			return runSearch(cmd.Context(), cl, args[0], args[1], limit)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)
	cmd.Flags().IntVarP(&limit, "limit", "k", 0, "Maximum number of results (default: server default)")

	return cmd
}

func runSearch(ctx context.Context, cl *client.Client, datasetID, query string, limit int) error {
	results, err := cl.SearchDictionary(ctx, datasetID, query, limit)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("No matches."))
		return nil
	}

	fmt.Println()
	for _, result := range results {
		fmt.Printf("  %s %s  %s\n",
			cliui.DimStyle.Render(fmt.Sprintf("%.2f", result.Score)),
			cliui.NameStyle.Render(result.Entry.Column),
			cliui.ValueStyle.Render(result.Entry.Description),
		)
	}
	fmt.Println()

	return nil
}
