package datasetscmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corelens-ai/corelens/pkg/client"
	"github.com/corelens-ai/corelens/pkg/cliui"
	"github.com/corelens-ai/corelens/pkg/config"
)

const listShortDesc string = "List all datasets"

func newListCmd() *cobra.Command {
	var apiTarget string

	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, err := resolveClient(cmd, apiTarget)
			if err != nil {
				return err
			}
			return runList(cmd.Context(), cl)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)

	return cmd
}

func runList(ctx context.Context, cl *client.Client) error {
	datasets, err := cl.ListDatasets(ctx)
	if err != nil {
		return err
	}

	if len(datasets) == 0 {
		fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("No datasets. Upload one with \"corelens datasets upload\"."))
		return nil
	}

	fmt.Println()
	for _, ds := range datasets {
		fmt.Printf("  %s  %s  %s\n",
			cliui.IDStyle.Render(ds.ID),
			cliui.NameStyle.Render(ds.Name),
			cliui.DimStyle.Render(fmt.Sprintf("%d rows, %d columns, %s",
				ds.RowCount, len(ds.Columns), ds.CreatedAt.Format("2006-01-02 15:04"))),
		)
	}
	fmt.Println()

	return nil
}
