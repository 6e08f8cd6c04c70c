package datasetscmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corelens-ai/corelens/pkg/client"
	"github.com/corelens-ai/corelens/pkg/cliui"
	"github.com/corelens-ai/corelens/pkg/config"
)

const getShortDesc string = "Show one dataset with its columns"

func newGetCmd() *cobra.Command {
	var apiTarget string

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: getShortDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := resolveClient(cmd, apiTarget)
			if err != nil {
				return err
			}
			return runGet(cmd.Context(), cl, args[0])
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)

	return cmd
}

func runGet(ctx context.Context, cl *client.Client, id string) error {
	ds, err := cl.GetDataset(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s %s\n", cliui.KeyStyle.Render("Dataset: "), cliui.NameStyle.Render(ds.Name))
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("ID:      "), cliui.IDStyle.Render(ds.ID))
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Table:   "), cliui.ValueStyle.Render(ds.TableName))
	fmt.Printf("  %s %d\n", cliui.KeyStyle.Render("Rows:    "), ds.RowCount)
	fmt.Printf("  %s %s\n\n", cliui.KeyStyle.Render("Created: "), ds.CreatedAt.Format("2006-01-02 15:04:05"))

	for _, col := range ds.Columns {
		fmt.Printf("  %s %s %s\n",
			cliui.ValueStyle.Render(col.Name),
			cliui.DimStyle.Render("("+col.Type+")"),
			cliui.DimStyle.Render(fmt.Sprintf("%d nulls, %d distinct", col.NullCount, col.DistinctCount)),
		)
	}
	fmt.Println()

	return nil
}
