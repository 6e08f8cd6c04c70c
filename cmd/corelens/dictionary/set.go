package dictionarycmder

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corelens-ai/corelens/pkg/client"
	"github.com/corelens-ai/corelens/pkg/cliui"
	"github.com/corelens-ai/corelens/pkg/config"
)

const setLongDesc string = `Set the description (and optionally tags) for a column.

Examples:
  corelens dictionary set ds-123 amount "Order total in USD"
  corelens dictionary set ds-123 region "Sales region code" --tags geo,sales`

const setShortDesc string = "Describe a dataset column"

func newSetCmd() *cobra.Command {
	var (
		apiTarget string
		tags      []string
	)

	cmd := &cobra.Command{
		Use:   "set <dataset-id> <column> <description>",
		Short: setShortDesc,
		Long:  setLongDesc,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := resolveClient(cmd, apiTarget)
			if err != nil {
				return err
			}
			return runSet(cmd.Context(), cl, args[0], args[1], args[2], tags)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Comma-separated tags for the column")

	return cmd
}

func runSet(ctx context.Context, cl *client.Client, datasetID, column, description string, tags []string) error {
	entry, err := cl.UpdateDictionary(ctx, datasetID, column, description, tags)
	if err != nil {
		return err
	}

	fmt.Printf("  %s %s = %s",
		cliui.SuccessMark,
		cliui.NameStyle.Render(entry.Column),
		cliui.ValueStyle.Render(entry.Description),
	)
	if len(entry.Tags) > 0 {
		fmt.Printf("  %s", cliui.DimStyle.Render("["+strings.Join(entry.Tags, ", ")+"]"))
	}
	fmt.Println()

	return nil
}
