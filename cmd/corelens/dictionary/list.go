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

const listShortDesc string = "List all dictionary entries for a dataset"

func newListCmd() *cobra.Command {
	var apiTarget string

	cmd := &cobra.Command{
		Use:   "list <dataset-id>",
		Short: listShortDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := resolveClient(cmd, apiTarget)
			if err != nil {
				return err
			}
			return runList(cmd.Context(), cl, args[0])
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)

	return cmd
}

func runList(ctx context.Context, cl *client.Client, datasetID string) error {
	entries, err := cl.ListDictionary(ctx, datasetID)
	if err != nil {
		return err
	}

	fmt.Println()
	for _, entry := range entries {
		desc := entry.Description
		if desc == "" {
			desc = cliui.DimStyle.Render("<undocumented>")
		} else {
			desc = cliui.ValueStyle.Render(desc)
		}

		line := fmt.Sprintf("  %s  %s", cliui.NameStyle.Render(entry.Column), desc)
		if len(entry.Tags) > 0 {
			line += "  " + cliui.DimStyle.Render("["+strings.Join(entry.Tags, ", ")+"]")
		}
		fmt.Println(line)
	}
	fmt.Println()

	return nil
}
