package datasetscmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corelens-ai/corelens/pkg/client"
	"github.com/corelens-ai/corelens/pkg/cliui"
	"github.com/corelens-ai/corelens/pkg/config"
)

const deleteShortDesc string = "Delete a dataset"

func newDeleteCmd() *cobra.Command {
	var apiTarget string

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: deleteShortDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := resolveClient(cmd, apiTarget)
			if err != nil {
				return err
			}
			return runDelete(cmd.Context(), cl, args[0])
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)

	return cmd
}

func runDelete(ctx context.Context, cl *client.Client, id string) error {
	if err := cl.DeleteDataset(ctx, id); err != nil {
		return err
	}

	fmt.Printf("  %s Deleted %s\n", cliui.SuccessMark, cliui.IDStyle.Render(id))
	return nil
}
