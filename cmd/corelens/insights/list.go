package insightscmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corelens-ai/corelens/pkg/client"
	"github.com/corelens-ai/corelens/pkg/cliui"
	"github.com/corelens-ai/corelens/pkg/config"
)

const listShortDesc string = "List insights for a dataset"

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
	insights, err := cl.ListInsights(ctx, datasetID)
	if err != nil {
		return err
	}

	if len(insights) == 0 {
		fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("No insights. Generate one with \"corelens insights generate\"."))
		return nil
	}

	fmt.Println()
	for _, insight := range insights {
		fmt.Printf("  %s  %s  %s\n",
			cliui.IDStyle.Render(insight.ID),
			cliui.NameStyle.Render(insight.Title),
			cliui.DimStyle.Render(fmt.Sprintf("%s, %s", insight.Model, insight.CreatedAt.Format("2006-01-02 15:04"))),
		)
	}
	fmt.Println()

	return nil
}
