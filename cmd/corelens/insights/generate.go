package insightscmder

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/corelens-ai/corelens/pkg/client"
	"github.com/corelens-ai/corelens/pkg/cliui"
	"github.com/corelens-ai/corelens/pkg/config"
	"github.com/corelens-ai/corelens/pkg/storage"
)

const generateShortDesc string = "Generate a new insight for a dataset"

func newGenerateCmd() *cobra.Command {
	var apiTarget string

	cmd := &cobra.Command{
		Use:   "generate <dataset-id>",
		Short: generateShortDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := resolveClient(cmd, apiTarget)
			if err != nil {
				return err
			}
			return runGenerate(cmd.Context(), cl, args[0])
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)

	return cmd
}

func runGenerate(ctx context.Context, cl *client.Client, datasetID string) error {
	var insight *storage.Insight
	if err := cliui.Step(os.Stdout, "Generating insight", func() error {
		var genErr error
		insight, genErr = cl.GenerateInsight(ctx, datasetID)
		return genErr
	}); err != nil {
		return err
	}

	fmt.Printf("\n  %s %s %s\n\n",
		cliui.KeyStyle.Render("Insight:"),
		cliui.NameStyle.Render(insight.Title),
		cliui.DimStyle.Render("("+insight.ID+")"),
	)

	rendered, err := cliui.RenderMarkdown(insight.Content)
	if err != nil {
		fmt.Println(insight.Content)
		return nil
	}
	fmt.Println(rendered)

	return nil
}
