package insightscmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corelens-ai/corelens/pkg/client"
	"github.com/corelens-ai/corelens/pkg/cliui"
	"github.com/corelens-ai/corelens/pkg/config"
)

const showShortDesc string = "Render one insight"

func newShowCmd() *cobra.Command {
	var apiTarget string

	cmd := &cobra.Command{
		Use:   "show <insight-id>",
		Short: showShortDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := resolveClient(cmd, apiTarget)
			if err != nil {
				return err
			}
			return runShow(cmd.Context(), cl, args[0])
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)

	return cmd
}

func runShow(ctx context.Context, cl *client.Client, id string) error {
	insight, err := cl.GetInsight(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s %s\n", cliui.KeyStyle.Render("Title:  "), cliui.NameStyle.Render(insight.Title))
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Dataset:"), cliui.IDStyle.Render(insight.DatasetID))
	fmt.Printf("  %s %s\n\n", cliui.KeyStyle.Render("Model:  "), cliui.ValueStyle.Render(insight.Model))

	rendered, err := cliui.RenderMarkdown(insight.Content)
	if err != nil {
		fmt.Println(insight.Content)
		return nil
	}
	fmt.Println(rendered)

	return nil
}
