// Package qualitycmder provides the quality command for printing a
// dataset quality report.
package qualitycmder

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corelens-ai/corelens/pkg/client"
	"github.com/corelens-ai/corelens/pkg/cliui"
	"github.com/corelens-ai/corelens/pkg/config"
)

const qualityLongDesc string = `Show a quality report for a dataset.

The report scores the dataset 0 to 100 based on completeness (null ratios),
uniqueness (duplicate rows, constant columns), and documentation coverage
(dictionary entries with descriptions).

Examples:
  corelens quality ds-12345`

const qualityShortDesc string = "Show a dataset quality report"

func NewQualityCmd() *cobra.Command {
	var apiTarget string

	cmd := &cobra.Command{
		Use:   "quality <dataset-id>",
		Short: qualityShortDesc,
		Long:  qualityLongDesc,
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

			return runQuality(cmd.Context(), client.New(apiTarget), args[0])
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)

	return cmd
}

func runQuality(ctx context.Context, cl *client.Client, datasetID string) error {
	report, err := cl.QualityReport(ctx, datasetID)
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s %s\n", cliui.KeyStyle.Render("Dataset:"), cliui.IDStyle.Render(report.DatasetID))
	fmt.Printf("  %s %.1f / 100\n", cliui.KeyStyle.Render("Score:  "), report.Score)
	fmt.Printf("  %s %d rows, %d duplicate(s)\n\n",
		cliui.KeyStyle.Render("Rows:   "), report.RowCount, report.DuplicateRows)

	for _, col := range report.Columns {
		flags := make([]string, 0, 2)
		if col.Constant {
			flags = append(flags, "constant")
		}
		if !col.Documented {
			flags = append(flags, "undocumented")
		}

		suffix := ""
		if len(flags) > 0 {
			suffix = " " + cliui.DimStyle.Render("["+strings.Join(flags, ", ")+"]")
		}

		fmt.Printf("  %s %s %s%s\n",
			cliui.ValueStyle.Render(col.Column),
			cliui.DimStyle.Render("("+col.Type+")"),
			cliui.DimStyle.Render(fmt.Sprintf("%.0f%% null, %d distinct", col.NullRatio*100, col.DistinctCount)),
			suffix,
		)
	}

	if len(report.UndocumentedColumns) > 0 {
		fmt.Printf("\n  %s %s\n",
			cliui.KeyStyle.Render("Undocumented:"),
			cliui.DimStyle.Render(strings.Join(report.UndocumentedColumns, ", ")),
		)
		fmt.Printf("  %s\n", cliui.DimStyle.Render("Document columns with \"corelens dictionary set\"."))
	}
	fmt.Println()

	return nil
}
