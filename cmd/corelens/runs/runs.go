// Package runscmder provides the runs command group for training run
// lifecycle management.
package runscmder

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corelens-ai/corelens/pkg/client"
	"github.com/corelens-ai/corelens/pkg/cliui"
	"github.com/corelens-ai/corelens/pkg/config"
	"github.com/corelens-ai/corelens/pkg/storage"
)

const runsLongDesc string = `Manage training runs.

A run is one execution of a recipe. Runs move through a fixed lifecycle:
pending -> running -> succeeded or failed. Succeeded runs carry metrics,
failed runs carry an error message.

Use subcommands to work with runs:
  corelens runs create <recipe-id>      Create a pending run
  corelens runs list <recipe-id>        List runs for a recipe
  corelens runs get <run-id>            Show one run
  corelens runs start <run-id>          Mark a run as running
  corelens runs complete <run-id>       Mark a run completed with metrics
  corelens runs fail <run-id>           Mark a run failed
  corelens runs watch <recipe-id>       Live TUI view of a recipe's runs

Examples:
  corelens runs create rec-123
  corelens runs complete run-456 --metric accuracy=0.93 --metric f1=0.88
  corelens runs watch rec-123`

const runsShortDesc string = "Manage training runs"

func NewRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: runsShortDesc,
		Long:  runsLongDesc,
	}

	cmd.AddCommand(newCreateCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newStartCmd())
	cmd.AddCommand(newCompleteCmd())
	cmd.AddCommand(newFailCmd())
	cmd.AddCommand(newWatchCmd())

	return cmd
}

func resolveClient(cmd *cobra.Command, apiTarget string) (*client.Client, error) {
	if !cmd.Flags().Changed("api-target") {
		configDir, _ := cmd.Flags().GetString("config-dir")
		cfger, err := config.NewConfiger(configDir)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}

		cfg, err := cfger.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		apiTarget = cfg.Client.APITarget
	}

	return client.New(apiTarget), nil
}

func newCreateCmd() *cobra.Command {
	var apiTarget string

	cmd := &cobra.Command{
		Use:   "create <recipe-id>",
		Short: "Create a pending run for a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := resolveClient(cmd, apiTarget)
			if err != nil {
				return err
			}

			run, err := cl.CreateRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("  %s Created run %s %s\n",
				cliui.SuccessMark,
				cliui.IDStyle.Render(run.ID),
				statusBadge(run.Status),
			)
			return nil
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)

	return cmd
}

func newListCmd() *cobra.Command {
	var apiTarget string

	cmd := &cobra.Command{
		Use:   "list <recipe-id>",
		Short: "List runs for a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := resolveClient(cmd, apiTarget)
			if err != nil {
				return err
			}
			return runListRuns(cmd.Context(), cl, args[0])
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)

	return cmd
}

func runListRuns(ctx context.Context, cl *client.Client, recipeID string) error {
	runs, err := cl.ListRuns(ctx, recipeID)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("No runs for this recipe."))
		return nil
	}

	fmt.Println()
	for _, run := range runs {
		fmt.Printf("  %s  %s  %s\n",
			cliui.IDStyle.Render(run.ID),
			statusBadge(run.Status),
			cliui.DimStyle.Render(runSummary(run)),
		)
	}
	fmt.Println()

	return nil
}

func newGetCmd() *cobra.Command {
	var apiTarget string

	cmd := &cobra.Command{
		Use:   "get <run-id>",
		Short: "Show one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := resolveClient(cmd, apiTarget)
			if err != nil {
				return err
			}

			run, err := cl.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			printRun(run)
			return nil
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)

	return cmd
}

func newStartCmd() *cobra.Command {
	var apiTarget string

	cmd := &cobra.Command{
		Use:   "start <run-id>",
		Short: "Mark a run as running",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := resolveClient(cmd, apiTarget)
			if err != nil {
				return err
			}

			run, err := cl.StartRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("  %s %s is %s\n", cliui.SuccessMark, cliui.IDStyle.Render(run.ID), statusBadge(run.Status))
			return nil
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)

	return cmd
}

func newCompleteCmd() *cobra.Command {
	var (
		apiTarget string
		metrics   []string
	)

	cmd := &cobra.Command{
		Use:   "complete <run-id>",
		Short: "Mark a run completed with metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := resolveClient(cmd, apiTarget)
			if err != nil {
				return err
			}

			parsed, err := parseMetrics(metrics)
			if err != nil {
				return err
			}

			run, err := cl.CompleteRun(cmd.Context(), args[0], parsed)
			if err != nil {
				return err
			}

			fmt.Printf("  %s %s is %s\n", cliui.SuccessMark, cliui.IDStyle.Render(run.ID), statusBadge(run.Status))
			return nil
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)
	cmd.Flags().StringArrayVar(&metrics, "metric", nil, "Metric as name=value (repeatable)")

	return cmd
}

func newFailCmd() *cobra.Command {
	var (
		apiTarget string
		message   string
	)

	cmd := &cobra.Command{
		Use:   "fail <run-id>",
		Short: "Mark a run failed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := resolveClient(cmd, apiTarget)
			if err != nil {
				return err
			}

			run, err := cl.FailRun(cmd.Context(), args[0], message)
			if err != nil {
				return err
			}

			fmt.Printf("  %s %s is %s\n", cliui.SuccessMark, cliui.IDStyle.Render(run.ID), statusBadge(run.Status))
			return nil
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)
	cmd.Flags().StringVar(&message, "error", "", "Failure message")

	return cmd
}

func parseMetrics(pairs []string) (map[string]float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	metrics := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid metric %q: expected name=value", pair)
		}

		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid metric value %q: %w", raw, err)
		}
		metrics[name] = value
	}

	return metrics, nil
}

func printRun(run *storage.Run) {
	fmt.Printf("\n  %s %s\n", cliui.KeyStyle.Render("Run:    "), cliui.IDStyle.Render(run.ID))
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Recipe: "), cliui.IDStyle.Render(run.RecipeID))
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Status: "), statusBadge(run.Status))

	if len(run.Metrics) > 0 {
		parts := make([]string, 0, len(run.Metrics))
		for name, value := range run.Metrics {
			parts = append(parts, fmt.Sprintf("%s=%.4g", name, value))
		}
		fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Metrics:"), cliui.ValueStyle.Render(strings.Join(parts, " ")))
	}
	if run.Error != "" {
		fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Error:  "), run.Error)
	}
	fmt.Println()
}

func runSummary(run *storage.Run) string {
	switch run.Status {
	case storage.RunStatusSucceeded:
		parts := make([]string, 0, len(run.Metrics))
		for name, value := range run.Metrics {
			parts = append(parts, fmt.Sprintf("%s=%.4g", name, value))
		}
		return strings.Join(parts, " ")
	case storage.RunStatusFailed:
		return run.Error
	default:
		return run.StartedAt.Format("2006-01-02 15:04")
	}
}
