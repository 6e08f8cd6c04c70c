// Package initcmder provides the init command for initializing a local
// .corelens directory in the current working directory.
package initcmder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corelens-ai/corelens/pkg/cliui"
	"github.com/corelens-ai/corelens/pkg/config"
)

const (
	dirName = ".corelens"
)

const initLongDesc string = `Initialize a new .corelens/ directory in the current working directory.

Creates a local .corelens/ directory that takes precedence over the default
~/.corelens/ directory for configuration, chat session state, and other
corelens operations.

Use --preset to seed config.toml with a deployment preset:
  local         SQLite storage, in-process vector store, no event stream
  distributed   Postgres, Qdrant, and Kafka

Examples:
  corelens init
  corelens init --preset distributed`

const initShortDesc string = "Initialize a local .corelens/ directory"

func NewInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInit(preset)
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "",
		fmt.Sprintf("Seed config.toml with a deployment preset (%s)",
			strings.Join(config.ValidPresetNames(), ", ")))

	return cmd
}

func runInit(preset string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		fmt.Printf("Already initialized: %s\n", dir)
		return seedPreset(dir, preset)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .corelens directory: %w", err)
	}

	fmt.Printf("Initialized .corelens directory: %s\n", dir)
	return seedPreset(dir, preset)
}

func seedPreset(dir, preset string) error {
	if preset == "" {
		return nil
	}

	cfg, err := config.PresetConfig(preset)
	if err != nil {
		return err
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return fmt.Errorf("writing preset config: %w", err)
	}

	fmt.Printf("  %s Wrote %s preset to %s\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(preset),
		cliui.DimStyle.Render(cfger.GetTarget()),
	)
	return nil
}
