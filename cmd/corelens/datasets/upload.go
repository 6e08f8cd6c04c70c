package datasetscmder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corelens-ai/corelens/pkg/client"
	"github.com/corelens-ai/corelens/pkg/cliui"
	"github.com/corelens-ai/corelens/pkg/config"
	"github.com/corelens-ai/corelens/pkg/storage"
)

const uploadLongDesc string = `Upload a CSV file as a new dataset.

The server infers a column type for every CSV column (integer, real,
boolean, timestamp, or text), loads the rows into a queryable table,
and seeds an empty data dictionary entry per column.

Examples:
  corelens datasets upload sales.csv
  corelens datasets upload sales.csv --name q3-sales`

const uploadShortDesc string = "Upload a CSV file as a new dataset"

func newUploadCmd() *cobra.Command {
	var (
		apiTarget string
		name      string
	)

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: uploadShortDesc,
		Long:  uploadLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := resolveClient(cmd, apiTarget)
			if err != nil {
				return err
			}
			return runUpload(cmd.Context(), cl, args[0], name)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)
	cmd.Flags().StringVarP(&name, "name", "n", "", "Dataset name (default: file name without extension)")

	return cmd
}

func runUpload(ctx context.Context, cl *client.Client, path, name string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	var ds *storage.Dataset
	filename := filepath.Base(path)
	if err := cliui.Step(os.Stdout, fmt.Sprintf("Uploading %s", filename), func() error {
		var uploadErr error
		ds, uploadErr = cl.UploadDataset(ctx, name, filename, file)
		return uploadErr
	}); err != nil {
		return err
	}

	fmt.Printf("\n  %s %s %s\n",
		cliui.KeyStyle.Render("Dataset:"),
		cliui.NameStyle.Render(ds.Name),
		cliui.DimStyle.Render("("+ds.ID+")"),
	)
	fmt.Printf("  %s %d rows, %d columns\n\n",
		cliui.KeyStyle.Render("Loaded: "),
		ds.RowCount,
		len(ds.Columns),
	)

	cols := make([]string, 0, len(ds.Columns))
	for _, col := range ds.Columns {
		cols = append(cols, fmt.Sprintf("%s (%s)", col.Name, col.Type))
	}
	fmt.Printf("  %s\n\n", cliui.DimStyle.Render(strings.Join(cols, ", ")))

	return nil
}
