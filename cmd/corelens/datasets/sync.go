package datasetscmder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/corelens-ai/corelens/pkg/client"
	"github.com/corelens-ai/corelens/pkg/cliui"
	"github.com/corelens-ai/corelens/pkg/config"
)

const syncLongDesc string = `Upload every CSV file in a directory.

Each .csv file in the directory is uploaded as a dataset named after the
file (without extension). With --watch, the command keeps running and
re-uploads files as they are created or modified.

Examples:
  corelens datasets sync ./data
  corelens datasets sync ./data --watch`

const syncShortDesc string = "Upload every CSV in a directory"

// settleDelay gives writers a moment to finish before a changed file is
// re-uploaded.
const settleDelay = 500 * time.Millisecond

func newSyncCmd() *cobra.Command {
	var (
		apiTarget string
		watch     bool
	)

	cmd := &cobra.Command{
		Use:   "sync <dir>",
		Short: syncShortDesc,
		Long:  syncLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := resolveClient(cmd, apiTarget)
			if err != nil {
				return err
			}

			syncer := &syncer{client: cl, dir: args[0]}
			if err := syncer.syncAll(cmd.Context()); err != nil {
				return err
			}

			if watch {
				return syncer.watch(cmd.Context())
			}
			return nil
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep watching the directory and re-upload changed CSVs")

	return cmd
}

type syncer struct {
	client *client.Client
	dir    string
}

func (s *syncer) syncAll(ctx context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", s.dir, err)
	}

	uploaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !isCSV(entry.Name()) {
			continue
		}

		if err := s.uploadFile(ctx, filepath.Join(s.dir, entry.Name())); err != nil {
			fmt.Fprintf(os.Stderr, "  %s %s: %v\n", cliui.FailMark, entry.Name(), err)
			continue
		}
		uploaded++
	}

	fmt.Printf("\n  %s Uploaded %d dataset(s) from %s\n\n",
		cliui.SuccessMark, uploaded, cliui.DimStyle.Render(s.dir))
	return nil
}

func (s *syncer) watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("watching %s: %w", s.dir, err)
	}

	fmt.Printf("  %s Watching %s for CSV changes. Ctrl+C to stop.\n\n",
		cliui.DimStyle.Render("●"), cliui.DimStyle.Render(s.dir))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !isCSV(event.Name) {
				continue
			}

			time.Sleep(settleDelay)
			if err := s.uploadFile(ctx, event.Name); err != nil {
				fmt.Fprintf(os.Stderr, "  %s %s: %v\n", cliui.FailMark, filepath.Base(event.Name), err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

func (s *syncer) uploadFile(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	filename := filepath.Base(path)
	name := strings.TrimSuffix(filename, filepath.Ext(filename))

	ds, err := s.client.UploadDataset(ctx, name, filename, file)
	if err != nil {
		return err
	}

	fmt.Printf("  %s %s %s\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(ds.Name),
		cliui.DimStyle.Render(fmt.Sprintf("(%s, %d rows)", ds.ID, ds.RowCount)),
	)
	return nil
}

func isCSV(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}
