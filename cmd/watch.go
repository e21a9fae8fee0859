package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/conneroisu/strata/internal/input"
	"github.com/conneroisu/strata/internal/watcher"
	"github.com/conneroisu/strata/internal/world"
	"github.com/spf13/cobra"
)

var (
	watchVerbose    bool
	watchProperties []string
	watchVoxelFlags *voxelFlags
)

var watchCmd = &cobra.Command{
	Use:   "watch <world.yml>",
	Short: "Re-voxelise a world whenever its files change",
	Long: `Voxelise a world file, then watch it and every CSV file it references and
voxelise again after each change. Bursts of changes are merged using the
configured debounce delay.

Examples:
  strata watch world.yml                  # Watch with configured settings
  strata watch world.yml -x 16 -y 16 -z 16 --verbose`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchVoxelFlags = addVoxelFlags(watchCmd)
	watchCmd.Flags().BoolVarP(&watchVerbose, "verbose", "v", false, "Verbose output")
	watchCmd.Flags().StringSliceVar(&watchProperties, "property", nil, "rock properties to write (default all stored)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	vs, err := watchVoxelFlags.spec(a.cfg)
	if err != nil {
		return err
	}
	props, err := parseProperties(watchProperties)
	if err != nil {
		return err
	}
	output := watchVoxelFlags.outputPath(a.cfg)
	path := args[0]

	f, err := input.Load(path)
	if err != nil {
		return err
	}
	files := f.ReferencedFiles()

	fileWatcher, err := watcher.NewFileWatcher(a.cfg.Watch.Debounce, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fileWatcher.Stop()

	if err := fileWatcher.WatchFiles(files...); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	out := cmd.OutOrStdout()
	fileWatcher.AddHandler(a.watchHandler(out, path, vs, props, output))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A broken world is reported and watched until it is fixed.
	if _, err := a.voxelise(ctx, path, vs, props, output); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Voxelise failed: %v\n", err)
	} else {
		fmt.Fprintf(out, "Wrote %s\n", output)
	}

	if err := fileWatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	fmt.Fprintf(out, "Watching %d files... (Press Ctrl+C to stop)\n", len(files))

	<-ctx.Done()
	fmt.Fprintln(out, "Stopping file watcher...")
	return nil
}

// watchHandler voxelises the world again after every batch of changes.
// Failures are reported and never stop the watcher.
func (a *app) watchHandler(out io.Writer, path string, vs world.VoxelSpec, props []world.RockProperty, output string) watcher.ChangeHandler {
	return func(events []watcher.ChangeEvent) error {
		if watchVerbose {
			fmt.Fprintln(out, "File changes detected:")
			for _, event := range events {
				fmt.Fprintf(out, "   %s: %s\n", event.Type, event.Path)
			}
		} else {
			fmt.Fprintf(out, "%d file(s) changed\n", len(events))
		}

		ctx := context.Background()
		if _, err := a.voxelise(ctx, path, vs, props, output); err != nil {
			a.logger.Error(ctx, err, "Voxelise failed", "file", path)
			return nil
		}
		fmt.Fprintf(out, "Wrote %s\n", output)
		return nil
	}
}
