package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/felixgeelhaar/specaudit/internal/infrastructure/watch"
	"github.com/felixgeelhaar/specaudit/pkg/application"
	"github.com/spf13/cobra"
)

var (
	watchMCAT     string
	watchDir      string
	watchInclude  []string
	watchExclude  []string
	watchDebounce time.Duration
	watchOnce     bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [file|glob]...",
	Short: "Re-normalize specification files whenever they change",
	Long: `Watch specification files and re-normalize them on every change, printing
the detected format and specification count or the validation error.

Examples:
  specaudit watch --mcat Steel specs.json
  specaudit watch --mcat Steel --dir exports --include '**/*.json'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && watchDir == "" {
			return errNoWatchTarget
		}
		reloader := application.NewReloader(watchMCAT, printReload(cmd.OutOrStdout()), slog.Default())

		paths, err := initialReload(cmd, reloader, args)
		if err != nil {
			return err
		}
		if watchOnce || os.Getenv("SPECAUDIT_WATCH_ONCE") == "true" {
			return nil
		}

		w, err := newSpecWatcher(cmd, reloader, paths)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("Watching for changes... (ctrl+c to stop)"))
		return ignoreCanceled(w.Run(cmd.Context()))
	},
}

var errNoWatchTarget = NewCLIError("nothing to watch", "Pass files or globs, or --dir", nil)

// initialReload normalizes every target once and returns the resolved paths.
func initialReload(cmd *cobra.Command, reloader *application.Reloader, args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, nil
	}
	paths, err := expandArgs(args)
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		reloader.Reload(cmd.Context(), p)
	}
	return paths, nil
}

func newSpecWatcher(cmd *cobra.Command, reloader *application.Reloader, paths []string) (*watch.FSWatcher, error) {
	w, err := watch.NewFSWatcher(watchDebounce, func(batch []watch.ChangeEvent) {
		for _, ev := range batch {
			if ev.ChangeType == "remove" {
				slog.Warn("watched file removed", "file", ev.Path)
				continue
			}
			reloader.Reload(cmd.Context(), ev.Path)
		}
	},
		watch.WithFilter(watch.NewPatternFilter(watchInclude, watchExclude)),
		watch.WithLogger(slog.Default()),
	)
	if err != nil {
		return nil, err
	}

	if watchDir != "" {
		dir, err := resolvePath(watchDir)
		if err != nil {
			return nil, err
		}
		if err := w.WatchRecursive(dir); err != nil {
			return nil, err
		}
		return w, nil
	}
	if err := w.WatchFiles(paths...); err != nil {
		return nil, err
	}
	return w, nil
}

func printReload(out io.Writer) func(application.ReloadEvent) {
	return func(ev application.ReloadEvent) {
		stamp := ev.Timestamp.Format("15:04:05")
		if ev.Type == application.ReloadFailed {
			_, _ = fmt.Fprintf(out, "%s %s %s\n", stamp, ev.Path, incorrectStyle.Render(ev.Error))
			return
		}
		_, _ = fmt.Fprintf(out, "%s %s %s\n", stamp, ev.Path,
			correctStyle.Render(fmt.Sprintf("%s, %d specifications", ev.Shape, ev.Specs)))
	}
}

func init() {
	watchCmd.Flags().StringVarP(&watchMCAT, "mcat", "m", "", "MCAT name the files must belong to")
	watchCmd.Flags().StringVar(&watchDir, "dir", "", "Watch a directory tree instead of individual files")
	watchCmd.Flags().StringSliceVar(&watchInclude, "include", watch.DefaultInclude, "Include globs (** supported)")
	watchCmd.Flags().StringSliceVar(&watchExclude, "exclude", nil, "Exclude globs (** supported)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond, "Quiet period before reloading")
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "Normalize once and exit")
	RootCmd.AddCommand(watchCmd)
}
