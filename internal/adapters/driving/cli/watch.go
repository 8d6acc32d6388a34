package cli

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bookworm-labs/bookshelf-cli/internal/watcher"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the shelf and synchronise on changes",
	Long: `Watches the shelf directory and reconciles the search index
whenever its contents change. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "quiet period before a sync run")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if err := requireServices(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ensureSchema(ctx); err != nil {
		return err
	}

	w := watcher.New(shelfDir, synchronizer, watcher.WithDebounce(watchDebounce))
	return w.Run(ctx)
}
