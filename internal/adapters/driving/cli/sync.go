package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the search index with the shelf",
	Long: `Compares the books on the shelf with the books in the search
index. Books present only on disk are extracted and indexed; books
present only in the index are removed from it. Running sync twice in a
row changes nothing the second time.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	if err := requireServices(); err != nil {
		return err
	}
	if err := ensureSchema(cmd.Context()); err != nil {
		return err
	}

	report, err := synchronizer.Synchronize(cmd.Context())
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	for _, book := range report.Indexed {
		cmd.Printf("Indexed %q\n", book.Name)
	}
	for _, book := range report.Deleted {
		cmd.Printf("Deleted %q from the index\n", book.Name)
	}
	for id, ferr := range report.Failed {
		cmd.Printf("Failed %s: %v\n", id, ferr)
	}

	if report.Clean() {
		cmd.Println("Shelf and index are in sync.")
	} else {
		cmd.Printf("%d indexed, %d deleted, %d failed\n",
			len(report.Indexed), len(report.Deleted), len(report.Failed))
	}

	if len(report.Failed) > 0 {
		return fmt.Errorf("%d book(s) failed to synchronise", len(report.Failed))
	}
	return nil
}
