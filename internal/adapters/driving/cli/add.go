package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bookworm-labs/bookshelf-cli/internal/core/domain"
)

var addCmd = &cobra.Command{
	Use:   "add <file.pdf> [file.pdf...]",
	Short: "Add PDF files to the shelf and index them",
	Long: `Extracts the page text of each PDF, indexes it in the search
backend and copies the file onto the shelf. Pages without a text layer
are recognised with OCR. A book whose name is already on the shelf is
skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	if err := requireServices(); err != nil {
		return err
	}
	if err := ensureSchema(cmd.Context()); err != nil {
		return err
	}

	var lastPercent int
	progress := func(fraction float64) {
		percent := int(fraction * 100)
		// A fraction below the last one means the next file started.
		if percent < lastPercent {
			lastPercent = 0
		}
		if percent >= lastPercent+10 || percent == 100 {
			lastPercent = percent
			cmd.Printf("  ... %d%%\n", percent)
		}
	}

	results, err := libraryService.AddBooks(cmd.Context(), args, progress)

	added := 0
	for n, result := range results {
		switch result.Status {
		case domain.Added:
			cmd.Printf("Added %q (%d pages)\n", result.Book.Name, result.Pages)
			added++
		case domain.AlreadyExists:
			cmd.Printf("Skipped %q: already on the shelf\n", domain.BookName(args[n]))
		case domain.AddFailed:
			cmd.Printf("Failed %q\n", domain.BookName(args[n]))
		}
	}

	if err != nil {
		return fmt.Errorf("%d of %d files added: %w", added, len(args), err)
	}
	return nil
}
