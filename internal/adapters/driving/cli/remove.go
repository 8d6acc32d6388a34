package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bookworm-labs/bookshelf-cli/internal/core/domain"
)

var removeCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a book from the shelf and the index",
	Args:    cobra.ExactArgs(1),
	RunE:    runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	if err := requireServices(); err != nil {
		return err
	}

	name := args[0]
	status, err := libraryService.RemoveBook(cmd.Context(), name)
	if err != nil {
		return fmt.Errorf("remove %q: %w", name, err)
	}

	switch status {
	case domain.Deleted:
		cmd.Printf("Removed %q\n", name)
	case domain.NotFound:
		cmd.Printf("No book named %q on the shelf\n", name)
	}
	return nil
}
