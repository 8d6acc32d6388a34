package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the books on the shelf",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	if err := requireServices(); err != nil {
		return err
	}

	books, err := libraryService.ListBooks(cmd.Context())
	if err != nil {
		return fmt.Errorf("list books: %w", err)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].Name < books[j].Name })

	if listJSON {
		data, err := json.MarshalIndent(books, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal books: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(books) == 0 {
		cmd.Println("The shelf is empty.")
		return nil
	}

	for _, book := range books {
		cmd.Printf("  %s  %s\n", book.ID, book.Name)
	}
	cmd.Printf("%d book(s)\n", len(books))
	return nil
}
