package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bookworm-labs/bookshelf-cli/internal/core/domain"
)

var searchJSON bool

var searchCmd = &cobra.Command{
	Use:   "search <phrase>",
	Short: "Search the collection for a phrase",
	Long: `Searches the page text of every indexed book and reports the
matching books with page numbers and highlighted snippets.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := requireServices(); err != nil {
		return err
	}

	phrase := strings.Join(args, " ")
	resp, err := searchService.Search(cmd.Context(), phrase)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, resp)
	}
	return outputSearchText(cmd, resp)
}

func outputSearchJSON(cmd *cobra.Command, resp domain.SearchResponse) error {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchText(cmd *cobra.Command, resp domain.SearchResponse) error {
	if resp.Total == 0 {
		cmd.Println("Nothing found.")
		return nil
	}

	for _, result := range resp.Results {
		cmd.Printf("%s: pages %s\n", result.Book.Name, joinPages(result.Pages))
		for _, page := range result.Pages {
			for _, snippet := range result.Highlights[page] {
				cmd.Printf("    p.%d: %s\n", page, snippet)
			}
		}
	}
	cmd.Printf("\nFound %d matching page(s) in %d book(s)\n", resp.Total, len(resp.Results))
	return nil
}

func joinPages(pages []int) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = fmt.Sprintf("%d", p)
	}
	return strings.Join(parts, ", ")
}
