package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	configfile "github.com/bookworm-labs/bookshelf-cli/internal/adapters/driven/config/file"
	"github.com/bookworm-labs/bookshelf-cli/internal/core/domain"
)

var pingWait time.Duration

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check the search backend",
	Long: `Checks that the search backend is reachable, waits for it to
become ready and verifies the index schema, including the attachment
ingestion plugin.`,
	Args: cobra.NoArgs,
	RunE: runPing,
}

func init() {
	pingCmd.Flags().DurationVar(&pingWait, "wait", 30*time.Second, "how long to wait for the backend")
	rootCmd.AddCommand(pingCmd)
}

func runPing(cmd *cobra.Command, _ []string) error {
	if searchIndex == nil {
		return errors.New("search index not configured")
	}

	ctx := cmd.Context()

	if err := searchIndex.WaitReady(ctx, pingWait); err != nil {
		url := config.GetString(configfile.KeyBackendURL)
		if url == "" {
			url = DefaultBackendURL
		}
		return fmt.Errorf("backend at %s is not answering: %w", url, err)
	}
	cmd.Println("Backend is up.")

	if err := searchIndex.EnsureSchema(ctx); err != nil {
		if errors.Is(err, domain.ErrPluginMissing) {
			return fmt.Errorf("backend is missing the attachment plugin: %w", err)
		}
		return fmt.Errorf("schema check failed: %w", err)
	}
	cmd.Println("Schema is in place.")

	count, err := searchIndex.Count(ctx)
	if err != nil {
		return fmt.Errorf("count books: %w", err)
	}
	cmd.Printf("%d book(s) indexed.\n", count)
	return nil
}
