// Package cli wires the application together and exposes it as cobra
// commands. All construction happens here, in one composition root;
// services receive their collaborators through constructors and never
// reach for globals themselves.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	bookfile "github.com/bookworm-labs/bookshelf-cli/internal/adapters/driven/bookstore/file"
	cachesqlite "github.com/bookworm-labs/bookshelf-cli/internal/adapters/driven/cache/sqlite"
	configfile "github.com/bookworm-labs/bookshelf-cli/internal/adapters/driven/config/file"
	"github.com/bookworm-labs/bookshelf-cli/internal/adapters/driven/searchindex/elastic"
	"github.com/bookworm-labs/bookshelf-cli/internal/core/ports/driven"
	"github.com/bookworm-labs/bookshelf-cli/internal/core/ports/driving"
	"github.com/bookworm-labs/bookshelf-cli/internal/core/services"
	"github.com/bookworm-labs/bookshelf-cli/internal/extractor/ocr"
	extractorpdf "github.com/bookworm-labs/bookshelf-cli/internal/extractor/pdf"
	"github.com/bookworm-labs/bookshelf-cli/internal/logger"
	"github.com/bookworm-labs/bookshelf-cli/internal/stopwords"
)

// DefaultBackendURL is used when no backend is configured.
const DefaultBackendURL = "http://localhost:9200"

var (
	verboseFlag bool
	configDir   string

	// wired short-circuits initServices when collaborators were
	// injected directly, as tests do.
	wired bool
)

// Wired collaborators, set by initServices before any command runs.
var (
	config          driven.ConfigStore
	bookStore       driven.BookStore
	searchIndex     driven.SearchIndex
	extractionCache driven.ExtractionCache
	libraryService  driving.LibraryService
	searchService   driving.SearchService
	synchronizer    driving.Synchronizer
	shelfDir        string
)

var rootCmd = &cobra.Command{
	Use:   "bookshelf",
	Short: "Personal PDF library with full-text search",
	Long: `bookshelf keeps a collection of PDF books on disk and mirrors
their page text into a search backend, so any phrase can be traced
back to the exact books and pages containing it. Books without a text
layer are read through OCR.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verboseFlag)
		if wired || cmd.Name() == "version" {
			return nil
		}
		return initServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.bookshelf)")
}

// initServices builds the full object graph from configuration.
func initServices() error {
	cfg, err := configfile.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	config = cfg

	if path := cfg.GetString(configfile.KeyLogFile); path != "" {
		if err := logger.SetLogFile(path); err != nil {
			return err
		}
	}

	store, err := bookfile.NewStore(cfg.GetString(configfile.KeyShelfRoot))
	if err != nil {
		return fmt.Errorf("open shelf: %w", err)
	}
	bookStore = store
	shelfDir = store.Dir()

	words := stopwords.Default
	if path := cfg.GetString(configfile.KeyStopwordsPath); path != "" {
		words, err = stopwords.Load(path)
		if err != nil {
			return fmt.Errorf("load stopwords: %w", err)
		}
	}

	backendURL := cfg.GetString(configfile.KeyBackendURL)
	if backendURL == "" {
		backendURL = DefaultBackendURL
	}
	index, err := elastic.NewClient(backendURL, words)
	if err != nil {
		return fmt.Errorf("connect search backend: %w", err)
	}
	searchIndex = index

	var extractorOpts []extractorpdf.Option

	workers := cfg.GetInt(configfile.KeyWorkers)
	if workers > 0 {
		extractorOpts = append(extractorOpts, extractorpdf.WithWorkers(workers))
	} else {
		extractorOpts = append(extractorOpts, extractorpdf.WithWorkers(4*runtime.GOMAXPROCS(0)))
	}

	engine := ocr.NewEngine(
		cfg.GetStringSlice(configfile.KeyOCRLanguages),
		ocr.WithBinary(cfg.GetString(configfile.KeyOCRBinary)),
	)
	rasterizer := ocr.NewRasterizer(
		ocr.WithRasterizerBinary(cfg.GetString(configfile.KeyRasterizer)),
	)
	extractorOpts = append(extractorOpts, extractorpdf.WithOCR(engine, rasterizer))

	// Cache is on unless explicitly disabled.
	if _, set := cfg.Get(configfile.KeyCacheEnabled); !set || cfg.GetBool(configfile.KeyCacheEnabled) {
		cache, err := cachesqlite.NewCache("")
		if err != nil {
			logger.Warn("Extraction cache unavailable: %v", err)
		} else {
			extractionCache = cache
			extractorOpts = append(extractorOpts, extractorpdf.WithCache(cache))
		}
	}

	extractor := extractorpdf.NewExtractor(extractorOpts...)

	libraryService = services.NewLibraryService(bookStore, searchIndex, extractor)
	searchService = services.NewSearchService(bookStore, searchIndex)
	synchronizer = services.NewSyncService(bookStore, searchIndex, extractor)

	return nil
}

// shutdown releases resources held by the object graph.
func shutdown() {
	if extractionCache != nil {
		if err := extractionCache.Close(); err != nil {
			logger.Warn("Closing extraction cache: %v", err)
		}
	}
	logger.Close()
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	defer shutdown()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// ensureSchema prepares the backend collections and the ingestion
// pipeline. The bootstrap is idempotent, so every ingesting command
// runs it up front instead of trusting an earlier setup.
func ensureSchema(ctx context.Context) error {
	if err := searchIndex.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("prepare backend schema: %w", err)
	}
	return nil
}

// requireServices guards commands that cannot run before wiring, for
// example under tests that execute bare commands.
func requireServices() error {
	if libraryService == nil || searchService == nil || synchronizer == nil {
		return errors.New("services not configured")
	}
	return nil
}
