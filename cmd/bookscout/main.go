package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/IshaanNene/bookscout/internal/config"
	"github.com/IshaanNene/bookscout/internal/engine"
	"github.com/IshaanNene/bookscout/internal/fetcher"
	"github.com/IshaanNene/bookscout/internal/observability"
	"github.com/IshaanNene/bookscout/internal/report"
)

var (
	cfgFile         string
	verbose         bool
	startURL        string
	maxPages        int
	driver          string
	headless        bool
	stealthMode     bool
	continueOnError bool
	progress        bool
	categories      string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bookscout",
		Short: "BookScout: browser-driven scraper for books.toscrape.com",
		Long: `BookScout opens a browser on books.toscrape.com, finds the Travel and
Nonfiction categories, walks up to three listing pages of each, and prints
the name, price, star rating, description and product table of every book.`,
		SilenceUsage: true,
		RunE:         runScrape,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	f := rootCmd.PersistentFlags()
	f.StringVar(&startURL, "start-url", "", "page to discover categories on")
	f.IntVarP(&maxPages, "max-pages", "p", 0, "listing pages per category (0 = use config)")
	f.StringVarP(&driver, "driver", "d", "", "automation driver: rod, chromedp, http")
	f.StringVar(&categories, "categories", "", "comma-separated category text filters (e.g. Travel,Nonfiction)")
	f.BoolVar(&headless, "headless", false, "run the browser without a window")
	f.BoolVar(&stealthMode, "stealth", false, "hide automation fingerprints")
	f.BoolVar(&continueOnError, "continue-on-error", false, "skip books that fail instead of aborting")
	f.BoolVar(&progress, "progress", false, "show a progress spinner on stderr")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "scrape",
		Short: "Scrape the configured categories (default command)",
		RunE:  runScrape,
	})
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	return rootCmd
}

// runScrape executes the scrape.
func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	applyCLIOverrides(cmd, cfg)

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(cfg, os.Stderr).With("run_id", uuid.NewString())

	logger.Info("starting scrape",
		"start_url", cfg.Site.StartURL,
		"categories", cfg.Site.CategoryFilters,
		"max_pages", cfg.Site.MaxPages,
		"driver", cfg.Browser.Driver,
		"headless", cfg.Browser.Headless,
	)

	var opts []engine.Option

	if cfg.Metrics.Enabled {
		metrics := observability.NewMetrics(logger)
		metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metrics.Shutdown(ctx)
		}()
		opts = append(opts, engine.WithMetrics(metrics))
	}

	if cfg.Run.Progress {
		opts = append(opts, engine.WithProgress(observability.NewSpinner(os.Stderr)))
	}

	eng := engine.New(cfg, report.NewTextReporter(os.Stdout, logger), logger, opts...)

	// Handle graceful shutdown; the engine still closes the session.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	runErr := eng.Run(ctx, func(ctx context.Context) (fetcher.Session, error) {
		return fetcher.Open(ctx, cfg, logger)
	})

	stats := eng.Stats().Snapshot()
	logger.Info("scrape finished",
		"elapsed", time.Since(start).Round(time.Millisecond),
		"categories", stats["categories"],
		"listing_pages", stats["listing_pages"],
		"books_listed", stats["books_listed"],
		"books_reported", stats["books_reported"],
		"books_failed", stats["books_failed"],
		"field_fallbacks", stats["field_fallbacks"],
	)

	if runErr != nil {
		logger.Error("scrape failed", "error", runErr)
		return runErr
	}
	return nil
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "BookScout %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			applyCLIOverrides(cmd, cfg)
			printConfig(cmd, cfg)
			return nil
		},
	}
}

func printConfig(cmd *cobra.Command, cfg *config.Config) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Site:\n")
	fmt.Fprintf(w, "  Start URL:         %s\n", cfg.Site.StartURL)
	fmt.Fprintf(w, "  Categories:        %s\n", strings.Join(cfg.Site.CategoryFilters, ", "))
	fmt.Fprintf(w, "  Max Pages:         %d\n", cfg.Site.MaxPages)
	fmt.Fprintf(w, "\nBrowser:\n")
	fmt.Fprintf(w, "  Driver:            %s\n", cfg.Browser.Driver)
	fmt.Fprintf(w, "  Headless:          %v\n", cfg.Browser.Headless)
	fmt.Fprintf(w, "  Maximized:         %v\n", cfg.Browser.Maximized)
	fmt.Fprintf(w, "  Stealth:           %v\n", cfg.Browser.Stealth)
	fmt.Fprintf(w, "  Request Timeout:   %s\n", cfg.Browser.RequestTimeout)
	fmt.Fprintf(w, "\nWait:\n")
	fmt.Fprintf(w, "  Poll Interval:     %s\n", cfg.Wait.PollInterval)
	fmt.Fprintf(w, "  Category Timeout:  %s\n", cfg.Wait.CategoryTimeout)
	fmt.Fprintf(w, "  Listing Timeout:   %s\n", cfg.Wait.ListingTimeout)
	fmt.Fprintf(w, "  Detail Timeout:    %s\n", cfg.Wait.DetailTimeout)
	fmt.Fprintf(w, "\nRun:\n")
	fmt.Fprintf(w, "  Continue On Error: %v\n", cfg.Run.ContinueOnError)
	fmt.Fprintf(w, "\nLogging:\n")
	fmt.Fprintf(w, "  Level:             %s\n", cfg.Logging.Level)
	fmt.Fprintf(w, "  Format:            %s\n", cfg.Logging.Format)
	fmt.Fprintf(w, "\nMetrics:\n")
	fmt.Fprintf(w, "  Enabled:           %v\n", cfg.Metrics.Enabled)
	fmt.Fprintf(w, "  Port:              %d\n", cfg.Metrics.Port)
}

// applyCLIOverrides applies explicitly set command-line flags to the config.
func applyCLIOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if startURL != "" {
		cfg.Site.StartURL = startURL
	}
	if maxPages > 0 {
		cfg.Site.MaxPages = maxPages
	}
	if driver != "" {
		cfg.Browser.Driver = strings.ToLower(driver)
	}
	if categories != "" {
		var filters []string
		for _, c := range strings.Split(categories, ",") {
			if c = strings.TrimSpace(c); c != "" {
				filters = append(filters, c)
			}
		}
		cfg.Site.CategoryFilters = filters
	}
	if flags.Changed("headless") {
		cfg.Browser.Headless = headless
	}
	if flags.Changed("stealth") {
		cfg.Browser.Stealth = stealthMode
	}
	if flags.Changed("continue-on-error") {
		cfg.Run.ContinueOnError = continueOnError
	}
	if flags.Changed("progress") {
		cfg.Run.Progress = progress
	}
}
