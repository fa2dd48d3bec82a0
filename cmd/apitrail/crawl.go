package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/apitrail/apitrail/internal/config"
	"github.com/apitrail/apitrail/internal/crawler"
	"github.com/apitrail/apitrail/internal/database"
	"github.com/apitrail/apitrail/internal/log"
	"github.com/apitrail/apitrail/internal/model"
	"github.com/apitrail/apitrail/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <seed-url>",
		Short: "Crawl a REST API and map its endpoints",
		Long: `Crawl fetches the seed URL, extracts every link it can find in the JSON
response (HAL _links, JSON:API links, href/url-bearing objects, and
URL-valued properties), and follows them breadth-first until the depth
limit, the URL budget, or the frontier is exhausted.

Examples:
  # Crawl an API and print the endpoint list
  apitrail crawl https://api.example.com

  # Limit depth and write a nested tree artifact to a file
  apitrail crawl -d 2 -f tree -o api-map.json https://api.example.com

  # Authenticate and stay on one host
  apitrail crawl -H "Authorization: Bearer token" \
    --allowed-domain api.example.com https://api.example.com

  # Also produce a markdown report
  apitrail crawl -m report.md https://api.example.com

Configuration file (.apitrail) example:
  defaults:
    max_depth: 5
  profiles:
    api.example.com:
      headers:
        Authorization: "Bearer token"
      max_depth: 3`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("max-depth", "d", config.DefaultMaxDepth,
		"Maximum crawl depth past the seed (0 for unlimited)")
	cmd.Flags().Int("concurrency", config.DefaultConcurrency,
		"Number of parallel crawl workers")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().Int("max-urls", config.DefaultMaxURLs,
		"Maximum number of URLs to fetch")
	cmd.Flags().Duration("delay", config.DefaultDelay,
		"Delay before each request")
	cmd.Flags().Bool("no-redirects", false,
		"Do not follow HTTP redirects")

	// Request flags
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header value")
	cmd.Flags().StringArrayP("header", "H", nil,
		"Extra request header in 'Name: value' form (repeatable)")
	cmd.Flags().StringArray("allowed-domain", nil,
		"Restrict crawling to this host (repeatable; seed host is always allowed)")

	// Output flags
	cmd.Flags().StringP("format", "f", string(config.FormatFlat),
		"Artifact format: flat, compact, grouped, or tree")
	cmd.Flags().StringP("output", "o", "",
		"Write the serialized artifact to this file (omit for summary only)")
	cmd.Flags().StringP("markdown", "m", "",
		"Also write a markdown report to this file")

	// Configuration and history
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .apitrail in current or home directory)")
	cmd.Flags().Bool("no-save", false,
		"Do not record this run in the history database")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// buildConfig assembles the crawl configuration with fixed precedence:
// built-in defaults, then the config file's defaults, then the profile
// matching the seed's host, then explicitly set flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Seed = args[0]

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if err := applyConfigFile(cfg, configPath); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("max-depth") {
		if cfg.MaxDepth, err = flags.GetInt("max-depth"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-urls") {
		if cfg.MaxURLs, err = flags.GetInt("max-urls"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("delay") {
		if cfg.Delay, err = flags.GetDuration("delay"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("no-redirects") {
		noRedirects, err := flags.GetBool("no-redirects")
		if err != nil {
			return nil, err
		}
		cfg.FollowRedirects = !noRedirects
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("format") {
		formatName, err := flags.GetString("format")
		if err != nil {
			return nil, err
		}
		if cfg.Format, err = config.ParseFormat(formatName); err != nil {
			return nil, err
		}
	}

	headers, err := flags.GetStringArray("header")
	if err != nil {
		return nil, err
	}
	for _, h := range headers {
		name, value, err := config.ParseHeader(h)
		if err != nil {
			return nil, err
		}
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string)
		}
		cfg.Headers[name] = value
	}

	domains, err := flags.GetStringArray("allowed-domain")
	if err != nil {
		return nil, err
	}
	cfg.AllowedDomains = append(cfg.AllowedDomains, domains...)

	if cfg.Output, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.Markdown, err = flags.GetString("markdown"); err != nil {
		return nil, err
	}

	noSave, err := flags.GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveHistory = !noSave

	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

// applyConfigFile layers the config file onto cfg. An explicitly named
// file must exist; the default lookup silently skips when absent.
func applyConfigFile(cfg *config.Config, explicitPath string) error {
	path := explicitPath
	if path == "" {
		path = config.FindConfigFile()
		if path == "" {
			return nil
		}
	}

	fc, err := config.LoadFile(path)
	if err != nil {
		return err
	}

	host := ""
	if u, err := url.Parse(cfg.Seed); err == nil {
		host = u.Host
	}
	return fc.Apply(cfg, host)
}

// getVerboseFlag retrieves the persistent verbose flag.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// runCrawl executes the crawl and writes its outputs. Failed fetches do
// not fail the command; they surface in the statistics.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting crawl",
		slog.String("seed", cfg.Seed),
		slog.Int("maxDepth", cfg.MaxDepth),
		slog.Int("concurrency", cfg.Concurrency),
		slog.String("format", string(cfg.Format)),
	)

	var db *database.HistoryDB
	if cfg.SaveHistory {
		var err error
		db, err = database.Open(config.XDGDataDir(), database.DefaultOptions())
		if err != nil {
			// History is best-effort; the crawl is still worth running.
			logger.Warn("history database unavailable", slog.Any("error", err))
		} else {
			defer db.Close() //nolint:errcheck
		}
	}

	startTime := time.Now()
	result, err := crawler.New(cfg, crawler.WithLogger(logger)).Run(ctx)
	if err != nil {
		// The crawler hands back whatever it gathered before the
		// cancellation; write it out so the work is not lost.
		if werr := writeOutputs(cfg, result); werr != nil {
			logger.Warn("failed to write partial result", slog.Any("error", werr))
		}
		return fmt.Errorf("crawl aborted: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Crawl completed in %s\n\n", time.Since(startTime).Round(time.Millisecond))

	if err := writeOutputs(cfg, result); err != nil {
		return err
	}

	saveRun(ctx, db, result, logger)
	return nil
}

// writeOutputs produces the artifact, the optional markdown report, and the
// terminal summary for one result.
func writeOutputs(cfg *config.Config, result *model.Result) error {
	if err := outputArtifact(cfg, result); err != nil {
		return err
	}
	if err := outputMarkdown(cfg, result); err != nil {
		return err
	}
	return outputSummary(result)
}

// outputArtifact writes the serialized result to the configured file.
// Without an output path the run produces only the summary.
func outputArtifact(cfg *config.Config, result *model.Result) error {
	if cfg.Output == "" {
		return nil
	}

	output, closeFn, err := openOutput(cfg.Output)
	if err != nil {
		return err
	}
	defer closeFn()

	w, err := report.NewWriter(cfg.Format, output)
	if err != nil {
		return err
	}
	if _, err := w.Write(result); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}

// outputMarkdown writes the markdown report when a path was configured.
func outputMarkdown(cfg *config.Config, result *model.Result) error {
	if cfg.Markdown == "" {
		return nil
	}

	output, closeFn, err := openOutput(cfg.Markdown)
	if err != nil {
		return err
	}
	defer closeFn()

	if _, err := report.NewMarkdownWriter(output).Write(result); err != nil {
		return fmt.Errorf("write markdown report: %w", err)
	}
	return nil
}

// outputSummary prints the run summary to stdout.
func outputSummary(result *model.Result) error {
	_, err := report.NewSummaryWriter(os.Stdout).Write(result)
	return err
}

// openOutput opens path for writing, creating parent directories.
// An empty path means stdout.
func openOutput(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// saveRun records the result in the history database, best-effort.
func saveRun(ctx context.Context, db *database.HistoryDB, result *model.Result, logger *slog.Logger) {
	if db == nil {
		return
	}
	id, err := db.SaveRun(ctx, result)
	if err != nil {
		logger.Error("failed to save run", slog.Any("error", err))
		return
	}
	logger.Info("run saved to history", slog.Int64("id", id), slog.String("db", db.Path()))
}
