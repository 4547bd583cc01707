package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/quantmind-br/kbingest-go/internal/app"
	"github.com/quantmind-br/kbingest-go/internal/bridge"
	"github.com/quantmind-br/kbingest-go/internal/config"
	"github.com/quantmind-br/kbingest-go/internal/domain"
	"github.com/quantmind-br/kbingest-go/internal/fetcher"
	"github.com/quantmind-br/kbingest-go/internal/manifest"
	"github.com/quantmind-br/kbingest-go/internal/output"
	"github.com/quantmind-br/kbingest-go/internal/store"
	"github.com/quantmind-br/kbingest-go/internal/utils"
	"github.com/quantmind-br/kbingest-go/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	log     *utils.Logger

	// Dependencies for testing
	osStat       = os.Stat
	execLookPath = exec.LookPath
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kbingest",
	Short: "Ingest web content into a local knowledge base",
	Long: `kbingest fetches URLs, extracts their textual content, and stores the
result as knowledge-base entries. HTML, PDF, markdown, and plain text are
handled natively; office formats and bot-hostile sites are delegated to
Python extractor wrappers over a child-process bridge.

Unchanged content is detected by hash and skipped on re-ingestion.`,
	Version: version.Short(),
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [urls...]",
	Short: "Fetch, process, and store one or more URLs",
	Long: `Ingest fetches each URL, extracts its content, and stores it as a
knowledge-base entry. URLs come from the command line, from a manifest
file (--manifest), or both.`,
	Args: cobra.ArbitraryArgs,
	RunE: runIngest,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.kbingest/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	// Ingest flags
	ingestCmd.Flags().IntP("concurrency", "j", 5, "Number of concurrent workers")
	ingestCmd.Flags().Bool("force", false, "Re-store content even when unchanged")
	ingestCmd.Flags().StringSlice("tags", nil, "Tags attached to stored entries")
	ingestCmd.Flags().Bool("skip-blob", false, "Skip raw payload archival")
	ingestCmd.Flags().Bool("render-js", false, "Force JS rendering")
	ingestCmd.Flags().Duration("timeout", 30*time.Second, "Request timeout")
	ingestCmd.Flags().String("user-agent", "", "Custom User-Agent")
	ingestCmd.Flags().StringP("manifest", "m", "", "Manifest file with sources to ingest")
	ingestCmd.Flags().String("db", "", "Knowledge base database path")
	ingestCmd.Flags().String("blob-dir", "", "Raw payload directory")
	ingestCmd.Flags().Bool("no-cache", false, "Disable fetch caching")

	// Bind flags to viper
	_ = viper.BindPFlag("concurrency.workers", ingestCmd.Flags().Lookup("concurrency"))
	_ = viper.BindPFlag("concurrency.timeout", ingestCmd.Flags().Lookup("timeout"))
	_ = viper.BindPFlag("rendering.force_js", ingestCmd.Flags().Lookup("render-js"))
	_ = viper.BindPFlag("stealth.user_agent", ingestCmd.Flags().Lookup("user-agent"))

	// Export flags
	exportCmd.Flags().StringP("output", "o", "./export", "Output directory")
	exportCmd.Flags().Bool("flat", false, "Write all files into the output directory root")
	exportCmd.Flags().Bool("json", false, "Write a JSON metadata sidecar per entry")
	exportCmd.Flags().Bool("index", false, "Write an index.json listing all exported entries")
	exportCmd.Flags().Bool("force", false, "Overwrite existing files")
	exportCmd.Flags().Bool("dry-run", false, "Resolve entries without writing files")
	exportCmd.Flags().String("tag", "", "Export only entries carrying this tag")
	exportCmd.Flags().String("db", "", "Knowledge base database path")

	// Add subcommands
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	// Initialize logger
	logLevel := "info"
	if verbose {
		logLevel = "debug"
	}
	log = utils.NewLogger(utils.LoggerOptions{
		Level:   logLevel,
		Format:  "pretty",
		Verbose: verbose,
	})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
		cfg.Storage.DatabasePath = dbPath
	}
	if blobDir, _ := cmd.Flags().GetString("blob-dir"); blobDir != "" {
		cfg.Storage.BlobDirectory = blobDir
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Info().Msg("Shutting down gracefully...")
		cancel()
	}()

	force, _ := cmd.Flags().GetBool("force")
	tags, _ := cmd.Flags().GetStringSlice("tags")
	skipBlob, _ := cmd.Flags().GetBool("skip-blob")
	concurrency, _ := cmd.Flags().GetInt("concurrency")

	baseOpts := domain.ProcessOptions{
		Tags:        tags,
		Force:       force,
		SkipBlob:    skipBlob,
		Concurrency: concurrency,
	}

	targets := make([]ingestTarget, 0, len(args))
	for _, url := range args {
		targets = append(targets, ingestTarget{url: url, opts: baseOpts})
	}

	var rules []domain.SelectionRule
	if manifestPath, _ := cmd.Flags().GetString("manifest"); manifestPath != "" {
		mf, err := loadManifest(ctx, manifestPath)
		if err != nil {
			return fmt.Errorf("failed to load manifest: %w", err)
		}
		rules = mf.SelectionRules()
		if baseOpts.Concurrency == 0 || !cmd.Flags().Changed("concurrency") {
			baseOpts.Concurrency = mf.Options.Concurrency
		}
		for _, src := range mf.Sources {
			opts := baseOpts
			opts.Tags = append(append([]string{}, mf.Options.Tags...), src.Tags...)
			opts.Tags = append(opts.Tags, tags...)
			opts.Force = force || src.Force
			opts.SkipBlob = skipBlob || mf.Options.SkipBlob
			targets = append(targets, ingestTarget{url: src.URL, opts: opts})
		}
	}

	if len(cfg.Exclude) > 0 {
		urls := make([]string, len(targets))
		for i, tgt := range targets {
			urls[i] = tgt.url
		}
		kept := utils.FilterLinks(urls, cfg.Exclude)
		keep := make(map[string]bool, len(kept))
		for _, url := range kept {
			keep[url] = true
		}
		filtered := targets[:0]
		for _, tgt := range targets {
			if keep[tgt.url] {
				filtered = append(filtered, tgt)
			} else {
				log.Warn().Str("url", tgt.url).Msg("Excluded by pattern")
			}
		}
		targets = filtered
	}

	if len(targets) == 0 {
		return fmt.Errorf("no URLs to ingest: pass URLs or --manifest")
	}

	renderJS, _ := cmd.Flags().GetBool("render-js")

	application, err := app.New(app.Options{
		Config:         cfg,
		Verbose:        verbose,
		RenderJS:       renderJS,
		SelectionRules: rules,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer application.Close()

	start := time.Now()
	results := ingestWithProgress(ctx, application, targets, baseOpts.Concurrency)

	succeeded, unchanged, failed := 0, 0, 0
	for _, r := range results {
		switch {
		case r.Success && r.Unchanged:
			unchanged++
			log.Info().Str("url", r.URL).Msg("Unchanged, skipped")
		case r.Success:
			succeeded++
			log.Info().Str("url", r.URL).Str("entry_id", r.EntryID).Msg("Stored")
		default:
			failed++
			log.Error().
				Str("url", r.URL).
				Str("code", string(r.Code)).
				Str("stage", string(r.FailedStage)).
				Msg(r.Message)
		}
	}

	log.Info().
		Int("stored", succeeded).
		Int("unchanged", unchanged).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Ingestion completed")

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d URLs failed", failed, len(results))
	}
	return nil
}

// ingestTarget pairs a URL with its effective options.
type ingestTarget struct {
	url  string
	opts domain.ProcessOptions
}

// loadManifest reads a manifest from a local path or, when given an
// http(s) URL, fetches it with the stealth client so manifests hosted
// behind bot protection still load.
func loadManifest(ctx context.Context, path string) (*manifest.Config, error) {
	loader := manifest.NewLoader()

	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		fc, err := fetcher.NewClient(fetcher.ClientOptions{
			Timeout:     30 * time.Second,
			MaxRetries:  2,
			EnableCache: false,
		})
		if err != nil {
			return nil, err
		}
		return loader.LoadFromURL(ctx, path, &http.Client{Transport: fc.Transport()})
	}

	return loader.Load(path)
}

// ingestWithProgress runs the batch with a terminal progress bar. A
// single URL goes straight through the pipeline without the bar.
func ingestWithProgress(ctx context.Context, application *app.Application, targets []ingestTarget, concurrency int) []*domain.IngestResult {
	if len(targets) == 1 {
		return []*domain.IngestResult{application.IngestOne(ctx, targets[0].url, targets[0].opts)}
	}

	bar := utils.NewProgressBar(len(targets), utils.DescIngesting)

	if concurrency <= 0 {
		concurrency = 5
	}

	results := make([]*domain.IngestResult, len(targets))
	indices := make([]int, len(targets))
	for i := range indices {
		indices[i] = i
	}

	utils.ParallelForEach(ctx, indices, concurrency, func(ctx context.Context, i int) error {
		results[i] = application.IngestOne(ctx, targets[i].url, targets[i].opts)
		_ = bar.Add(1)
		return nil
	})
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	// Slots left nil by cancellation still get a result
	for i, r := range results {
		if r == nil {
			results[i] = &domain.IngestResult{
				URL:     targets[i].url,
				Code:    domain.CodeTimeout,
				Message: "batch cancelled",
			}
		}
	}
	return results
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored entries as markdown files",
	Long: `Export writes knowledge-base entries to a directory as markdown files
with YAML frontmatter. Entries can be filtered by tag; an optional index
file lists everything exported.`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	logLevel := "info"
	if verbose {
		logLevel = "debug"
	}
	log = utils.NewLogger(utils.LoggerOptions{
		Level:   logLevel,
		Format:  "pretty",
		Verbose: verbose,
	})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
		cfg.Storage.DatabasePath = dbPath
	}

	outputDir, _ := cmd.Flags().GetString("output")
	flat, _ := cmd.Flags().GetBool("flat")
	jsonMeta, _ := cmd.Flags().GetBool("json")
	withIndex, _ := cmd.Flags().GetBool("index")
	force, _ := cmd.Flags().GetBool("force")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	tag, _ := cmd.Flags().GetString("tag")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	db, err := store.OpenDB(cfg.Storage.DatabasePath, store.DBOptions{})
	if err != nil {
		return fmt.Errorf("failed to open knowledge base: %w", err)
	}
	defer db.Close()

	entries, err := store.NewKnowledgeRepo(db).List(ctx, tag)
	if err != nil {
		return fmt.Errorf("failed to list entries: %w", err)
	}
	if len(entries) == 0 {
		log.Info().Str("tag", tag).Msg("Nothing to export")
		return nil
	}

	writer := output.NewWriter(output.WriterOptions{
		BaseDir:      outputDir,
		Flat:         flat,
		JSONMetadata: jsonMeta,
		Force:        force,
		DryRun:       dryRun,
	})
	if !dryRun {
		if err := writer.EnsureBaseDir(); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	collector := output.NewIndexCollector(output.CollectorOptions{
		BaseDir: outputDir,
		Enabled: withIndex && !dryRun,
	})

	errs := utils.ParallelForEach(ctx, entries, cfg.Concurrency.Workers,
		func(ctx context.Context, entry *domain.KnowledgeEntry) error {
			if err := writer.Write(ctx, entry); err != nil {
				return fmt.Errorf("failed to export %s: %w", entry.URL, err)
			}
			collector.Add(entry, writer.GetPath(entry.URL))
			return nil
		})
	if err := utils.FirstError(errs); err != nil {
		return err
	}
	if err := collector.Flush(); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}

	log.Info().
		Int("entries", len(entries)).
		Str("dir", outputDir).
		Bool("dry_run", dryRun).
		Msg("Export completed")
	return nil
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check system dependencies",
	Long:  "Verifies that all system dependencies are properly installed and configured.",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Checking system dependencies...")
		allPassed := true

		cfg, err := config.Load()
		if err != nil {
			cfg = config.Default()
		}

		// Check 1: Python interpreter and extractor capabilities
		fmt.Printf("  Python interpreter (%s): ", cfg.Bridge.Interpreter)
		if info := checkBridge(cfg); info != nil && info.Available {
			fmt.Printf("OK (%s)\n", info.Version)
			for name, state := range info.Capabilities {
				fmt.Printf("    %s: %s\n", name, state)
			}
		} else {
			fmt.Println("NOT FOUND (bridge-backed extractors will be unavailable)")
		}

		// Check 2: Chrome/Chromium
		fmt.Print("  Chrome/Chromium: ")
		if chromePath := checkChrome(); chromePath != "" {
			fmt.Printf("OK (%s)\n", chromePath)
		} else {
			fmt.Println("NOT FOUND (JS rendering will be unavailable)")
		}

		// Check 3: Write permissions for storage dirs
		fmt.Print("  Write permissions: ")
		if checkWritePermissions() {
			fmt.Println("OK")
		} else {
			fmt.Println("FAILED")
			allPassed = false
		}

		// Check 4: Config file
		fmt.Print("  Config file: ")
		if _, err := config.Load(); err != nil {
			fmt.Printf("WARN (%v)\n", err)
		} else {
			fmt.Println("OK")
		}

		// Check 5: Storage directories
		fmt.Print("  Storage: ")
		if err := config.EnsureStorageDirs(cfg); err != nil {
			fmt.Printf("FAILED (%v)\n", err)
			allPassed = false
		} else {
			fmt.Printf("OK (%s)\n", cfg.Storage.DatabasePath)
		}

		fmt.Println()
		if allPassed {
			fmt.Println("All critical checks passed!")
		} else {
			fmt.Println("Some checks failed. Please resolve the issues above.")
		}
		return nil
	},
}

// checkBridge probes the Python interpreter and extractor modules
func checkBridge(cfg *config.Config) *bridge.EnvironmentInfo {
	b := bridge.New(bridge.Options{Interpreter: cfg.Bridge.Interpreter})

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	info, err := b.ProbeEnvironment(ctx, []string{"crawl4ai", "docling"})
	if err != nil {
		return nil
	}
	return info
}

// checkChrome checks if Chrome/Chromium is available
func checkChrome() string {
	// Common Chrome/Chromium paths
	paths := []string{
		// Linux
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/snap/bin/chromium",
		// macOS
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/Applications/Chromium.app/Contents/MacOS/Chromium",
		// Windows (via PATH)
		"chrome.exe",
		"chromium.exe",
	}

	for _, path := range paths {
		if _, err := osStat(path); err == nil {
			return path
		}
	}

	// Try to find via which/where command
	if path, err := execLookPath("google-chrome"); err == nil {
		return path
	}
	if path, err := execLookPath("chromium"); err == nil {
		return path
	}
	if path, err := execLookPath("chromium-browser"); err == nil {
		return path
	}

	return ""
}

// checkWritePermissions checks if we can write to the current directory
func checkWritePermissions() bool {
	tmpFile := ".kbingest_test_write"
	f, err := os.Create(tmpFile)
	if err != nil {
		return false
	}
	f.Close()
	os.Remove(tmpFile)
	return true
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Full())
	},
}
