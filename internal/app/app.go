// Package app wires configuration into a running ingestion pipeline.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/quantmind-br/kbingest-go/internal/bridge"
	"github.com/quantmind-br/kbingest-go/internal/cache"
	"github.com/quantmind-br/kbingest-go/internal/config"
	"github.com/quantmind-br/kbingest-go/internal/dedup"
	"github.com/quantmind-br/kbingest-go/internal/detect"
	"github.com/quantmind-br/kbingest-go/internal/domain"
	"github.com/quantmind-br/kbingest-go/internal/fetch"
	"github.com/quantmind-br/kbingest-go/internal/fetcher"
	"github.com/quantmind-br/kbingest-go/internal/pipeline"
	"github.com/quantmind-br/kbingest-go/internal/process"
	"github.com/quantmind-br/kbingest-go/internal/renderer"
	"github.com/quantmind-br/kbingest-go/internal/store"
	"github.com/quantmind-br/kbingest-go/internal/utils"
)

// Wrapper script filenames expected under bridge.script_dir.
const (
	CrawlWrapperScript   = "crawl4ai_wrapper.py"
	DoclingWrapperScript = "docling_wrapper.py"
)

// Application holds the wired pipeline and every resource it owns.
// Close releases them in reverse construction order.
type Application struct {
	config   *config.Config
	logger   *utils.Logger
	cache    *cache.BadgerCache
	fetcher  *fetcher.Client
	renderer *renderer.Renderer
	bridge   *bridge.Bridge
	db       *sql.DB
	pipeline *pipeline.Orchestrator
}

// Options contains options for creating an Application.
type Options struct {
	Config *config.Config
	// Verbose forces debug-level logging regardless of config.
	Verbose bool
	// RenderJS enables the headless-browser fetch strategy even when
	// the config leaves it off.
	RenderJS bool
	// SelectionRules route URLs to named fetch strategies before the
	// capability fallback runs.
	SelectionRules []domain.SelectionRule
}

// New builds an Application from configuration. Every collaborator the
// pipeline needs is constructed here; a failure at any step tears down
// what was already built.
func New(opts Options) (*Application, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logLevel := cfg.Logging.Level
	if logLevel == "" {
		logLevel = config.DefaultLogLevel
	}
	if opts.Verbose {
		logLevel = "debug"
	}
	logFormat := cfg.Logging.Format
	if logFormat == "" {
		logFormat = config.DefaultLogFormat
	}

	logger := utils.NewLogger(utils.LoggerOptions{
		Level:   logLevel,
		Format:  logFormat,
		Verbose: opts.Verbose,
	})

	if err := config.EnsureStorageDirs(cfg); err != nil {
		return nil, fmt.Errorf("failed to create storage directories: %w", err)
	}

	a := &Application{config: cfg, logger: logger}

	// Fetch cache
	var fetchCache domain.Cache
	if cfg.Cache.Enabled {
		cacheDir := cfg.Cache.Directory
		if cacheDir == "" {
			cacheDir = config.CacheDir()
		}
		bc, err := cache.NewBadgerCache(cache.Options{Directory: utils.ExpandPath(cacheDir)})
		if err != nil {
			return nil, fmt.Errorf("failed to open cache: %w", err)
		}
		a.cache = bc
		fetchCache = bc
	}

	// Stealth HTTP client
	client, err := fetcher.NewClient(fetcher.ClientOptions{
		Timeout:     cfg.Concurrency.Timeout,
		EnableCache: cfg.Cache.Enabled,
		CacheTTL:    cfg.Cache.TTL,
		Cache:       fetchCache,
		UserAgent:   cfg.Stealth.UserAgent,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}
	a.fetcher = client

	// Headless browser, only when asked for
	if opts.RenderJS || cfg.Rendering.ForceJS {
		r, err := renderer.NewRenderer(renderer.RendererOptions{
			Timeout: cfg.Rendering.JSTimeout,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to start renderer: %w", err)
		}
		a.renderer = r
	}

	a.bridge = bridge.New(bridge.Options{
		Interpreter: cfg.Bridge.Interpreter,
		Logger:      logger,
	})

	// Fetch strategies
	reg := fetch.NewRegistry()
	if err := reg.Register(fetch.NewHTTPStrategy(client)); err != nil {
		a.Close()
		return nil, err
	}
	if a.renderer != nil {
		browser := fetch.NewBrowserStrategy(a.renderer, domain.RenderOptions{
			Timeout:     cfg.Rendering.JSTimeout,
			ScrollToEnd: cfg.Rendering.ScrollToEnd,
		})
		if fetchCache != nil {
			browser.SetCache(fetchCache, cfg.Cache.TTL)
		}
		if err := reg.Register(browser); err != nil {
			a.Close()
			return nil, err
		}
	}
	if cfg.Bridge.ScriptDir != "" {
		crawl := fetch.NewCrawlStrategy(a.bridge, fetch.CrawlOptions{
			Script:  filepath.Join(cfg.Bridge.ScriptDir, CrawlWrapperScript),
			Timeout: cfg.Bridge.Timeout,
		})
		if err := reg.Register(crawl); err != nil {
			a.Close()
			return nil, err
		}
	}

	selector := fetch.NewSelector(reg, fetch.SelectorOptions{Logger: logger})
	for _, rule := range opts.SelectionRules {
		if err := selector.AddRule(rule); err != nil {
			a.Close()
			return nil, fmt.Errorf("invalid selection rule: %w", err)
		}
	}

	classifier := detect.NewClassifier(detect.ClassifierOptions{
		Fetcher: client,
		Logger:  logger,
	})

	// Content processors
	var docling *process.DoclingProcessor
	if cfg.Bridge.ScriptDir != "" {
		docling = process.NewDoclingProcessor(a.bridge, process.DoclingOptions{
			Script:  filepath.Join(cfg.Bridge.ScriptDir, DoclingWrapperScript),
			Timeout: cfg.Bridge.Timeout,
		})
	}
	engine := process.NewEngine(process.EngineOptions{
		Docling: docling,
		Logger:  logger,
	})

	// Persistence
	db, err := store.OpenDB(cfg.Storage.DatabasePath, store.DBOptions{})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.db = db

	blobs, err := store.NewBlobStore(cfg.Storage.BlobDirectory)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open blob store: %w", err)
	}

	urlRepo := store.NewURLInfoRepo(db)
	changes := dedup.NewChangeDetector(urlRepo, logger)

	orch, err := pipeline.NewOrchestrator(pipeline.OrchestratorOptions{
		Classifier: classifier,
		Selector:   selector,
		Engine:     engine,
		Changes:    changes,
		Entries:    store.NewKnowledgeRepo(db),
		Blobs:      blobs,
		Logger:     logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.pipeline = orch

	return a, nil
}

// Ingest runs the pipeline over the given URLs and returns one result
// per URL, order preserved.
func (a *Application) Ingest(ctx context.Context, urls []string, opts domain.ProcessOptions) []*domain.IngestResult {
	if opts.Concurrency == 0 {
		opts.Concurrency = a.config.Concurrency.Workers
	}
	return a.pipeline.ProcessURLs(ctx, urls, opts)
}

// IngestOne runs the pipeline over a single URL.
func (a *Application) IngestOne(ctx context.Context, url string, opts domain.ProcessOptions) *domain.IngestResult {
	return a.pipeline.ProcessURL(ctx, url, opts)
}

// Status returns a snapshot of pipeline state.
func (a *Application) Status() *domain.PipelineStatus {
	return a.pipeline.Status()
}

// Bridge exposes the interpreter bridge for environment checks.
func (a *Application) Bridge() *bridge.Bridge {
	return a.bridge
}

// Logger returns the application logger.
func (a *Application) Logger() *utils.Logger {
	return a.logger
}

// Close releases all resources. Safe on a partially constructed
// Application.
func (a *Application) Close() error {
	var firstErr error
	if a.renderer != nil {
		if err := a.renderer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.fetcher != nil {
		if err := a.fetcher.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
