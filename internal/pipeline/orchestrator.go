// Package pipeline drives URL ingestion through five stages: detect the
// content type, fetch the bytes, process them into structured text, gate
// on change detection, then store and index. Per-URL failures become
// discriminated results, never propagated errors.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/quantmind-br/kbingest-go/internal/dedup"
	"github.com/quantmind-br/kbingest-go/internal/detect"
	"github.com/quantmind-br/kbingest-go/internal/domain"
	"github.com/quantmind-br/kbingest-go/internal/fetch"
	"github.com/quantmind-br/kbingest-go/internal/process"
	"github.com/quantmind-br/kbingest-go/internal/renderer"
	"github.com/quantmind-br/kbingest-go/internal/utils"
)

// DefaultBatchWindow bounds concurrent URLs in ProcessURLs.
const DefaultBatchWindow = 5

// Orchestrator coordinates the ingestion stages for one or many URLs.
type Orchestrator struct {
	classifier *detect.Classifier
	selector   *fetch.Selector
	engine     *process.Engine
	changes    *dedup.ChangeDetector
	entries    domain.KnowledgeStore
	blobs      domain.BlobStore
	logger     *utils.Logger

	mu        sync.Mutex
	inflight  map[string]*domain.Operation
	succeeded uint64
	failed    uint64
}

// OrchestratorOptions contains the collaborators for an Orchestrator.
// Classifier, Selector, Engine, and Entries are required; Changes and
// Blobs are optional (no dedup gate, no raw payload retention).
type OrchestratorOptions struct {
	Classifier *detect.Classifier
	Selector   *fetch.Selector
	Engine     *process.Engine
	Changes    *dedup.ChangeDetector
	Entries    domain.KnowledgeStore
	Blobs      domain.BlobStore
	Logger     *utils.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(opts OrchestratorOptions) (*Orchestrator, error) {
	if opts.Classifier == nil || opts.Selector == nil || opts.Engine == nil {
		return nil, fmt.Errorf("classifier, selector, and engine are required")
	}
	if opts.Entries == nil {
		return nil, fmt.Errorf("knowledge store is required")
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewDefaultLogger()
	}

	return &Orchestrator{
		classifier: opts.Classifier,
		selector:   opts.Selector,
		engine:     opts.Engine,
		changes:    opts.Changes,
		entries:    opts.Entries,
		blobs:      opts.Blobs,
		logger:     opts.Logger.WithComponent("pipeline"),
		inflight:   make(map[string]*domain.Operation),
	}, nil
}

// ProcessURL ingests one URL. Expected runtime failures come back inside
// the result; the only panics are programmer errors.
func (o *Orchestrator) ProcessURL(ctx context.Context, url string, opts domain.ProcessOptions) *domain.IngestResult {
	start := time.Now()
	normalized, normErr := utils.NormalizeURL(url)
	if normErr == nil {
		url = normalized
	}

	// Unnormalizable URLs still get tracked and settled so the
	// cumulative counters agree with the returned results.
	op := &domain.Operation{
		ID:        newOperationID(url, start),
		URL:       url,
		StartedAt: start,
	}
	o.track(op)

	var result *domain.IngestResult
	if normErr != nil {
		result = o.failure(url, domain.StageDetecting,
			domain.NewPipelineError(domain.CodeUnsupportedType, domain.StageDetecting, normErr))
	} else {
		result = o.run(ctx, op, url, opts)
	}
	result.Duration = time.Since(start)
	o.settle(op, result)
	return result
}

func (o *Orchestrator) run(ctx context.Context, op *domain.Operation, url string, opts domain.ProcessOptions) *domain.IngestResult {
	log := o.logger.WithURL(url)
	var completed []domain.Stage

	// DETECTING
	o.advance(op, domain.StageDetecting)
	classification, err := o.classifier.Classify(ctx, url)
	if err != nil {
		return o.failure(url, domain.StageDetecting, err)
	}
	completed = append(completed, domain.StageDetecting)

	// FETCHING
	o.advance(op, domain.StageFetching)
	strategy, err := o.selector.SelectStrategy(url)
	if err != nil {
		return o.failure(url, domain.StageFetching, err)
	}
	content, err := strategy.Fetch(ctx, url)
	if err != nil {
		return o.failure(url, domain.StageFetching, err)
	}
	if content.Err != nil {
		return o.failure(url, domain.StageFetching, content.Err)
	}
	// An HTML payload that is only a JS shell gets one retry through
	// the browser strategy when a renderer is registered.
	if strategy.Name() == fetch.HTTPStrategyName && classification.Kind == domain.KindHTML &&
		renderer.NeedsJSRendering(string(content.Bytes)) {
		if browser, ok := o.selector.Strategy(fetch.BrowserStrategyName); ok {
			rendered, rerr := browser.Fetch(ctx, url)
			if rerr == nil && rendered.Err == nil {
				content = rendered
			} else {
				log.Warn().Msg("Browser retry failed, keeping plain fetch")
			}
		}
	}
	completed = append(completed, domain.StageFetching)

	// PROCESSING
	o.advance(op, domain.StageProcessing)
	processed, err := o.engine.Process(ctx, content)
	if err != nil {
		return o.failure(url, domain.StageProcessing, err)
	}
	completed = append(completed, domain.StageProcessing)

	// Dedup gate: unchanged content short-circuits storing and indexing.
	checksum := contentChecksum(processed.Text)
	if o.changes != nil && !opts.Force {
		change, err := o.changes.HasChanged(ctx, url, checksum, nil)
		if err != nil {
			// Bookkeeping unavailability must not block ingestion.
			log.Warn().Err(err).Msg("Change detection unavailable")
		} else if !change.HasChanged {
			if err := o.changes.RecordProcessed(ctx, url, checksum, nil); err != nil {
				log.Warn().Err(err).Msg("Failed to refresh bookkeeping")
			}
			return &domain.IngestResult{
				URL:             url,
				Success:         true,
				Unchanged:       true,
				Classification:  classification,
				CompletedStages: completed,
			}
		}
	}

	// STORING
	o.advance(op, domain.StageStoring)
	entry := &domain.KnowledgeEntry{
		ID:          newEntryID(),
		URL:         url,
		Title:       processed.Title,
		ContentKind: classification.Kind,
		Text:        processed.Text,
		Metadata:    processed.Metadata,
		Tags:        opts.Tags,
		Checksum:    checksum,
		CreatedAt:   time.Now(),
	}
	if err := o.entries.Store(ctx, entry); err != nil {
		return o.failure(url, domain.StageStoring,
			domain.NewPipelineError(domain.CodeStorageFailed, domain.StageStoring, err))
	}

	var blobPath string
	if o.blobs != nil && !opts.SkipBlob {
		blobPath, err = o.blobs.Store(ctx, content.Bytes, utils.URLToFilename(url), map[string]string{
			"source_url": url,
			"mime_type":  content.MimeType,
			"entry_id":   entry.ID,
		})
		if err != nil {
			return o.failure(url, domain.StageStoring,
				domain.NewPipelineError(domain.CodeStorageFailed, domain.StageStoring, err))
		}
	}
	completed = append(completed, domain.StageStoring)

	// INDEXING
	o.advance(op, domain.StageIndexing)
	if o.changes != nil {
		if err := o.changes.RecordProcessed(ctx, url, checksum, map[string]string{"entry_id": entry.ID}); err != nil {
			return o.failure(url, domain.StageIndexing,
				domain.NewPipelineError(domain.CodeStorageFailed, domain.StageIndexing, err))
		}
	}
	completed = append(completed, domain.StageIndexing)

	log.Info().
		Str("entry_id", entry.ID).
		Str("kind", string(classification.Kind)).
		Msg("Ingested URL")

	return &domain.IngestResult{
		URL:             url,
		Success:         true,
		EntryID:         entry.ID,
		Classification:  classification,
		BlobPath:        blobPath,
		CompletedStages: completed,
	}
}

// ProcessURLs ingests a URL batch inside a bounded concurrency window.
// All-settle: exactly one result per input URL, in input order; a panic
// in one worker becomes that URL's failure result.
func (o *Orchestrator) ProcessURLs(ctx context.Context, urls []string, opts domain.ProcessOptions) []*domain.IngestResult {
	window := opts.Concurrency
	if window <= 0 {
		window = DefaultBatchWindow
	}

	results := make([]*domain.IngestResult, len(urls))
	indices := make([]int, len(urls))
	for i := range indices {
		indices[i] = i
	}

	utils.ParallelForEach(ctx, indices, window, func(ctx context.Context, i int) error {
		defer func() {
			if r := recover(); r != nil {
				o.logger.Error().Str("url", urls[i]).Interface("panic", r).Msg("Worker panic")
				results[i] = &domain.IngestResult{
					URL:         urls[i],
					Code:        domain.CodeUnknown,
					Message:     fmt.Sprintf("internal error: %v", r),
					FailedStage: domain.StageProcessing,
				}
			}
		}()
		results[i] = o.ProcessURL(ctx, urls[i], opts)
		return nil
	})

	// Cancellation can leave slots unfilled; settle them.
	for i, r := range results {
		if r == nil {
			results[i] = &domain.IngestResult{
				URL:     urls[i],
				Code:    domain.CodeTimeout,
				Message: "batch cancelled",
			}
		}
	}

	return results
}

// Status returns a snapshot of in-flight operations and cumulative
// counters.
func (o *Orchestrator) Status() *domain.PipelineStatus {
	o.mu.Lock()
	defer o.mu.Unlock()

	status := &domain.PipelineStatus{
		InFlight:  make([]domain.Operation, 0, len(o.inflight)),
		Succeeded: o.succeeded,
		Failed:    o.failed,
	}
	for _, op := range o.inflight {
		status.InFlight = append(status.InFlight, *op)
	}
	return status
}

// CancelAllOperations clears the in-flight bookkeeping. Workers already
// inside a stage finish their current call; cancellation of their work
// is best-effort through the context passed to ProcessURL.
func (o *Orchestrator) CancelAllOperations() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := len(o.inflight)
	o.inflight = make(map[string]*domain.Operation)
	return n
}

func (o *Orchestrator) track(op *domain.Operation) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inflight[op.ID] = op
}

func (o *Orchestrator) advance(op *domain.Operation, stage domain.Stage) {
	o.mu.Lock()
	defer o.mu.Unlock()
	op.Stage = stage
	op.Progress = stageProgress[string(stage)]
}

func (o *Orchestrator) settle(op *domain.Operation, result *domain.IngestResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inflight, op.ID)
	if result.Success {
		o.succeeded++
	} else {
		o.failed++
	}
}

func (o *Orchestrator) failure(url string, stage domain.Stage, err error) *domain.IngestResult {
	code := domain.ClassifyError(err)
	o.logger.Warn().
		Str("url", url).
		Str("stage", string(stage)).
		Str("code", string(code)).
		Err(err).
		Msg("Ingestion failed")

	return &domain.IngestResult{
		URL:         url,
		Code:        code,
		Message:     err.Error(),
		FailedStage: stage,
	}
}

func contentChecksum(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
