package domain

import (
	"net/http"
	"time"
)

// ContentKind is the coarse classification of ingested content.
type ContentKind string

const (
	KindHTML     ContentKind = "html"
	KindPDF      ContentKind = "pdf"
	KindMarkdown ContentKind = "markdown"
	KindDocx     ContentKind = "docx"
	KindImage    ContentKind = "image"
	KindText     ContentKind = "text"
	KindUnknown  ContentKind = "unknown"
)

// Classification is the result of one type-detection attempt for a URL.
// It is produced once per attempt and never mutated afterwards.
type Classification struct {
	Kind       ContentKind       `json:"kind"`
	MimeType   string            `json:"mime_type"`
	Confidence float64           `json:"confidence"` // always clamped to [0,1]
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ClampConfidence forces Confidence into [0,1].
func (c *Classification) ClampConfidence() {
	if c.Confidence < 0 {
		c.Confidence = 0
	}
	if c.Confidence > 1 {
		c.Confidence = 1
	}
}

// FetchedContent is the raw payload produced by a fetch strategy. It is
// owned transiently by the fetch stage and consumed by processing.
type FetchedContent struct {
	URL      string
	Bytes    []byte
	MimeType string
	Size     int64
	Headers  http.Header
	// Strategy names the fetch strategy that produced the content.
	Strategy string
	// Err is set when the fetch failed and this value is a synthesized
	// error result (batch all-settle semantics).
	Err error
}

// ProcessedContent is the structured output of a content processor.
type ProcessedContent struct {
	Text      string            `json:"text"`
	Title     string            `json:"title,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Images    []string          `json:"images,omitempty"`
	Links     []string          `json:"links,omitempty"`
	Tables    []Table           `json:"tables,omitempty"`
	Structure *DocumentOutline  `json:"structure,omitempty"`
}

// Table is a table extracted from a document.
type Table struct {
	Caption string     `json:"caption,omitempty"`
	Rows    [][]string `json:"rows"`
}

// DocumentOutline captures heading structure when a processor can
// recover it.
type DocumentOutline struct {
	Headings map[string][]string `json:"headings,omitempty"` // h1, h2, ...
	Sections int                 `json:"sections,omitempty"`
}

// Stage identifies a pipeline stage.
type Stage string

const (
	StageDetecting  Stage = "detecting"
	StageFetching   Stage = "fetching"
	StageProcessing Stage = "processing"
	StageStoring    Stage = "storing"
	StageIndexing   Stage = "indexing"
)

// Operation is the orchestrator's ephemeral per-URL in-flight record.
// Its ID is derived from timestamp+random+URL-hash rather than the URL
// itself, so the same URL may have concurrent operations.
type Operation struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Stage     Stage     `json:"stage"`
	StartedAt time.Time `json:"started_at"`
	Progress  int       `json:"progress"` // 0-100, observability only
}

// KnowledgeEntry is the persisted form of ingested content.
type KnowledgeEntry struct {
	ID          string            `json:"id"`
	URL         string            `json:"url"`
	Title       string            `json:"title"`
	ContentKind ContentKind       `json:"content_kind"`
	Text        string            `json:"text"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Checksum    string            `json:"checksum"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// URLInfo is the dedup bookkeeping record for a URL.
type URLInfo struct {
	URL         string            `json:"url"`
	ContentHash string            `json:"content_hash"`
	LastChecked time.Time         `json:"last_checked"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// ChangeResult reports whether content behind a URL changed since the
// last recorded processing.
type ChangeResult struct {
	HasChanged   bool              `json:"has_changed"`
	PreviousHash string            `json:"previous_hash,omitempty"`
	CurrentHash  string            `json:"current_hash"`
	LastChecked  time.Time         `json:"last_checked,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// PatternKind selects how a SelectionRule pattern is interpreted.
type PatternKind string

const (
	PatternLiteral PatternKind = "literal"
	PatternGlob    PatternKind = "glob"
	PatternRegex   PatternKind = "regex"
)

// SelectionRule routes URLs matching Pattern to the fetch strategy named
// Target. Rules are evaluated strictly in descending priority order; the
// first matching rule whose target reports capable wins.
type SelectionRule struct {
	Pattern  string      `json:"pattern"`
	Kind     PatternKind `json:"kind"`
	Target   string      `json:"target"`
	Priority int         `json:"priority"`
}

// BridgeResult is the outcome of one child-interpreter invocation. It is
// never retained beyond the call.
type BridgeResult struct {
	Success  bool           `json:"success"`
	Data     map[string]any `json:"data,omitempty"`
	Error    string         `json:"error,omitempty"`
	Stderr   string         `json:"stderr,omitempty"`
	ExitCode int            `json:"exit_code"`
	TimedOut bool           `json:"timed_out"`
	Duration time.Duration  `json:"duration"`
}

// IngestResult is the discriminated per-URL outcome of the pipeline.
// Batch APIs return exactly one IngestResult per input URL and never
// propagate expected runtime failures as errors.
type IngestResult struct {
	URL             string          `json:"url"`
	Success         bool            `json:"success"`
	EntryID         string          `json:"entry_id,omitempty"`
	Classification  *Classification `json:"classification,omitempty"`
	BlobPath        string          `json:"blob_path,omitempty"`
	CompletedStages []Stage         `json:"completed_stages,omitempty"`
	Unchanged       bool            `json:"unchanged,omitempty"`
	Duration        time.Duration   `json:"duration"`

	// Failure fields
	Code        ErrorCode `json:"code,omitempty"`
	Message     string    `json:"message,omitempty"`
	FailedStage Stage     `json:"failed_stage,omitempty"`
}

// PipelineStatus is a point-in-time snapshot of orchestrator state.
type PipelineStatus struct {
	InFlight  []Operation `json:"in_flight"`
	Succeeded uint64      `json:"succeeded"`
	Failed    uint64      `json:"failed"`
}
