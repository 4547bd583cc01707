package output

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/quantmind-br/kbingest-go/internal/converter"
	"github.com/quantmind-br/kbingest-go/internal/domain"
	"github.com/quantmind-br/kbingest-go/internal/utils"
)

// Writer exports knowledge entries as markdown files
type Writer struct {
	baseDir      string
	flat         bool
	jsonMetadata bool
	force        bool
	dryRun       bool
}

// WriterOptions contains options for the writer
type WriterOptions struct {
	BaseDir      string
	Flat         bool
	JSONMetadata bool
	Force        bool
	DryRun       bool
}

// NewWriter creates a new export writer
func NewWriter(opts WriterOptions) *Writer {
	if opts.BaseDir == "" {
		opts.BaseDir = "./export"
	}

	return &Writer{
		baseDir:      opts.BaseDir,
		flat:         opts.Flat,
		jsonMetadata: opts.JSONMetadata,
		force:        opts.Force,
		dryRun:       opts.DryRun,
	}
}

// Write saves an entry to the output directory as markdown with frontmatter
func (w *Writer) Write(ctx context.Context, entry *domain.KnowledgeEntry) error {
	path := utils.GeneratePath(w.baseDir, entry.URL, w.flat)

	// Check if file exists
	if !w.force {
		if _, err := os.Stat(path); err == nil {
			// File exists, skip
			return nil
		}
	}

	// Dry run - just return
	if w.dryRun {
		return nil
	}

	if err := utils.EnsureDir(path); err != nil {
		return err
	}

	content, err := converter.AddFrontmatter(entry.Text, entry)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return err
	}

	// Write JSON metadata if enabled
	if w.jsonMetadata {
		jsonPath := utils.JSONPath(path)
		if err := w.writeJSON(jsonPath, entry); err != nil {
			return err
		}
	}

	return nil
}

// entryMetadata is the JSON sidecar shape: everything except the body text.
type entryMetadata struct {
	ID          string            `json:"id"`
	URL         string            `json:"url"`
	Title       string            `json:"title"`
	ContentKind string            `json:"content_kind"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Checksum    string            `json:"checksum"`
	WordCount   int               `json:"word_count"`
	CreatedAt   string            `json:"created_at"`
	UpdatedAt   string            `json:"updated_at"`
}

func (w *Writer) writeJSON(path string, entry *domain.KnowledgeEntry) error {
	metadata := entryMetadata{
		ID:          entry.ID,
		URL:         entry.URL,
		Title:       entry.Title,
		ContentKind: string(entry.ContentKind),
		Metadata:    entry.Metadata,
		Tags:        entry.Tags,
		Checksum:    entry.Checksum,
		WordCount:   converter.CountWords(entry.Text),
		CreatedAt:   entry.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:   entry.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}

	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// WriteMultiple writes multiple entries
func (w *Writer) WriteMultiple(ctx context.Context, entries []*domain.KnowledgeEntry) error {
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := w.Write(ctx, entry); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetPath returns the output path for a URL
func (w *Writer) GetPath(url string) string {
	return utils.GeneratePath(w.baseDir, url, w.flat)
}

// Exists checks if an entry has already been exported
func (w *Writer) Exists(url string) bool {
	path := w.GetPath(url)
	_, err := os.Stat(path)
	return err == nil
}

// EnsureBaseDir creates the base directory if it doesn't exist
func (w *Writer) EnsureBaseDir() error {
	return os.MkdirAll(w.baseDir, 0755)
}

// Clean removes the output directory
func (w *Writer) Clean() error {
	return os.RemoveAll(w.baseDir)
}

// Stats returns statistics about the output directory
func (w *Writer) Stats() (int, int64, error) {
	var count int
	var size int64

	err := filepath.Walk(w.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".md" {
			count++
			size += info.Size()
		}
		return nil
	})

	return count, size, err
}
