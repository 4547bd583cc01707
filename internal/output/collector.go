package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/quantmind-br/kbingest-go/internal/converter"
	"github.com/quantmind-br/kbingest-go/internal/domain"
)

// IndexEntry is one exported entry in the index file.
type IndexEntry struct {
	ID          string   `json:"id"`
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	ContentKind string   `json:"content_kind"`
	Tags        []string `json:"tags,omitempty"`
	Path        string   `json:"path"`
	WordCount   int      `json:"word_count"`
}

// ExportIndex is the top-level structure of the index file written
// alongside an export run.
type ExportIndex struct {
	GeneratedAt  time.Time    `json:"generated_at"`
	TotalEntries int          `json:"total_entries"`
	Entries      []IndexEntry `json:"entries"`
}

type IndexCollector struct {
	mu       sync.RWMutex
	entries  []IndexEntry
	baseDir  string
	filename string
	enabled  bool
}

type CollectorOptions struct {
	BaseDir  string
	Filename string
	Enabled  bool
}

func NewIndexCollector(opts CollectorOptions) *IndexCollector {
	filename := opts.Filename
	if filename == "" {
		filename = "index.json"
	}
	return &IndexCollector{
		entries:  make([]IndexEntry, 0),
		baseDir:  opts.BaseDir,
		filename: filename,
		enabled:  opts.Enabled,
	}
}

func (c *IndexCollector) Add(entry *domain.KnowledgeEntry, filePath string) {
	if !c.enabled || entry == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	relPath, err := filepath.Rel(c.baseDir, filePath)
	if err != nil {
		relPath = filePath
	}
	relPath = filepath.ToSlash(relPath)

	c.entries = append(c.entries, IndexEntry{
		ID:          entry.ID,
		URL:         entry.URL,
		Title:       entry.Title,
		ContentKind: string(entry.ContentKind),
		Tags:        entry.Tags,
		Path:        relPath,
		WordCount:   converter.CountWords(entry.Text),
	})
}

func (c *IndexCollector) Flush() error {
	if !c.enabled || len(c.entries) == 0 {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	index := c.buildIndex()

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return err
	}

	outputPath := filepath.Join(c.baseDir, c.filename)
	return os.WriteFile(outputPath, data, 0644)
}

func (c *IndexCollector) buildIndex() *ExportIndex {
	entries := make([]IndexEntry, len(c.entries))
	copy(entries, c.entries)

	return &ExportIndex{
		GeneratedAt:  time.Now(),
		TotalEntries: len(c.entries),
		Entries:      entries,
	}
}

func (c *IndexCollector) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *IndexCollector) GetIndex() *ExportIndex {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.buildIndex()
}

func (c *IndexCollector) IsEnabled() bool {
	return c.enabled
}
