package process

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/quantmind-br/kbingest-go/internal/bridge"
	"github.com/quantmind-br/kbingest-go/internal/domain"
)

// doclingContract is the response shape the extractor wrapper must
// honor. The structured document object is the payload; tables and
// metadata degrade gracefully.
var doclingContract = bridge.Contract{
	Fields: []bridge.FieldSpec{
		{Name: "success", Type: bridge.TypeBool, Required: true},
		{Name: "document", Type: bridge.TypeObject, Required: true},
		{Name: "metadata", Type: bridge.TypeObject},
		{Name: "tables", Type: bridge.TypeArray, Elem: bridge.TypeObject},
		{Name: "figures", Type: bridge.TypeArray, Elem: bridge.TypeObject},
	},
}

// mimeDocTypes maps recognized MIME fragments to the extractor's
// document-type argument.
var mimeDocTypes = map[string]string{
	"application/pdf": "pdf",
	"officedocument.wordprocessingml": "docx",
	"application/msword":              "docx",
	"officedocument.presentationml":   "pptx",
	"officedocument.spreadsheetml":    "xlsx",
	"image/png":                       "image",
	"image/jpeg":                      "image",
	"image/tiff":                      "image",
}

// DoclingProcessor delegates extraction of office documents and scanned
// material to an external Python ML extractor. The document travels
// base64-encoded inside the JSON argv; the wrapper answers with one
// JSON document carrying markdown, metadata, and tables.
type DoclingProcessor struct {
	bridge  *bridge.Bridge
	script  string
	timeout time.Duration
	ocr     bool
}

// DoclingOptions configures the external-extractor processor.
type DoclingOptions struct {
	// Script is the path to the extractor wrapper script.
	Script string
	// Timeout bounds one extraction. Zero means the bridge default.
	Timeout time.Duration
	// OCR enables optical character recognition for scanned documents.
	OCR bool
}

// NewDoclingProcessor creates the external-extractor processor.
func NewDoclingProcessor(b *bridge.Bridge, opts DoclingOptions) *DoclingProcessor {
	return &DoclingProcessor{
		bridge:  b,
		script:  opts.Script,
		timeout: opts.Timeout,
		ocr:     opts.OCR,
	}
}

func (p *DoclingProcessor) Name() string { return "docling" }

func (p *DoclingProcessor) Priority() int { return 40 }

func (p *DoclingProcessor) CanProcess(content *domain.FetchedContent) bool {
	return p.script != "" && p.docType(content) != ""
}

func (p *DoclingProcessor) docType(content *domain.FetchedContent) string {
	mime := strings.ToLower(content.MimeType)
	for fragment, docType := range mimeDocTypes {
		if strings.Contains(mime, fragment) {
			return docType
		}
	}
	return ""
}

func (p *DoclingProcessor) Process(ctx context.Context, content *domain.FetchedContent) (*domain.ProcessedContent, error) {
	config := map[string]any{
		"document_data": base64.StdEncoding.EncodeToString(content.Bytes),
		"document_type": p.docType(content),
		"options": map[string]any{
			"do_ocr":        p.ocr,
			"export_tables": true,
		},
	}

	result := p.bridge.Invoke(ctx, p.bridge.Interpreter(), p.script, []any{config}, p.timeout)
	if result.TimedOut {
		return nil, fmt.Errorf("extractor: %w", domain.ErrTimeout)
	}
	if !result.Success {
		return nil, fmt.Errorf("extractor: %s", result.Error)
	}

	report := bridge.ValidateResponse(result.Data, doclingContract)
	if !report.Valid() {
		return nil, fmt.Errorf("extractor response contract: %s", strings.Join(report.Errors, "; "))
	}

	return p.buildContent(content.URL, result.Data), nil
}

func (p *DoclingProcessor) buildContent(url string, data map[string]any) *domain.ProcessedContent {
	doc, _ := data["document"].(map[string]any)
	text, _ := doc["markdown"].(string)
	if text == "" {
		text, _ = doc["text"].(string)
	}

	processed := &domain.ProcessedContent{
		Text:     text,
		Metadata: map[string]string{"source_url": url},
	}

	if meta, ok := data["metadata"].(map[string]any); ok {
		if title, ok := meta["title"].(string); ok {
			processed.Title = title
		}
		for _, key := range []string{"author", "language", "document_type"} {
			if v, ok := meta[key].(string); ok && v != "" {
				processed.Metadata[key] = v
			}
		}
		if pages, ok := meta["page_count"].(float64); ok {
			processed.Metadata["page_count"] = fmt.Sprintf("%d", int(pages))
		}
	}

	if tables, ok := data["tables"].([]any); ok {
		processed.Tables = parseTables(tables)
	}

	return processed
}

func parseTables(raw []any) []domain.Table {
	var tables []domain.Table
	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		table := domain.Table{}
		if caption, ok := obj["caption"].(string); ok {
			table.Caption = caption
		}
		if rows, ok := obj["rows"].([]any); ok {
			for _, rawRow := range rows {
				cells, ok := rawRow.([]any)
				if !ok {
					continue
				}
				row := make([]string, 0, len(cells))
				for _, cell := range cells {
					row = append(row, fmt.Sprint(cell))
				}
				table.Rows = append(table.Rows, row)
			}
		}
		if len(table.Rows) > 0 || table.Caption != "" {
			tables = append(tables, table)
		}
	}
	return tables
}
