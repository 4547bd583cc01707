package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/kbingest-go/internal/domain"
)

func TestDoclingCanProcess(t *testing.T) {
	p := &DoclingProcessor{script: "/opt/wrappers/extractor.py"}

	tests := []struct {
		mime string
		want bool
	}{
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", true},
		{"application/pdf", true},
		{"image/png", true},
		{"text/html", false},
		{"", false},
	}
	for _, tt := range tests {
		got := p.CanProcess(&domain.FetchedContent{MimeType: tt.mime})
		assert.Equal(t, tt.want, got, tt.mime)
	}

	// Without a configured script the processor abstains entirely.
	unconfigured := &DoclingProcessor{}
	assert.False(t, unconfigured.CanProcess(&domain.FetchedContent{MimeType: "application/pdf"}))
}

func TestDoclingBuildContent(t *testing.T) {
	p := &DoclingProcessor{}

	data := map[string]any{
		"success": true,
		"document": map[string]any{
			"markdown": "# Report\n\nBody.",
			"text":     "Report Body.",
		},
		"metadata": map[string]any{
			"title":      "Quarterly Report",
			"author":     "J. Doe",
			"page_count": float64(12),
		},
		"tables": []any{
			map[string]any{
				"caption": "Revenue",
				"rows": []any{
					[]any{"Q1", float64(100)},
					[]any{"Q2", float64(120)},
				},
			},
		},
	}

	got := p.buildContent("https://example.com/report.docx", data)

	assert.Equal(t, "# Report\n\nBody.", got.Text)
	assert.Equal(t, "Quarterly Report", got.Title)
	assert.Equal(t, "J. Doe", got.Metadata["author"])
	assert.Equal(t, "12", got.Metadata["page_count"])
	require.Len(t, got.Tables, 1)
	assert.Equal(t, "Revenue", got.Tables[0].Caption)
	assert.Equal(t, [][]string{{"Q1", "100"}, {"Q2", "120"}}, got.Tables[0].Rows)
}

func TestDoclingBuildContentFallsBackToText(t *testing.T) {
	p := &DoclingProcessor{}

	data := map[string]any{
		"document": map[string]any{"text": "plain extraction"},
	}

	got := p.buildContent("https://example.com/doc", data)
	assert.Equal(t, "plain extraction", got.Text)
}

func TestParseTablesSkipsMalformed(t *testing.T) {
	raw := []any{
		"not a table",
		map[string]any{"rows": []any{"not a row"}},
		map[string]any{"caption": "ok", "rows": []any{[]any{"a"}}},
	}

	tables := parseTables(raw)
	require.Len(t, tables, 1)
	assert.Equal(t, "ok", tables[0].Caption)
}
