package process

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/kbingest-go/internal/domain"
)

func htmlContent(url, html string) *domain.FetchedContent {
	return &domain.FetchedContent{
		URL:      url,
		Bytes:    []byte(html),
		MimeType: "text/html; charset=utf-8",
	}
}

func TestEngineProcessHTML(t *testing.T) {
	engine := NewEngine(EngineOptions{})

	content := htmlContent("https://example.com/doc",
		`<html><head><title>Doc Title</title></head><body><h1>Heading</h1><p>Body text here.</p></body></html>`)

	got, err := engine.Process(context.Background(), content)
	require.NoError(t, err)
	assert.Contains(t, got.Text, "Heading")
	assert.Contains(t, got.Text, "Body text here")
	assert.NotEmpty(t, got.Metadata["content_hash"])
}

func TestEngineProcessMarkdown(t *testing.T) {
	engine := NewEngine(EngineOptions{})

	content := &domain.FetchedContent{
		URL:      "https://example.com/readme.md",
		Bytes:    []byte("# Title\n\nSome markdown body."),
		MimeType: "text/markdown",
	}

	got, err := engine.Process(context.Background(), content)
	require.NoError(t, err)
	assert.Equal(t, "Title", got.Title)
	assert.Contains(t, got.Text, "Some markdown body.")
}

func TestEngineTextFallback(t *testing.T) {
	engine := NewEngine(EngineOptions{})

	// Unrecognized MIME type with valid UTF-8 lands on the plain-text
	// fallback instead of failing.
	content := &domain.FetchedContent{
		URL:      "https://example.com/notes",
		Bytes:    []byte("Plain notes without any markup."),
		MimeType: "application/x-unknown",
	}

	got, err := engine.Process(context.Background(), content)
	require.NoError(t, err)
	assert.Contains(t, got.Text, "Plain notes")
}

func TestEngineUnresolvable(t *testing.T) {
	engine := NewEngine(EngineOptions{})

	// Invalid UTF-8 binary payload that is not a PDF: nothing accepts it.
	content := &domain.FetchedContent{
		URL:      "https://example.com/blob",
		Bytes:    []byte{0xff, 0xfe, 0x00, 0x81},
		MimeType: "application/octet-stream",
	}

	_, err := engine.Process(context.Background(), content)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnresolved)
}

func TestEngineHTMLBeatsText(t *testing.T) {
	engine := NewEngine(EngineOptions{})

	// HTML payload is also valid UTF-8, so both processors accept it;
	// the lower-priority HTML processor must win.
	content := htmlContent("https://example.com/page",
		`<html><body><p>markup <b>content</b></p></body></html>`)

	got, err := engine.Process(context.Background(), content)
	require.NoError(t, err)
	assert.NotContains(t, got.Text, "<b>")
}

func TestEngineRemoveProcessor(t *testing.T) {
	engine := NewEngine(EngineOptions{})
	assert.True(t, engine.RemoveProcessor("text"))
	assert.False(t, engine.RemoveProcessor("text"))
}

func TestMarkdownCanProcess(t *testing.T) {
	p := NewMarkdownProcessor()

	tests := []struct {
		name    string
		content *domain.FetchedContent
		want    bool
	}{
		{"mime markdown", &domain.FetchedContent{MimeType: "text/markdown"}, true},
		{"md extension", &domain.FetchedContent{URL: "https://x.com/a.md", MimeType: "text/plain"}, true},
		{"md extension with query", &domain.FetchedContent{URL: "https://x.com/a.md?raw=1", MimeType: "text/plain"}, true},
		{"plain text", &domain.FetchedContent{URL: "https://x.com/a.txt", MimeType: "text/plain"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.CanProcess(tt.content))
		})
	}
}

func TestPDFCanProcess(t *testing.T) {
	p := NewPDFProcessor()

	assert.True(t, p.CanProcess(&domain.FetchedContent{MimeType: "application/pdf"}))
	assert.True(t, p.CanProcess(&domain.FetchedContent{
		MimeType: "application/octet-stream",
		Bytes:    []byte("%PDF-1.7\n"),
	}))
	assert.False(t, p.CanProcess(&domain.FetchedContent{
		MimeType: "text/html",
		Bytes:    []byte("<html>"),
	}))
}

func TestTextCanProcess(t *testing.T) {
	p := NewTextProcessor()

	assert.True(t, p.CanProcess(&domain.FetchedContent{Bytes: []byte("hello")}))
	assert.False(t, p.CanProcess(&domain.FetchedContent{Bytes: []byte{0xff, 0xfe, 0x81}}))
}
