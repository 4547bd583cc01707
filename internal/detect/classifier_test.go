package detect

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/quantmind-br/kbingest-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves canned responses per URL, or a network error.
type fakeFetcher struct {
	responses map[string]*domain.Response
	err       error
	headCalls int
	getCalls  int
}

func (f *fakeFetcher) Get(_ context.Context, url string) (*domain.Response, error) {
	f.getCalls++
	if f.err != nil {
		return nil, f.err
	}
	if resp, ok := f.responses[url]; ok {
		return resp, nil
	}
	return nil, domain.NewFetchError(url, 404, errors.New("HTTP 404"))
}

func (f *fakeFetcher) GetWithHeaders(ctx context.Context, url string, _ map[string]string) (*domain.Response, error) {
	return f.Get(ctx, url)
}

func (f *fakeFetcher) Head(_ context.Context, url string) (*domain.Response, error) {
	f.headCalls++
	if f.err != nil {
		return nil, f.err
	}
	if resp, ok := f.responses[url]; ok {
		return &domain.Response{
			StatusCode:  resp.StatusCode,
			Headers:     resp.Headers,
			ContentType: resp.ContentType,
			URL:         url,
		}, nil
	}
	return nil, domain.NewFetchError(url, 404, errors.New("HTTP 404"))
}

func (f *fakeFetcher) Close() error { return nil }

func TestClassifyUnreachablePDFByExtension(t *testing.T) {
	// Header and sniff detectors abstain on network failure; the
	// extension detector alone classifies the URL.
	fetcher := &fakeFetcher{err: errors.New("dial tcp: connection refused")}
	c := NewClassifier(ClassifierOptions{Fetcher: fetcher})

	result, err := c.Classify(context.Background(), "https://unreachable.example.com/report.pdf")
	require.NoError(t, err)

	assert.Equal(t, domain.KindPDF, result.Kind)
	assert.Equal(t, "application/pdf", result.MimeType)
	assert.InDelta(t, 0.8, result.Confidence, 0.001)
	assert.Equal(t, "extension", result.Metadata["detector"])
	assert.Equal(t, 0, fetcher.headCalls, "extension success must skip network detectors")
}

func TestClassifyHeaderFallback(t *testing.T) {
	// No extension: the header detector answers from Content-Type.
	fetcher := &fakeFetcher{responses: map[string]*domain.Response{
		"https://example.com/docs": {
			StatusCode:  200,
			ContentType: "text/html; charset=utf-8",
		},
	}}
	c := NewClassifier(ClassifierOptions{Fetcher: fetcher})

	result, err := c.Classify(context.Background(), "https://example.com/docs")
	require.NoError(t, err)

	assert.Equal(t, domain.KindHTML, result.Kind)
	assert.InDelta(t, 0.9, result.Confidence, 0.001)
	assert.Equal(t, "header", result.Metadata["detector"])
}

func TestClassifySniffFallback(t *testing.T) {
	// No extension and no Content-Type: sniffing the body decides.
	fetcher := &fakeFetcher{responses: map[string]*domain.Response{
		"https://example.com/page": {
			StatusCode: 200,
			Body:       []byte("<!DOCTYPE html><html><body>hi</body></html>"),
			Headers:    http.Header{},
		},
	}}
	c := NewClassifier(ClassifierOptions{Fetcher: fetcher})

	result, err := c.Classify(context.Background(), "https://example.com/page")
	require.NoError(t, err)

	assert.Equal(t, domain.KindHTML, result.Kind)
	assert.InDelta(t, 0.7, result.Confidence, 0.001)
	assert.Equal(t, "sniff", result.Metadata["detector"])
}

func TestClassifyUnresolved(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("network down")}
	c := NewClassifier(ClassifierOptions{Fetcher: fetcher})

	_, err := c.Classify(context.Background(), "https://example.com/noext")
	assert.ErrorIs(t, err, domain.ErrUnresolved)
}

func TestClassifyNonHTTPScheme(t *testing.T) {
	fetcher := &fakeFetcher{}
	c := NewClassifier(ClassifierOptions{Fetcher: fetcher})

	// ftp URLs: network detectors don't apply, extension still does.
	result, err := c.Classify(context.Background(), "ftp://files.example.com/manual.pdf")
	require.NoError(t, err)
	assert.Equal(t, domain.KindPDF, result.Kind)
	assert.Equal(t, 0, fetcher.headCalls)
	assert.Equal(t, 0, fetcher.getCalls)
}

func TestClassifyAllDiagnostics(t *testing.T) {
	fetcher := &fakeFetcher{responses: map[string]*domain.Response{
		"https://example.com/report.pdf": {
			StatusCode:  200,
			ContentType: "application/pdf",
			Body:        []byte("%PDF-1.7 ..."),
		},
	}}
	c := NewClassifier(ClassifierOptions{Fetcher: fetcher})

	attempts := c.ClassifyAll(context.Background(), "https://example.com/report.pdf")
	require.NotEmpty(t, attempts)
	// All three detectors apply to an http .pdf URL.
	assert.Len(t, attempts, 3)
	for _, a := range attempts[:2] {
		assert.NoError(t, a.Err)
	}
}

func TestExtensionDetectorTable(t *testing.T) {
	d := NewExtensionDetector()
	tests := []struct {
		url  string
		kind domain.ContentKind
		ok   bool
	}{
		{"https://a.com/x.pdf", domain.KindPDF, true},
		{"https://a.com/x.html", domain.KindHTML, true},
		{"https://a.com/x.md?v=2", domain.KindMarkdown, true},
		{"https://a.com/x.docx#top", domain.KindDocx, true},
		{"https://a.com/x.PNG", domain.KindImage, true},
		{"https://a.com/x.txt", domain.KindText, true},
		{"https://a.com/page", "", false},
		{"https://a.com/archive.zip", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.ok, d.CanHandle(tt.url))
			if tt.ok {
				c, err := d.Detect(context.Background(), tt.url)
				require.NoError(t, err)
				assert.Equal(t, tt.kind, c.Kind)
			}
		})
	}
}

func TestKindFromMime(t *testing.T) {
	tests := []struct {
		mime string
		kind domain.ContentKind
	}{
		{"text/html; charset=utf-8", domain.KindHTML},
		{"application/pdf", domain.KindPDF},
		{"text/markdown", domain.KindMarkdown},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", domain.KindDocx},
		{"image/png", domain.KindImage},
		{"text/plain", domain.KindText},
		{"application/json", domain.KindText},
		{"application/octet-stream", domain.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindFromMime(tt.mime))
		})
	}
}
