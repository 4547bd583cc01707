package detect

import (
	"mime"
	"strings"

	"github.com/quantmind-br/kbingest-go/internal/domain"
)

// extensionKinds maps URL path extensions to content kinds and their
// canonical MIME types.
var extensionKinds = map[string]struct {
	kind     domain.ContentKind
	mimeType string
}{
	".html":     {domain.KindHTML, "text/html"},
	".htm":      {domain.KindHTML, "text/html"},
	".xhtml":    {domain.KindHTML, "application/xhtml+xml"},
	".pdf":      {domain.KindPDF, "application/pdf"},
	".md":       {domain.KindMarkdown, "text/markdown"},
	".mdx":      {domain.KindMarkdown, "text/markdown"},
	".markdown": {domain.KindMarkdown, "text/markdown"},
	".docx":     {domain.KindDocx, "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	".doc":      {domain.KindDocx, "application/msword"},
	".png":      {domain.KindImage, "image/png"},
	".jpg":      {domain.KindImage, "image/jpeg"},
	".jpeg":     {domain.KindImage, "image/jpeg"},
	".gif":      {domain.KindImage, "image/gif"},
	".webp":     {domain.KindImage, "image/webp"},
	".txt":      {domain.KindText, "text/plain"},
	".text":     {domain.KindText, "text/plain"},
}

// KindFromMime maps a MIME type to a content kind.
func KindFromMime(mimeType string) domain.ContentKind {
	mt := mimeType
	if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
		mt = parsed
	}
	mt = strings.ToLower(mt)

	switch {
	case strings.Contains(mt, "text/html"), strings.Contains(mt, "application/xhtml"):
		return domain.KindHTML
	case strings.Contains(mt, "application/pdf"):
		return domain.KindPDF
	case strings.Contains(mt, "markdown"):
		return domain.KindMarkdown
	case strings.Contains(mt, "wordprocessingml"), strings.Contains(mt, "msword"),
		strings.Contains(mt, "opendocument.text"):
		return domain.KindDocx
	case strings.HasPrefix(mt, "image/"):
		return domain.KindImage
	case strings.HasPrefix(mt, "text/"), strings.Contains(mt, "json"), strings.Contains(mt, "xml"):
		return domain.KindText
	}
	return domain.KindUnknown
}
