package converter

import "strings"

// markdownExtensions are the URL suffixes treated as markdown even
// when the server reports a generic content type.
var markdownExtensions = []string{".md", ".mdx", ".markdown", ".mdown"}

// pathOnly strips the query string and fragment so extension checks
// see the real path.
func pathOnly(url string) string {
	url = strings.ToLower(url)
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	return url
}

// IsMarkdownContent reports whether the response is markdown, by
// content type or by URL extension.
func IsMarkdownContent(contentType, url string) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "text/markdown") ||
		strings.Contains(ct, "text/x-markdown") ||
		strings.Contains(ct, "application/markdown") {
		return true
	}

	p := pathOnly(url)
	for _, ext := range markdownExtensions {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}

// IsPlainTextContent reports whether the response is plain text, by
// content type or a .txt URL extension.
func IsPlainTextContent(contentType, url string) bool {
	if strings.Contains(strings.ToLower(contentType), "text/plain") {
		return true
	}
	return strings.HasSuffix(pathOnly(url), ".txt")
}

// IsHTMLContent reports whether the content type indicates HTML. An
// empty content type counts as HTML, since servers that omit the
// header almost always serve pages.
func IsHTMLContent(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}
