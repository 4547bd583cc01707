package converter

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// charsetMetaRe pulls the charset value out of a meta tag, covering
// both <meta charset="..."> and the http-equiv content attribute form.
var charsetMetaRe = regexp.MustCompile(`(?i)charset=["']?([a-zA-Z0-9._-]+)`)

// DetectEncoding names the character encoding of an HTML document.
// A charset declared in the document head wins; otherwise detection
// falls back to content sniffing, and finally to UTF-8.
func DetectEncoding(content []byte) string {
	head := content[:min(1024, len(content))]

	if m := charsetMetaRe.FindSubmatch(head); m != nil {
		return strings.ToLower(string(m[1]))
	}

	if _, name, _ := charset.DetermineEncoding(content, ""); name != "" {
		return name
	}

	return "utf-8"
}

// ConvertToUTF8 re-encodes the document to UTF-8. Content that is
// already UTF-8, or whose declared charset is unknown to the IANA
// index, passes through unchanged.
func ConvertToUTF8(content []byte) ([]byte, error) {
	name := DetectEncoding(content)
	if name == "utf-8" || name == "utf8" {
		return content, nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return content, nil
	}

	return io.ReadAll(transform.NewReader(bytes.NewReader(content), enc.NewDecoder()))
}
