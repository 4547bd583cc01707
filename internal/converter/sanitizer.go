package converter

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// strippedTags never carry article content and are always removed.
var strippedTags = []string{
	"script", "style", "noscript", "iframe", "object", "embed",
	"applet", "form", "input", "button", "select", "textarea",
	"footer", "header", "aside", "advertisement", "banner",
}

// chromeClasses mark page chrome: containers whose class names flag
// them as navigation, ads, or social widgets rather than content.
var chromeClasses = []string{
	"sidebar", "navigation", "nav", "menu", "footer", "header",
	"banner", "advertisement", "ad", "social", "share",
	"comment", "comments", "related", "recommended",
}

// chromeIDs are the ID-attribute counterparts of chromeClasses.
var chromeIDs = []string{
	"sidebar", "navigation", "nav", "menu", "footer", "header",
	"banner", "advertisement", "comments",
}

// Sanitizer strips page chrome from HTML and rewrites relative links
// to absolute ones before markdown conversion.
type Sanitizer struct {
	baseURL          string
	removeNavigation bool
	removeComments   bool
}

// SanitizerOptions configures a Sanitizer.
type SanitizerOptions struct {
	BaseURL          string
	RemoveNavigation bool
	RemoveComments   bool
}

// NewSanitizer creates a sanitizer.
func NewSanitizer(opts SanitizerOptions) *Sanitizer {
	return &Sanitizer{
		baseURL:          opts.BaseURL,
		removeNavigation: opts.RemoveNavigation,
		removeComments:   opts.RemoveComments,
	}
}

// Sanitize parses, cleans, and re-serializes an HTML fragment.
func (s *Sanitizer) Sanitize(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	s.clean(doc.Selection)
	return doc.Html()
}

// SanitizeDocument cleans a pre-parsed document in place.
func (s *Sanitizer) SanitizeDocument(doc *goquery.Document) (*goquery.Document, error) {
	if doc == nil {
		return nil, nil
	}
	s.clean(doc.Selection)
	return doc, nil
}

// SanitizeSelection cleans a selection in place.
func (s *Sanitizer) SanitizeSelection(sel *goquery.Selection) (*goquery.Selection, error) {
	if sel == nil {
		return nil, nil
	}
	s.clean(sel)
	return sel, nil
}

func (s *Sanitizer) clean(sel *goquery.Selection) {
	for _, tag := range strippedTags {
		matchAll(sel, tag).Remove()
	}

	if s.removeNavigation {
		for _, class := range chromeClasses {
			matchAll(sel, "."+class).Remove()
			matchAll(sel, "[class*='"+class+"']").Remove()
		}
		for _, id := range chromeIDs {
			matchAll(sel, "#"+id).Remove()
		}
		matchAll(sel, "nav").Remove()
	}

	matchAll(sel, "[style*='display:none']").Remove()
	matchAll(sel, "[style*='display: none']").Remove()
	matchAll(sel, "[hidden]").Remove()

	if s.baseURL != "" {
		s.absolutizeLinks(sel)
	}

	s.dropEmptyBlocks(sel)
}

// matchAll matches both the root nodes of sel and their descendants;
// goquery's Find alone skips the roots.
func matchAll(sel *goquery.Selection, selector string) *goquery.Selection {
	return sel.Filter(selector).AddSelection(sel.Find(selector))
}

// absolutizeLinks resolves href, src, and srcset values against the
// sanitizer's base URL so links survive relocation to markdown.
func (s *Sanitizer) absolutizeLinks(sel *goquery.Selection) {
	base, err := url.Parse(s.baseURL)
	if err != nil {
		return
	}

	matchAll(sel, "a[href]").Each(func(_ int, node *goquery.Selection) {
		if href, ok := node.Attr("href"); ok {
			if abs := absolutize(base, href); abs != "" {
				node.SetAttr("href", abs)
			}
		}
	})

	matchAll(sel, "[src]").Each(func(_ int, node *goquery.Selection) {
		if src, ok := node.Attr("src"); ok {
			if abs := absolutize(base, src); abs != "" {
				node.SetAttr("src", abs)
			}
		}
	})

	matchAll(sel, "[srcset]").Each(func(_ int, node *goquery.Selection) {
		if srcset, ok := node.Attr("srcset"); ok {
			node.SetAttr("srcset", absolutizeSrcset(base, srcset))
		}
	})
}

// absolutize resolves ref against base. Fragments, javascript:,
// mailto:, and data: references pass through untouched.
func absolutize(base *url.URL, ref string) string {
	if ref == "" || strings.HasPrefix(ref, "#") ||
		strings.HasPrefix(ref, "javascript:") ||
		strings.HasPrefix(ref, "mailto:") ||
		strings.HasPrefix(ref, "data:") {
		return ref
	}

	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(refURL).String()
}

// absolutizeSrcset resolves each candidate URL in a srcset value,
// preserving the width or density descriptors.
func absolutizeSrcset(base *url.URL, srcset string) string {
	parts := strings.Split(srcset, ",")
	for i, part := range parts {
		tokens := strings.Fields(strings.TrimSpace(part))
		if len(tokens) > 0 {
			tokens[0] = absolutize(base, tokens[0])
			parts[i] = strings.Join(tokens, " ")
		}
	}
	return strings.Join(parts, ", ")
}

// dropEmptyBlocks removes block elements that hold neither text nor
// children, which otherwise leave stray blank lines in the markdown.
func (s *Sanitizer) dropEmptyBlocks(sel *goquery.Selection) {
	for _, tag := range []string{"p", "div", "span", "section", "article"} {
		matchAll(sel, tag).Each(func(_ int, node *goquery.Selection) {
			if strings.TrimSpace(node.Text()) == "" && node.Children().Length() == 0 {
				node.Remove()
			}
		})
	}
}
