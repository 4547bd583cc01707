package renderer

import (
	"regexp"
	"strings"
)

// frameworkMarkers lists, in detection order, the HTML fragments that
// identify client-side frameworks whose pages arrive as empty shells.
// More specific frameworks come before the generic ones they build on
// (Next.js before React, Nuxt before Vue).
var frameworkMarkers = []struct {
	name    string
	markers []string
}{
	{"Next.js", []string{
		`<div id="__next"></div>`,
		`<div id="__next"/>`,
		`__next_data__`,
		`_next/static`,
	}},
	{"Nuxt", []string{
		`__nuxt__`,
		`window.__nuxt__`,
		`<div id="__nuxt">`,
	}},
	{"React", []string{
		`<div id="root"></div>`,
		`<div id="root"/>`,
		`data-reactroot`,
		`__react_devtools_global_hook__`,
	}},
	{"Vue", []string{
		`<div id="app"></div>`,
		`<div id="app"/>`,
		`__vue__`,
		`v-cloak`,
		`vue.createapp`,
	}},
	{"Angular", []string{
		`ng-version`,
		`ng-app`,
		`ng-controller`,
		`<app-root>`,
	}},
	{"Svelte", []string{
		`__svelte`,
		`svelte-`,
	}},
}

// stateMarkers are framework-agnostic hints that the page hydrates
// itself from a serialized state blob.
var stateMarkers = []string{
	`window.__initial_state__`,
	`window.__state__`,
	`window.__preloaded_state__`,
}

// minTextLength is the visible-text threshold below which a
// script-heavy page is treated as an unhydrated shell.
const minTextLength = 500

var (
	scriptTagRe = regexp.MustCompile(`<script[^>]*>[\s\S]*?</script>`)
	htmlTagRe   = regexp.MustCompile(`<[^>]+>`)
)

// NeedsJSRendering reports whether html looks like a JavaScript shell
// that only produces its real content after hydration. It triggers on
// known framework markers, or on pages whose stripped text is nearly
// empty while carrying several script tags.
func NeedsJSRendering(html string) bool {
	lower := strings.ToLower(html)

	for _, fw := range frameworkMarkers {
		for _, m := range fw.markers {
			if strings.Contains(lower, m) {
				return true
			}
		}
	}
	for _, m := range stateMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}

	text := htmlTagRe.ReplaceAllString(scriptTagRe.ReplaceAllString(html, ""), "")
	if len(strings.TrimSpace(text)) < minTextLength {
		if strings.Count(lower, "<script") > 3 {
			return true
		}
	}

	return false
}

// DetectFramework names the client-side framework the page appears to
// use, or "Unknown".
func DetectFramework(html string) string {
	lower := strings.ToLower(html)
	for _, fw := range frameworkMarkers {
		for _, m := range fw.markers {
			if strings.Contains(lower, m) {
				return fw.name
			}
		}
	}
	return "Unknown"
}
