package utils

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// NormalizeURL normalizes a URL for consistent handling
func NormalizeURL(rawURL string) (string, error) {
	// If no scheme is present, prepend https:// before parsing
	// This ensures the host is correctly identified
	if !strings.Contains(rawURL, "://") && !strings.HasPrefix(rawURL, "//") {
		rawURL = "https://" + rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	// Ensure scheme
	if u.Scheme == "" {
		u.Scheme = "https"
	}

	// Normalize host to lowercase
	u.Host = strings.ToLower(u.Host)

	// Remove default ports
	if (u.Scheme == "http" && u.Port() == "80") ||
		(u.Scheme == "https" && u.Port() == "443") {
		u.Host = u.Hostname()
	}

	// Clean path
	if u.Path == "" {
		u.Path = "/"
	} else {
		u.Path = path.Clean(u.Path)
	}

	// Remove trailing slash (except for root)
	if u.Path != "/" && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	// Remove fragment
	u.Fragment = ""

	// Build the result manually to ensure trailing slash for root path
	result := u.String()

	// Ensure root path has trailing slash
	if u.Path == "/" && u.RawQuery == "" && !strings.HasSuffix(result, "/") {
		result += "/"
	}

	return result, nil
}

// FilterLinks filters links based on patterns
func FilterLinks(links []string, excludePatterns []string) []string {
	var regexps []*regexp.Regexp
	for _, pattern := range excludePatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			continue
		}
		regexps = append(regexps, re)
	}

	filtered := make([]string, 0, len(links))
	for _, link := range links {
		excluded := false
		for _, re := range regexps {
			if re.MatchString(link) {
				excluded = true
				break
			}
		}
		if !excluded {
			filtered = append(filtered, link)
		}
	}

	return filtered
}
