package utils

import (
	"net/url"
	"strings"
)

// NormalizeURL canonicalizes a source URL for deduplication: scheme and
// host lowercased, query string and fragment dropped, trailing slash
// stripped. Two chunks of the same page must normalize identically or the
// merge step would cite the page twice.
func NormalizeURL(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Host == "" {
		return strings.TrimRight(strings.TrimSpace(raw), "/")
	}

	scheme := strings.ToLower(parsed.Scheme)
	host := strings.ToLower(parsed.Host)
	path := strings.TrimRight(parsed.Path, "/")

	return scheme + "://" + host + path
}
