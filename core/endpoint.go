package core

import "strings"

// DefaultVersionPrefix is the path segment applied to relative endpoints.
const DefaultVersionPrefix = "/v1"

// isAbsoluteURL reports whether the endpoint names a full URL to use
// verbatim.
func isAbsoluteURL(endpoint string) bool {
	return strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://")
}

// joinEndpoint resolves a logical endpoint against a base URL. Relative
// paths receive the version prefix exactly once: a path that already
// starts with it is left untouched, so "/kb/list" and "/v1/kb/list"
// resolve identically.
func joinEndpoint(baseURL, prefix, endpoint string) string {
	if isAbsoluteURL(endpoint) {
		return endpoint
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	if prefix != "" && !hasVersionPrefix(endpoint, prefix) {
		endpoint = prefix + endpoint
	}
	return strings.TrimRight(baseURL, "/") + endpoint
}

// hasVersionPrefix matches the prefix as a whole path segment, so "/v1x"
// does not count as already versioned.
func hasVersionPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	rest := path[len(prefix):]
	return rest == "" || strings.HasPrefix(rest, "/") || strings.HasPrefix(rest, "?")
}
