package analyzer

import (
	"net/url"
	"strings"
)

// Normalize canonicalizes a URL for deduplication: strips the fragment,
// removes utm_* query parameters, lowercases the host, collapses repeated
// path separators and strips a single trailing slash (except for the root
// path; a bare host gains the root slash so both forms share one key).
// Normalization is total: input that cannot be parsed as a URL is
// trimmed and lowercased instead of producing an error.
func Normalize(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return ""
	}

	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return normalizeFallback(trimmed)
	}

	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	u.RawQuery = stripUTMParams(u.RawQuery)
	if u.Path == "" {
		u.Path = "/"
	}
	u.Path = collapseSlashes(u.Path)
	if len(u.Path) > 1 && strings.HasSuffix(u.Path, "/") {
		u.Path = u.Path[:len(u.Path)-1]
	}

	return u.String()
}

// NormalizeForComparison normalizes for equality checks: it assumes http://
// when no scheme is present and strips all trailing slashes. Empty input
// yields the empty string.
func NormalizeForComparison(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return ""
	}

	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}

	normalized := Normalize(trimmed)
	for len(normalized) > 0 && strings.HasSuffix(normalized, "/") {
		normalized = normalized[:len(normalized)-1]
	}
	return normalized
}

func normalizeFallback(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	for len(s) > 1 && strings.HasSuffix(s, "/") {
		s = s[:len(s)-1]
	}
	return s
}

// stripUTMParams removes every query parameter whose key starts with utm_
// (case-insensitive), preserving the order of the remaining parameters.
func stripUTMParams(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	kept := make([]string, 0, 4)
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key := pair
		if idx := strings.Index(pair, "="); idx != -1 {
			key = pair[:idx]
		}
		if strings.HasPrefix(strings.ToLower(key), "utm_") {
			continue
		}
		kept = append(kept, pair)
	}
	return strings.Join(kept, "&")
}

func collapseSlashes(path string) string {
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	return path
}
