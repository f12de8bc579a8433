package httpmetrics

import (
	"strings"

	"github.com/google/uuid"
)

// The service exposes a small fixed route set; anything else is a stray
// request and gets its identifier-looking segments collapsed so metric
// label cardinality stays bounded.
var servedPaths = map[string]struct{}{
	"/api/auth/login":   {},
	"/api/auth/refresh": {},
	"/health":           {},
	"/metrics":          {},
}

func NormalizePath(path string) string {
	if path == "" {
		return "/"
	}

	if _, ok := servedPaths[path]; ok {
		return path
	}

	parts := strings.Split(path, "/")
	for i, part := range parts {
		if isIdentifierSegment(part) {
			parts[i] = "{param}"
		}
	}

	result := strings.Join(parts, "/")
	if result == "" {
		return "/"
	}
	return result
}

func isIdentifierSegment(s string) bool {
	if s == "" {
		return false
	}
	if isNumeric(s) {
		return true
	}
	if _, err := uuid.Parse(s); err == nil {
		return true
	}
	// Bearer secrets are long hex strings; they must never become labels.
	return len(s) >= 32 && isHex(s)
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
