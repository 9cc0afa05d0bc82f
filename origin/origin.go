// Package origin decides whether a request's declared origin is trusted.
//
// Patterns are an ordered list. A pattern beginning with "*" matches any host
// ending with the remainder of the pattern, enabling subdomain wildcards:
// "*.example.com" matches "api.example.com" but not "example.com" itself
// unless "example.com" is separately listed. Matching is case-insensitive and
// first match wins.
package origin

import (
	"net/url"
	"strings"
)

// Validator holds the configured trusted-origin patterns. It is immutable
// after construction and safe for concurrent use from multiple requests.
type Validator struct {
	patterns []string
}

// NewValidator lowercases and trims the pattern list once at construction.
// Empty patterns are dropped.
func NewValidator(patterns []string) *Validator {
	cleaned := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		cleaned = append(cleaned, p)
	}
	return &Validator{patterns: cleaned}
}

// IsAllowed parses origin as an absolute URI and compares its host against
// the configured patterns. Unparsable origins and origins without a host are
// never allowed.
func (v *Validator) IsAllowed(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil || !u.IsAbs() {
		return false
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}

	for _, pattern := range v.patterns {
		if matchHost(host, pattern) {
			return true
		}
	}
	return false
}

func matchHost(host, pattern string) bool {
	if strings.HasPrefix(pattern, "*") {
		return strings.HasSuffix(host, pattern[1:])
	}
	return host == pattern
}
