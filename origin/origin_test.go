package origin

import "testing"

func TestIsAllowed(t *testing.T) {
	cases := []struct {
		name     string
		patterns []string
		origin   string
		want     bool
	}{
		{"wildcard matches subdomain", []string{"*.example.com"}, "https://api.example.com", true},
		{"wildcard matches nested subdomain", []string{"*.example.com"}, "https://a.b.example.com", true},
		{"wildcard does not match apex", []string{"*.example.com"}, "https://example.com", false},
		{"exact does not match subdomain", []string{"example.com"}, "https://api.example.com", false},
		{"exact matches apex", []string{"example.com"}, "https://example.com", true},
		{"apex listed alongside wildcard", []string{"*.example.com", "example.com"}, "https://example.com", true},
		{"case insensitive host", []string{"example.com"}, "https://EXAMPLE.com", true},
		{"case insensitive pattern", []string{"EXAMPLE.com"}, "https://example.com", true},
		{"port is ignored", []string{"example.com"}, "https://example.com:8443", true},
		{"unrelated host", []string{"*.example.com"}, "https://example.org", false},
		{"suffix trick rejected", []string{"example.com"}, "https://evilexample.com", false},
		{"relative uri rejected", []string{"example.com"}, "example.com", false},
		{"unparsable rejected", []string{"example.com"}, "http://[::1", false},
		{"empty origin rejected", []string{"example.com"}, "", false},
		{"scheme only rejected", []string{"example.com"}, "https://", false},
		{"no patterns rejects all", nil, "https://example.com", false},
		{"first match wins across list", []string{"other.io", "*.example.com"}, "https://api.example.com", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := NewValidator(tc.patterns)
			if got := v.IsAllowed(tc.origin); got != tc.want {
				t.Fatalf("IsAllowed(%q) with %v = %v, want %v", tc.origin, tc.patterns, got, tc.want)
			}
		})
	}
}

func TestNewValidatorDropsEmptyPatterns(t *testing.T) {
	v := NewValidator([]string{"", "  ", "example.com"})
	if !v.IsAllowed("https://example.com") {
		t.Fatal("expected surviving pattern to match")
	}
	if v.IsAllowed("https://") {
		t.Fatal("empty pattern must not match empty host")
	}
}
