package internal

import (
	"strings"
	"testing"
)

func TestNormalizeDevice(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Mozilla/5.0 (X11; Linux x86_64)", "Mozilla/5.0 (X11; Linux x86_64)"},
		{"  Mozilla/5.0   (X11;  Linux) ", "Mozilla/5.0 (X11; Linux)"},
		{"", "unknown"},
		{"   ", "unknown"},
	}
	for _, tc := range cases {
		if got := NormalizeDevice(tc.in); got != tc.want {
			t.Fatalf("NormalizeDevice(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	long := strings.Repeat("x", 1000)
	if got := NormalizeDevice(long); len(got) != 256 {
		t.Fatalf("expected capped length 256, got %d", len(got))
	}
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"203.0.113.7:51442", "203.0.113.7"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"203.0.113.7", "203.0.113.7"},
		{" 203.0.113.7 ", "203.0.113.7"},
	}
	for _, tc := range cases {
		if got := ClientIP(tc.in); got != tc.want {
			t.Fatalf("ClientIP(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
