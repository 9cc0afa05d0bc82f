package internal

import (
	"net"
	"strings"
)

const maxDeviceLength = 256

// NormalizeDevice reduces a raw User-Agent string to the canonical device
// fingerprint stored on session records and compared during refresh. The
// reduction keeps the comparison stable across requests from the same client:
// surrounding whitespace is dropped, interior whitespace runs collapse to a
// single space, and the result is capped.
func NormalizeDevice(userAgent string) string {
	fields := strings.Fields(userAgent)
	if len(fields) == 0 {
		return "unknown"
	}

	device := strings.Join(fields, " ")
	if len(device) > maxDeviceLength {
		device = device[:maxDeviceLength]
	}
	return device
}

// ClientIP extracts the bare IP from a RemoteAddr-style "host:port" value.
// Values without a port are returned as-is.
func ClientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return strings.TrimSpace(remoteAddr)
	}
	return host
}
