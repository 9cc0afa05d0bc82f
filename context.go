package sessiongate

import (
	"context"
	"net/http"

	"github.com/MrEthical07/sessiongate/internal"
)

type clientIPContextKey struct{}
type deviceContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx, overriding the value
// derived from the request's RemoteAddr. Use it when the server sits behind a
// trusted proxy that forwards the real client address.
//
//	Docs: docs/refresh.md
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithDevice attaches a pre-normalized device fingerprint to ctx, overriding
// the value derived from the request's User-Agent header.
//
//	Docs: docs/refresh.md
func WithDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, deviceContextKey{}, device)
}

func clientIPFromRequest(r *http.Request) string {
	if ip, _ := r.Context().Value(clientIPContextKey{}).(string); ip != "" {
		return ip
	}
	return internal.ClientIP(r.RemoteAddr)
}

func deviceFromRequest(r *http.Request) string {
	if device, _ := r.Context().Value(deviceContextKey{}).(string); device != "" {
		return device
	}
	return internal.NormalizeDevice(r.UserAgent())
}
