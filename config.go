package sessiongate

import (
	"errors"
	"time"
)

// Config defines a public type used by sessiongate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Envelope EnvelopeConfig
	Cookie   CookieConfig
	Session  SessionConfig
	Refresh  RefreshConfig
	Origin   OriginConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
ENVELOPE CONFIG
====================================
*/

// EnvelopeConfig defines a public type used by sessiongate APIs.
//
// EnvelopeConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type EnvelopeConfig struct {
	Mode    EnvelopeMode
	Secret  []byte
	Purpose string
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig defines a public type used by sessiongate APIs.
//
// CookieConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CookieConfig struct {
	Name   string
	Domain string
	Path   string

	// PreconditionHeader names the single-valued request header carrying the
	// caller's expected user identity.
	PreconditionHeader string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by sessiongate APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	PersistentExpiry time.Duration
	TemporaryExpiry  time.Duration
	RefreshAfter     time.Duration
}

/*
====================================
REFRESH CONFIG
====================================
*/

// RefreshConfig defines a public type used by sessiongate APIs.
//
// RefreshConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RefreshConfig struct {
	// Grace bounds the multi-refresh window. In-step refreshes inside it do
	// not advance the generation, and one-generation-behind tokens inside it
	// are still honored when the match checks pass.
	Grace       time.Duration
	MatchDevice bool
	MatchIP     bool
}

/*
====================================
ORIGIN CONFIG
====================================
*/

// OriginConfig defines a public type used by sessiongate APIs.
//
// OriginConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type OriginConfig struct {
	// Trusted is an ordered list of host patterns. A leading "*" matches any
	// host ending with the remainder of the pattern.
	Trusted []string
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig defines a public type used by sessiongate APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by sessiongate APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		Envelope: EnvelopeConfig{
			Mode:    EnvelopeAEAD,
			Purpose: "sessiongate/cookie",
		},
		Cookie: CookieConfig{
			Name:               "__session",
			Path:               "/",
			PreconditionHeader: "X-Expected-User",
		},
		Session: SessionConfig{
			PersistentExpiry: 30 * 24 * time.Hour,
			TemporaryExpiry:  12 * time.Hour,
			RefreshAfter:     15 * time.Minute,
		},
		Refresh: RefreshConfig{
			Grace:       10 * time.Second,
			MatchDevice: true,
			MatchIP:     true,
		},
		Audit: AuditConfig{
			BufferSize: 256,
			DropIfFull: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Envelope.Secret = cloneBytes(cfg.Envelope.Secret)
	if cfg.Origin.Trusted != nil {
		out.Origin.Trusted = append([]string(nil), cfg.Origin.Trusted...)
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	if len(c.Envelope.Secret) < 32 {
		return errors.New("Envelope Secret must be at least 32 bytes")
	}
	if c.Envelope.Purpose == "" {
		return errors.New("Envelope Purpose must be set")
	}
	if c.Cookie.Name == "" {
		return errors.New("Cookie Name must be set")
	}
	if c.Cookie.PreconditionHeader == "" {
		return errors.New("Cookie PreconditionHeader must be set")
	}
	if c.Session.PersistentExpiry <= 0 || c.Session.TemporaryExpiry <= 0 {
		return errors.New("Session expiries must be positive")
	}
	if c.Session.RefreshAfter <= 0 {
		return errors.New("Session RefreshAfter must be positive")
	}
	if c.Session.RefreshAfter >= c.Session.TemporaryExpiry {
		return errors.New("Session RefreshAfter must be below TemporaryExpiry")
	}
	if c.Refresh.Grace < 0 {
		return errors.New("Refresh Grace must not be negative")
	}
	if c.Refresh.Grace >= c.Session.RefreshAfter {
		return errors.New("Refresh Grace must be below Session RefreshAfter")
	}
	return nil
}
