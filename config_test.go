package sessiongate

import (
	"strings"
	"testing"
	"time"
)

func validTestConfig() Config {
	cfg := defaultConfig()
	cfg.Envelope.Secret = []byte("0123456789abcdef0123456789abcdef")
	cfg.Origin.Trusted = []string{"*.example.com"}
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Cookie.Name != "__session" || cfg.Cookie.Path != "/" {
		t.Fatalf("unexpected cookie defaults: %+v", cfg.Cookie)
	}
	if cfg.Cookie.PreconditionHeader != "X-Expected-User" {
		t.Fatalf("unexpected precondition header %q", cfg.Cookie.PreconditionHeader)
	}
	if cfg.Envelope.Mode != EnvelopeAEAD {
		t.Fatalf("unexpected envelope mode %q", cfg.Envelope.Mode)
	}
	if cfg.Session.PersistentExpiry != 30*24*time.Hour || cfg.Session.TemporaryExpiry != 12*time.Hour {
		t.Fatalf("unexpected session expiries: %+v", cfg.Session)
	}
	if cfg.Session.RefreshAfter != 15*time.Minute {
		t.Fatalf("unexpected refresh interval %v", cfg.Session.RefreshAfter)
	}
	if cfg.Refresh.Grace != 10*time.Second || !cfg.Refresh.MatchDevice || !cfg.Refresh.MatchIP {
		t.Fatalf("unexpected refresh policy: %+v", cfg.Refresh)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"short secret", func(c *Config) { c.Envelope.Secret = []byte("short") }, "Secret"},
		{"empty purpose", func(c *Config) { c.Envelope.Purpose = "" }, "Purpose"},
		{"empty cookie name", func(c *Config) { c.Cookie.Name = "" }, "Cookie Name"},
		{"empty precondition header", func(c *Config) { c.Cookie.PreconditionHeader = "" }, "PreconditionHeader"},
		{"zero expiry", func(c *Config) { c.Session.TemporaryExpiry = 0 }, "expiries"},
		{"zero refresh", func(c *Config) { c.Session.RefreshAfter = 0 }, "RefreshAfter"},
		{"refresh above expiry", func(c *Config) { c.Session.RefreshAfter = 13 * time.Hour }, "RefreshAfter"},
		{"negative grace", func(c *Config) { c.Refresh.Grace = -time.Second }, "Grace"},
		{"grace above refresh", func(c *Config) { c.Refresh.Grace = time.Hour }, "Grace"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validTestConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}

	cfg := validTestConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestCloneConfigIsolation(t *testing.T) {
	cfg := validTestConfig()
	clone := cloneConfig(cfg)

	cfg.Envelope.Secret[0] = 'x'
	cfg.Origin.Trusted[0] = "evil.test"

	if clone.Envelope.Secret[0] == 'x' {
		t.Fatal("secret not deep-copied")
	}
	if clone.Origin.Trusted[0] == "evil.test" {
		t.Fatal("trusted origins not deep-copied")
	}
}

func TestBuilderRequiresStore(t *testing.T) {
	if _, err := New().WithConfig(validTestConfig()).Build(); err == nil {
		t.Fatal("expected error without a store")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	gate, store, done := newTestGate(t, nil)
	defer done()
	_ = gate

	b := New().WithConfig(validTestConfig()).WithStore(store)
	if _, err := b.Build(); err != nil {
		t.Fatalf("first build failed: %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("expected error on builder reuse")
	}
}

func TestBuilderRejectsInvalidConfig(t *testing.T) {
	gate, store, done := newTestGate(t, nil)
	defer done()
	_ = gate

	cfg := validTestConfig()
	cfg.Envelope.Secret = nil
	if _, err := New().WithConfig(cfg).WithStore(store).Build(); err == nil {
		t.Fatal("expected error for missing secret")
	}
}
