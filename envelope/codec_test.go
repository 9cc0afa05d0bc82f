package envelope

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/sessiongate/session"
)

func testToken() *session.Token {
	return &session.Token{
		SessionID:    "c2Vzc2lvbi1pZC0x",
		UserID:       "user-42",
		RefreshedUTC: time.Now().UTC().Truncate(time.Millisecond),
		RefreshAfter: 15 * time.Minute,
		ValidFor:     12 * time.Hour,
		Generation:   7,
		Persistent:   true,
	}
}

func newTestCodec(t *testing.T, mode Mode) *Codec {
	t.Helper()
	c, err := New(Config{
		Mode:    mode,
		Secret:  []byte("0123456789abcdef0123456789abcdef"),
		Purpose: "sessiongate/cookie/v1",
	})
	if err != nil {
		t.Fatalf("new codec failed: %v", err)
	}
	return c
}

func TestRoundTrip(t *testing.T) {
	for _, mode := range []Mode{ModeAEAD, ModeSigned} {
		t.Run(string(mode), func(t *testing.T) {
			c := newTestCodec(t, mode)
			tok := testToken()

			env, err := c.Encode(tok)
			if err != nil {
				t.Fatalf("encode failed: %v", err)
			}

			got, err := c.Decode(env)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if *got != *tok {
				t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, tok)
			}
		})
	}
}

func TestRoundTripTemporaryToken(t *testing.T) {
	c := newTestCodec(t, ModeAEAD)
	tok := testToken()
	tok.Persistent = false
	tok.Generation = 0

	env, err := c.Encode(tok)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	got, err := c.Decode(env)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.Persistent || got.Generation != 0 {
		t.Fatalf("flags not preserved: %+v", got)
	}
}

func TestDecodeRejectsTampering(t *testing.T) {
	for _, mode := range []Mode{ModeAEAD, ModeSigned} {
		t.Run(string(mode), func(t *testing.T) {
			c := newTestCodec(t, mode)
			env, err := c.Encode(testToken())
			if err != nil {
				t.Fatalf("encode failed: %v", err)
			}

			tok := testToken()
			for i := 0; i < len(env); i++ {
				mutated := []byte(env)
				mutated[i] ^= 0x02
				got, err := c.Decode(string(mutated))
				if err != nil {
					continue
				}
				// Base64 unused-bit flips can decode to the identical byte
				// stream; anything else must have been rejected above.
				if *got != *tok {
					t.Fatalf("mutation at byte %d decoded to a different token", i)
				}
			}
		})
	}
}

func TestDecodeMalformedStructure(t *testing.T) {
	aead := newTestCodec(t, ModeAEAD)
	signed := newTestCodec(t, ModeSigned)

	cases := []struct {
		name  string
		codec *Codec
		input string
	}{
		{"aead bad base64", aead, "!!!not-base64!!!"},
		{"aead too short", aead, "AAAA"},
		{"aead empty", aead, ""},
		{"signed missing mac part", signed, "cGF5bG9hZA"},
		{"signed extra parts", signed, "cGF5bG9hZA bWFj dHJhaWxlcg"},
		{"signed bad payload base64", signed, "!!! bWFj"},
		{"signed bad mac base64", signed, "cGF5bG9hZA !!!"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.codec.Decode(tc.input)
			if !errors.Is(err, ErrInvalidEnvelope) {
				t.Fatalf("expected ErrInvalidEnvelope, got %v", err)
			}
		})
	}
}

func TestDecodeAuthenticationFailed(t *testing.T) {
	c := newTestCodec(t, ModeSigned)
	env, err := c.Encode(testToken())
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	// Swap the MAC for a well-formed but wrong one.
	parts := strings.SplitN(env, " ", 2)
	forged := parts[0] + " " + strings.Repeat("A", len(parts[1]))
	if _, err := c.Decode(forged); !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestDecodeEmptyPayload(t *testing.T) {
	c := newTestCodec(t, ModeSigned)

	// A correctly signed zero-length payload must be rejected as empty, not
	// as a structural failure.
	mac := c.signer.Sign(nil)
	env := " " + base64.RawURLEncoding.EncodeToString(mac)
	if _, err := c.Decode(env); !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload, got %v", err)
	}
}

func TestKeysAreModeAndPurposeSeparated(t *testing.T) {
	a := newTestCodec(t, ModeAEAD)
	b, err := New(Config{
		Mode:    ModeAEAD,
		Secret:  []byte("0123456789abcdef0123456789abcdef"),
		Purpose: "sessiongate/other/v1",
	})
	if err != nil {
		t.Fatalf("new codec failed: %v", err)
	}

	env, err := a.Encode(testToken())
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if _, err := b.Decode(env); err == nil {
		t.Fatal("envelope decoded under a different purpose")
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	if _, err := New(Config{Mode: ModeAEAD, Secret: nil, Purpose: "p"}); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := New(Config{Mode: ModeAEAD, Secret: []byte("s"), Purpose: ""}); err == nil {
		t.Fatal("expected error for empty purpose")
	}
	if _, err := New(Config{Mode: "jwt", Secret: []byte("s"), Purpose: "p"}); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
