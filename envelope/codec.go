package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"

	"github.com/MrEthical07/sessiongate/session"
	"github.com/MrEthical07/sessiongate/signer"
)

// ErrInvalidEnvelope is returned when the envelope structure is malformed:
// wrong part count, bad base64, or an undecodable payload.
var ErrInvalidEnvelope = errors.New("invalid envelope")

// ErrAuthenticationFailed is returned when the MAC or AEAD check fails.
var ErrAuthenticationFailed = errors.New("envelope authentication failed")

// ErrEmptyPayload is returned when an authenticated envelope decodes to no
// token.
var ErrEmptyPayload = errors.New("empty envelope payload")

// Mode selects the envelope strategy.
type Mode string

const (
	// ModeAEAD authenticates and encrypts the payload with AES-256-GCM.
	ModeAEAD Mode = "aead"
	// ModeSigned leaves the payload readable and appends an HMAC.
	ModeSigned Mode = "signed"
)

// signedSeparator splits base64(payload) from base64(mac) in signed mode.
const signedSeparator = " "

const aeadKeySize = 32

// Config configures a [Codec].
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Mode    Mode
	Secret  []byte
	Purpose string
}

// Codec is the stateless Encode/Decode pair for cookie envelopes. It is safe
// for concurrent use.
type Codec struct {
	mode   Mode
	aead   cipher.AEAD
	signer *signer.Signer
}

// New derives the per-purpose key material once and returns a ready codec.
func New(cfg Config) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("envelope: empty secret")
	}
	if cfg.Purpose == "" {
		return nil, errors.New("envelope: empty purpose")
	}

	switch cfg.Mode {
	case ModeAEAD:
		key := make([]byte, aeadKeySize)
		kdf := hkdf.New(sha256.New, cfg.Secret, nil, []byte(cfg.Purpose+"/aead"))
		if _, err := io.ReadFull(kdf, key); err != nil {
			return nil, err
		}
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		aead, err := cipher.NewGCM(block)
		if err != nil {
			return nil, err
		}
		return &Codec{mode: ModeAEAD, aead: aead}, nil

	case ModeSigned:
		s, err := signer.New(cfg.Secret, cfg.Purpose+"/mac")
		if err != nil {
			return nil, err
		}
		return &Codec{mode: ModeSigned, signer: s}, nil

	default:
		return nil, fmt.Errorf("envelope: unknown mode %q", cfg.Mode)
	}
}

// Mode reports the configured envelope strategy.
func (c *Codec) Mode() Mode {
	return c.mode
}

// Encode serializes the token and wraps it in the configured envelope.
func (c *Codec) Encode(t *session.Token) (string, error) {
	payload, err := encodeToken(t)
	if err != nil {
		return "", err
	}

	switch c.mode {
	case ModeAEAD:
		nonce := make([]byte, c.aead.NonceSize())
		if _, err := rand.Read(nonce); err != nil {
			return "", err
		}
		sealed := c.aead.Seal(nonce, nonce, payload, nil)
		return base64.RawURLEncoding.EncodeToString(sealed), nil

	case ModeSigned:
		mac := c.signer.Sign(payload)
		return base64.RawURLEncoding.EncodeToString(payload) +
			signedSeparator +
			base64.RawURLEncoding.EncodeToString(mac), nil

	default:
		return "", fmt.Errorf("envelope: unknown mode %q", c.mode)
	}
}

// Decode reverses Encode. It fails with [ErrInvalidEnvelope] on structural
// problems, [ErrAuthenticationFailed] when the MAC or decryption check fails,
// and [ErrEmptyPayload] when authentication succeeds but yields no token.
func (c *Codec) Decode(envelope string) (*session.Token, error) {
	switch c.mode {
	case ModeAEAD:
		sealed, err := base64.RawURLEncoding.DecodeString(envelope)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
		}
		if len(sealed) < c.aead.NonceSize() {
			return nil, ErrInvalidEnvelope
		}
		nonce, ciphertext := sealed[:c.aead.NonceSize()], sealed[c.aead.NonceSize():]
		payload, err := c.aead.Open(nil, nonce, ciphertext, nil)
		if err != nil {
			return nil, ErrAuthenticationFailed
		}
		return c.decodePayload(payload)

	case ModeSigned:
		parts := strings.Split(envelope, signedSeparator)
		if len(parts) != 2 {
			return nil, ErrInvalidEnvelope
		}
		payload, err := base64.RawURLEncoding.DecodeString(parts[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
		}
		mac, err := base64.RawURLEncoding.DecodeString(parts[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
		}
		if !c.signer.Verify(payload, mac) {
			return nil, ErrAuthenticationFailed
		}
		return c.decodePayload(payload)

	default:
		return nil, fmt.Errorf("envelope: unknown mode %q", c.mode)
	}
}

func (c *Codec) decodePayload(payload []byte) (*session.Token, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}
	t, err := decodeToken(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return t, nil
}
