// Package signer provides the HMAC sign/verify primitive used by the envelope
// codec when it is configured to sign rather than encrypt.
//
// Keys are domain-separated: the configured secret is run through HKDF with
// the purpose string as info, once at construction. Two signers built from the
// same secret but different purposes produce unrelated MACs.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

const keySize = 32

// Signer computes and verifies HMAC-SHA256 MACs with a purpose-derived key.
//
// Signer instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Signer struct {
	key [keySize]byte
}

// New derives the signing key from secret and purpose. The secret must be
// non-empty; the purpose tag must identify the consumer (for example
// "sessiongate/cookie/v1") so that keys never collide across uses.
func New(secret []byte, purpose string) (*Signer, error) {
	if len(secret) == 0 {
		return nil, errors.New("signer: empty secret")
	}
	if purpose == "" {
		return nil, errors.New("signer: empty purpose")
	}

	s := &Signer{}
	kdf := hkdf.New(sha256.New, secret, nil, []byte(purpose))
	if _, err := io.ReadFull(kdf, s.key[:]); err != nil {
		return nil, err
	}
	return s, nil
}

// Sign returns the MAC over data.
func (s *Signer) Sign(data []byte) []byte {
	mac := hmac.New(sha256.New, s.key[:])
	mac.Write(data)
	return mac.Sum(nil)
}

// Verify recomputes the MAC over data and compares it to the supplied MAC in
// constant time. It never short-circuits on the first differing byte.
func (s *Signer) Verify(data, mac []byte) bool {
	return hmac.Equal(s.Sign(data), mac)
}
