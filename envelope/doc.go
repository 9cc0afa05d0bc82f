// Package envelope turns a session token into an opaque, tamper-evident
// cookie string and back.
//
// # Wire format
//
// The token is first serialized to a canonical binary form (version byte,
// length-prefixed strings, big-endian integers). The codec then applies one of
// two strategies:
//
//   - ModeAEAD (default): AES-256-GCM over the payload with an HKDF-derived
//     per-purpose key; the cookie value is base64url(nonce || ciphertext).
//   - ModeSigned: the cookie value is base64url(payload) SPACE base64url(mac),
//     where the MAC comes from the signer package.
//
// # Architecture boundaries
//
// This package owns token serialization and the cryptographic envelope. It
// never touches cookies, headers, or the store. Decode failures are sentinel
// errors; the handler downgrades all of them to "no session" so the envelope
// format cannot be probed through error responses.
package envelope
