// Package bearer mints short-lived stateless access tokens from a validated
// session, for handing to downstream APIs that cannot read the session
// cookie. Verification never touches the session store; revocation rides on
// the short TTL.
package bearer

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrEthical07/sessiongate/session"
)

// SigningMethod selects the JWT signature algorithm.
type SigningMethod string

const (
	// MethodHS256 signs with an HMAC secret.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 signs with an Ed25519 private key.
	MethodEd25519 SigningMethod = "ed25519"
)

// ErrTokenInvalid is returned for any bearer token that fails parsing,
// signature, or time validation.
var ErrTokenInvalid = errors.New("invalid bearer token")

// Config defines a public type used by sessiongate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	TTL           time.Duration
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

// Claims carries the session identity into the bearer token.
type Claims struct {
	UID string `json:"uid"`
	SID string `json:"sid"`
	Gen uint32 `json:"gen"`
	jwt.RegisteredClaims
}

// Manager issues and verifies bearer tokens. Safe for concurrent use.
type Manager struct {
	config Config
	edPriv ed25519.PrivateKey
	edPub  ed25519.PublicKey
}

// NewManager validates the configuration once and returns a ready manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("bearer: invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("bearer: invalid leeway configuration")
	}

	m := &Manager{config: cfg}
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("bearer: hs256 requires private key")
		}
	case MethodEd25519:
		if len(cfg.PrivateKey) != ed25519.PrivateKeySize {
			return nil, errors.New("bearer: ed25519 requires a 64-byte private key")
		}
		m.edPriv = ed25519.PrivateKey(cfg.PrivateKey)
		if len(cfg.PublicKey) != 0 {
			if len(cfg.PublicKey) != ed25519.PublicKeySize {
				return nil, errors.New("bearer: ed25519 requires a 32-byte public key")
			}
			m.edPub = ed25519.PublicKey(cfg.PublicKey)
		} else {
			m.edPub = m.edPriv.Public().(ed25519.PublicKey)
		}
	default:
		return nil, fmt.Errorf("bearer: unknown signing method %q", cfg.SigningMethod)
	}

	return m, nil
}

// Issue mints a bearer token for the given session token.
func (m *Manager) Issue(tok *session.Token) (string, error) {
	if tok == nil || tok.SessionID == "" {
		return "", errors.New("bearer: missing session token")
	}

	now := time.Now()
	claims := Claims{
		UID: tok.UserID,
		SID: tok.SessionID,
		Gen: tok.Generation,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
		},
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	switch m.config.SigningMethod {
	case MethodHS256:
		return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.PrivateKey)
	case MethodEd25519:
		return jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(m.edPriv)
	default:
		return "", fmt.Errorf("bearer: unknown signing method %q", m.config.SigningMethod)
	}
}

// Verify parses and validates a bearer token and returns its claims.
func (m *Manager) Verify(raw string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithLeeway(m.config.Leeway),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if m.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(m.config.Audience))
	}
	switch m.config.SigningMethod {
	case MethodHS256:
		opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	case MethodEd25519:
		opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, m.keyFunc, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.SID == "" {
		return nil, fmt.Errorf("%w: missing session claim", ErrTokenInvalid)
	}
	return claims, nil
}

func (m *Manager) keyFunc(token *jwt.Token) (interface{}, error) {
	switch m.config.SigningMethod {
	case MethodHS256:
		return m.config.PrivateKey, nil
	case MethodEd25519:
		return m.edPub, nil
	default:
		return nil, fmt.Errorf("bearer: unknown signing method %q", m.config.SigningMethod)
	}
}
