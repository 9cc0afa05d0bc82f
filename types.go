package sessiongate

import (
	"context"
	"io"

	"github.com/MrEthical07/sessiongate/envelope"
	"github.com/MrEthical07/sessiongate/internal/audit"
	"github.com/MrEthical07/sessiongate/internal/metrics"
	"github.com/MrEthical07/sessiongate/session"
)

// Token is the client-visible session state carried in the cookie envelope.
type Token = session.Token

// Record is the server-side session record.
type Record = session.Record

// SignInInfo is the immutable value handed to the minting collaborator at
// sign-in time.
type SignInInfo = session.SignInInfo

// Store is the session store contract consumed by the gate.
type Store = session.Store

// EnvelopeMode selects the cookie envelope strategy.
type EnvelopeMode = envelope.Mode

const (
	// EnvelopeAEAD is an exported constant or variable used by the session gate.
	EnvelopeAEAD = envelope.ModeAEAD
	// EnvelopeSigned is an exported constant or variable used by the session gate.
	EnvelopeSigned = envelope.ModeSigned
)

// AccessOptions defines a public type used by sessiongate APIs.
//
// AccessOptions instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AccessOptions struct {
	// AllowAllOrigins skips the trusted-origin check. A request carrying more
	// than one Origin header is still rejected as malformed.
	AllowAllOrigins bool

	// OptionalUserPrecondition makes an absent precondition header
	// acceptable. A present header must still match the token's user ID.
	OptionalUserPrecondition bool

	// ForceRefresh runs the refresh protocol even when the token is fresh.
	ForceRefresh bool
}

// MintFunc produces the first token/record pair for a fresh sign-in. It is
// supplied by the caller so the gate stays agnostic of user verification.
type MintFunc func(ctx context.Context, info SignInInfo) (*Token, error)

// AuditEvent is the canonical audit record model.
type AuditEvent = audit.Event

// AuditSink receives emitted audit events.
type AuditSink = audit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = audit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = audit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes one JSON-encoded event per
// line to an [io.Writer].
type JSONWriterSink = audit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// Audit event types emitted by the gate.
const (
	AuditSignIn          = audit.EventSignIn
	AuditSignOut         = audit.EventSignOut
	AuditRefresh         = audit.EventRefresh
	AuditRefreshRejected = audit.EventRefreshRejected
	AuditReplayRejected  = audit.EventReplayRejected
	AuditDeviceMismatch  = audit.EventDeviceMismatch
	AuditOriginRejected  = audit.EventOriginRejected
	AuditEnvelopeInvalid = audit.EventEnvelopeInvalid
)

// MetricID identifies an in-process counter slot.
type MetricID = metrics.MetricID

// MetricsSnapshot is a point-in-time deep copy of all counters.
type MetricsSnapshot = metrics.Snapshot

// Counter slots maintained by the gate.
const (
	MetricTokenIssued        = metrics.MetricTokenIssued
	MetricTokenDecodeFailure = metrics.MetricTokenDecodeFailure
	MetricRefreshSuccess     = metrics.MetricRefreshSuccess
	MetricRefreshFailure     = metrics.MetricRefreshFailure
	MetricRefreshGraceAccept = metrics.MetricRefreshGraceAccept
	MetricReplayDetected     = metrics.MetricReplayDetected
	MetricDeviceMismatch     = metrics.MetricDeviceMismatch
	MetricIPMismatch         = metrics.MetricIPMismatch
	MetricOriginRejected     = metrics.MetricOriginRejected
	MetricPreconditionFailed = metrics.MetricPreconditionFailed
	MetricSignIn             = metrics.MetricSignIn
	MetricSignOut            = metrics.MetricSignOut
	MetricSessionInvalidated = metrics.MetricSessionInvalidated
)
