package sessiongate

import (
	"net/http"
	"time"

	"github.com/MrEthical07/sessiongate/internal/audit"
	"github.com/MrEthical07/sessiongate/internal/flows"
	"github.com/MrEthical07/sessiongate/internal/metrics"
)

// Handler is the per-request session authority: it reads, validates,
// refreshes, and writes session state for exactly one request/response pair.
// It holds no state beyond the bound request and is discarded afterwards.
// Not safe for concurrent use.
type Handler struct {
	gate   *Gate
	w      http.ResponseWriter
	r      *http.Request
	device string
	ip     string
}

// Device returns the normalized device fingerprint for this request.
func (h *Handler) Device() string { return h.device }

// ClientIP returns the client IP resolved for this request.
func (h *Handler) ClientIP() string { return h.ip }

// GetToken returns the request's session token, refreshing it when stale.
//
// An absent cookie returns (nil, nil). A cookie that fails to decode is
// cleared and also returns (nil, nil): cryptographic failures must never be
// distinguishable from a missing session. Origin and precondition violations
// return their specific error kinds ([ErrBadRequest], [ErrForbidden],
// [ErrUserRequired], [ErrUserChanged]) because they indicate a malformed
// request rather than an expired session.
//
//	Performance: no store round-trip unless the token is stale or
//	ForceRefresh is set.
//	Docs: docs/refresh.md
func (h *Handler) GetToken(opts AccessOptions) (*Token, error) {
	if err := h.checkOrigin(opts); err != nil {
		return nil, err
	}

	cookie, err := h.r.Cookie(h.gate.config.Cookie.Name)
	if err != nil {
		// Absence of the cookie is "not signed in", never an error.
		return nil, nil
	}

	tok, err := h.gate.codec.Decode(cookie.Value)
	if err != nil {
		h.ClearToken()
		h.gate.metrics.Inc(metrics.MetricTokenDecodeFailure)
		h.gate.emit(h.r.Context(), AuditEvent{
			EventType: audit.EventEnvelopeInvalid,
			IP:        h.ip,
			Device:    h.device,
		})
		return nil, nil
	}

	if err := h.checkPrecondition(opts, tok); err != nil {
		return nil, err
	}

	if !opts.ForceRefresh && !tok.Stale(time.Now().UTC()) {
		return tok, nil
	}

	return h.refresh(tok)
}

// GetRequiredToken is [Handler.GetToken] but an absent or unrefreshable
// session fails with [ErrUnauthorized] instead of returning nil.
func (h *Handler) GetRequiredToken(opts AccessOptions) (*Token, error) {
	tok, err := h.GetToken(opts)
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, ErrUnauthorized
	}
	return tok, nil
}

// SignIn builds a [SignInInfo] from the request's device/IP and the
// configured expiry, invokes mint to create the token/record pair, and sets
// the response cookie. Credential verification happens before this call, in
// the caller.
func (h *Handler) SignIn(persistent bool, mint MintFunc) (*Token, error) {
	expiry := h.gate.config.Session.TemporaryExpiry
	if persistent {
		expiry = h.gate.config.Session.PersistentExpiry
	}

	info := SignInInfo{
		Device:        h.device,
		IPAddress:     h.ip,
		SessionExpiry: expiry,
		Persistent:    persistent,
	}

	tok, err := mint(h.r.Context(), info)
	if err != nil {
		return nil, err
	}

	if err := h.SetToken(tok); err != nil {
		return nil, err
	}

	h.gate.metrics.Inc(metrics.MetricSignIn)
	h.gate.emit(h.r.Context(), AuditEvent{
		EventType:  audit.EventSignIn,
		SessionID:  tok.SessionID,
		UserID:     tok.UserID,
		IP:         h.ip,
		Device:     h.device,
		Generation: tok.Generation,
		Success:    true,
	})

	return tok, nil
}

// SignOut invalidates the server-side record for the presented token, if one
// decodes, and always clears the cookie. A missing or undecodable cookie is a
// no-op.
func (h *Handler) SignOut() error {
	defer h.ClearToken()

	cookie, err := h.r.Cookie(h.gate.config.Cookie.Name)
	if err != nil {
		return nil
	}
	tok, err := h.gate.codec.Decode(cookie.Value)
	if err != nil {
		return nil
	}

	if err := h.gate.store.Invalidate(h.r.Context(), tok); err != nil {
		return err
	}

	h.gate.metrics.Inc(metrics.MetricSignOut)
	h.gate.emit(h.r.Context(), AuditEvent{
		EventType:  audit.EventSignOut,
		SessionID:  tok.SessionID,
		UserID:     tok.UserID,
		IP:         h.ip,
		Device:     h.device,
		Generation: tok.Generation,
		Success:    true,
	})

	return nil
}

// SetToken encodes the token and sets the response cookie.
func (h *Handler) SetToken(tok *Token) error {
	value, err := h.gate.codec.Encode(tok)
	if err != nil {
		return err
	}
	h.setCookie(value, tok)
	h.gate.metrics.Inc(metrics.MetricTokenIssued)
	return nil
}

// ClearToken deletes the response cookie.
func (h *Handler) ClearToken() {
	h.clearCookie()
}

// checkOrigin gates access on the request's declared origin. More than one
// Origin header is always malformed, even with AllowAllOrigins.
func (h *Handler) checkOrigin(opts AccessOptions) error {
	origins := h.r.Header.Values("Origin")
	if len(origins) > 1 {
		return ErrBadRequest
	}
	if opts.AllowAllOrigins || len(origins) == 0 {
		return nil
	}

	if !h.gate.origins.IsAllowed(origins[0]) {
		h.gate.metrics.Inc(metrics.MetricOriginRejected)
		h.gate.emit(h.r.Context(), AuditEvent{
			EventType: audit.EventOriginRejected,
			IP:        h.ip,
			Device:    h.device,
			Detail:    origins[0],
		})
		return ErrForbidden
	}
	return nil
}

// checkPrecondition validates the client's expected-user header against the
// token. The header is a staleness check for clients that may have switched
// accounts in another tab.
func (h *Handler) checkPrecondition(opts AccessOptions, tok *Token) error {
	values := h.r.Header.Values(h.gate.config.Cookie.PreconditionHeader)
	switch {
	case len(values) > 1:
		return ErrBadRequest
	case len(values) == 0:
		if opts.OptionalUserPrecondition {
			return nil
		}
		return ErrUserRequired
	case values[0] != tok.UserID:
		h.gate.metrics.Inc(metrics.MetricPreconditionFailed)
		return ErrUserChanged
	}
	return nil
}

// refresh runs the generation protocol and applies its outcome to the
// response: a new cookie on success, a cleared cookie on any failure.
func (h *Handler) refresh(tok *Token) (*Token, error) {
	cfg := h.gate.config
	result := flows.RunRefresh(h.r.Context(), tok, flows.RefreshDeps{
		Now:              func() time.Time { return time.Now().UTC() },
		Grace:            cfg.Refresh.Grace,
		MatchDevice:      cfg.Refresh.MatchDevice,
		MatchIP:          cfg.Refresh.MatchIP,
		Device:           h.device,
		IPAddress:        h.ip,
		RefreshAfter:     cfg.Session.RefreshAfter,
		PersistentExpiry: cfg.Session.PersistentExpiry,
		TemporaryExpiry:  cfg.Session.TemporaryExpiry,
		Store:            h.gate.store,
	})

	if result.Token == nil {
		h.recordRefreshFailure(tok, result)
		h.ClearToken()
		return nil, nil
	}

	// The response cookie write is the last observable effect. An aborted
	// request must not see a partial mutation, so re-check cancellation
	// before touching the response.
	if err := h.r.Context().Err(); err != nil {
		return nil, err
	}

	if err := h.SetToken(result.Token); err != nil {
		h.ClearToken()
		return nil, nil
	}

	h.gate.metrics.Inc(metrics.MetricRefreshSuccess)
	if result.GraceAccepted {
		h.gate.metrics.Inc(metrics.MetricRefreshGraceAccept)
	}
	h.gate.emit(h.r.Context(), AuditEvent{
		EventType:  audit.EventRefresh,
		SessionID:  result.Token.SessionID,
		UserID:     result.Token.UserID,
		IP:         h.ip,
		Device:     h.device,
		Generation: result.Token.Generation,
		Success:    true,
	})

	return result.Token, nil
}

func (h *Handler) recordRefreshFailure(tok *Token, result flows.RefreshResult) {
	h.gate.metrics.Inc(metrics.MetricRefreshFailure)

	eventType := audit.EventRefreshRejected
	switch result.Failure {
	case flows.RefreshFailureReplay:
		h.gate.metrics.Inc(metrics.MetricReplayDetected)
		eventType = audit.EventReplayRejected
	case flows.RefreshFailureDeviceMismatch:
		h.gate.metrics.Inc(metrics.MetricDeviceMismatch)
		eventType = audit.EventDeviceMismatch
	case flows.RefreshFailureIPMismatch:
		h.gate.metrics.Inc(metrics.MetricIPMismatch)
	}
	if result.Failure.Invalidated() {
		h.gate.metrics.Inc(metrics.MetricSessionInvalidated)
	}

	detail := ""
	if result.Err != nil {
		detail = result.Err.Error()
	}
	h.gate.emit(h.r.Context(), AuditEvent{
		EventType:  eventType,
		SessionID:  tok.SessionID,
		UserID:     tok.UserID,
		IP:         h.ip,
		Device:     h.device,
		Generation: tok.Generation,
		Detail:     detail,
	})
}
