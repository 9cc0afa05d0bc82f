package sessiongate

import (
	"net/http"
	"time"
)

// setCookie writes the encoded envelope with the session security attributes:
// HttpOnly, Secure, SameSite=None so credentialed cross-origin API calls can
// carry it. Max-Age/Expires are set only for persistent sessions; temporary
// sessions stay session-scoped.
func (h *Handler) setCookie(value string, tok *Token) {
	cookie := &http.Cookie{
		Name:     h.gate.config.Cookie.Name,
		Value:    value,
		Path:     h.gate.config.Cookie.Path,
		Domain:   h.gate.config.Cookie.Domain,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
	if cookie.Path == "" {
		cookie.Path = "/"
	}

	if tok.Persistent {
		expires := tok.RefreshedUTC.Add(tok.ValidFor)
		remaining := time.Until(expires)
		if remaining < 0 {
			remaining = 0
		}
		maxAge := int(remaining / time.Second)
		// Sub-second remainders round up: Max-Age 0 would demote the cookie
		// to session scope.
		if remaining > 0 && remaining%time.Second != 0 {
			maxAge++
		}
		cookie.MaxAge = maxAge
		cookie.Expires = expires
	}

	http.SetCookie(h.w, cookie)
}

// clearCookie deletes the session cookie with the same scoping attributes it
// was set with, so the browser matches and removes it.
func (h *Handler) clearCookie() {
	cookie := &http.Cookie{
		Name:     h.gate.config.Cookie.Name,
		Value:    "",
		Path:     h.gate.config.Cookie.Path,
		Domain:   h.gate.config.Cookie.Domain,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	}
	if cookie.Path == "" {
		cookie.Path = "/"
	}
	http.SetCookie(h.w, cookie)
}
