package http

import (
	"net/http"
	"time"

	"github.com/neuralsys/fleetdesk/internal/auth/service"
	"github.com/neuralsys/fleetdesk/pkg/fleetsdk"
	"github.com/neuralsys/fleetdesk/pkg/jwtx"
)

// SessionCookies writes and reads the session cookie. The cookie value is a
// signed token whose sid claim keys the session store.
type SessionCookies struct {
	Signer *jwtx.HS256
	TTL    time.Duration
	Secure bool
}

// Issue sets the cookie for session sid.
func (c *SessionCookies) Issue(w http.ResponseWriter, sid, handle string) error {
	ttl := c.TTL
	if ttl <= 0 {
		ttl = service.DefaultSessionTTL
	}

	tok, err := c.Signer.Sign(sid, handle, ttl)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     fleetsdk.SessionCookieName,
		Value:    tok,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the cookie in the browser.
func (c *SessionCookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     fleetsdk.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionID returns the session id carried by the request, or "" when the
// cookie is missing or does not verify.
func (c *SessionCookies) SessionID(r *http.Request) string {
	cookie, err := r.Cookie(fleetsdk.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}

	claims, err := c.Signer.Verify(cookie.Value)
	if err != nil {
		return ""
	}
	return claims.SID
}
