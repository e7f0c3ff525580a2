package security

import (
	"net/http"
	"strings"
	"time"
)

const (
	AccessCookieName  = "access_token"
	RefreshCookieName = "refresh_token"
	CSRFCookieName    = "csrf_token"

	// Renewal secrets are only ever presented to the auth endpoints, so the
	// cookie is scoped down to that path.
	refreshCookiePath = "/api/v1/auth"
)

type CookieManager struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

func NewCookieManager(domain string, secure bool, sameSite string) *CookieManager {
	return &CookieManager{Domain: domain, Secure: secure, SameSite: parseSameSite(sameSite)}
}

func (m *CookieManager) SetTokenCookies(w http.ResponseWriter, access, refresh, csrf string, accessTTL, refreshTTL time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name: AccessCookieName, Value: access, Path: "/",
		HttpOnly: true, Secure: m.Secure, SameSite: m.SameSite, Domain: m.Domain,
		MaxAge: int(accessTTL.Seconds()),
	})
	http.SetCookie(w, &http.Cookie{
		Name: RefreshCookieName, Value: refresh, Path: refreshCookiePath,
		HttpOnly: true, Secure: m.Secure, SameSite: m.SameSite, Domain: m.Domain,
		MaxAge: int(refreshTTL.Seconds()),
	})
	// The CSRF cookie must be readable by the frontend so it can mirror the
	// value into the X-CSRF-Token header.
	http.SetCookie(w, &http.Cookie{
		Name: CSRFCookieName, Value: csrf, Path: "/",
		HttpOnly: false, Secure: m.Secure, SameSite: m.SameSite, Domain: m.Domain,
		MaxAge: int(refreshTTL.Seconds()),
	})
}

func (m *CookieManager) SetCSRFCookie(w http.ResponseWriter, csrf string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name: CSRFCookieName, Value: csrf, Path: "/",
		HttpOnly: false, Secure: m.Secure, SameSite: m.SameSite, Domain: m.Domain,
		MaxAge: int(ttl.Seconds()),
	})
}

func (m *CookieManager) ClearTokenCookies(w http.ResponseWriter) {
	clear := func(name, path string, httpOnly bool) {
		http.SetCookie(w, &http.Cookie{
			Name: name, Value: "", Path: path,
			HttpOnly: httpOnly, Secure: m.Secure, SameSite: m.SameSite, Domain: m.Domain,
			MaxAge: -1,
		})
	}
	clear(AccessCookieName, "/", true)
	clear(RefreshCookieName, refreshCookiePath, true)
	clear(CSRFCookieName, "/", false)
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
