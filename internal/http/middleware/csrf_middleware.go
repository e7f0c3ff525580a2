package middleware

import (
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/agora-forum/agora/internal/http/response"
	"github.com/agora-forum/agora/internal/observability"
	"github.com/agora-forum/agora/internal/security"
)

// CSRFGuard implements the double-submit check: the anti-forgery token
// arrives both as a cookie (set by us) and as a header (mirrored by the
// frontend). A cross-site request can force the cookie to be sent but
// cannot read it, so it cannot produce the matching header.
type CSRFGuard struct {
	cookies *security.CookieManager
	ttl     time.Duration
	exempt  map[string]struct{}
}

// NewCSRFGuard exempts the listed paths, which must be the pre-auth
// endpoints only: a client that has never authenticated has no cookie to
// mirror yet.
func NewCSRFGuard(cookies *security.CookieManager, ttl time.Duration, exemptPaths []string) *CSRFGuard {
	exempt := make(map[string]struct{}, len(exemptPaths))
	for _, p := range exemptPaths {
		exempt[path.Clean(p)] = struct{}{}
	}
	return &CSRFGuard{cookies: cookies, ttl: ttl, exempt: exempt}
}

func (g *CSRFGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		group := csrfPathGroup(r.URL.Path)

		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			// Safe verbs mint the cookie when absent, so the first
			// mutating request already has something to mirror.
			if security.GetCookie(r, security.CSRFCookieName) == "" {
				if token, err := security.NewCSRFToken(); err == nil {
					g.cookies.SetCSRFCookie(w, token, g.ttl)
				}
			}
			next.ServeHTTP(w, r)
			return
		}

		if _, ok := g.exempt[path.Clean(r.URL.Path)]; ok {
			next.ServeHTTP(w, r)
			return
		}

		cookie := security.GetCookie(r, security.CSRFCookieName)
		if cookie == "" {
			observability.RecordCSRFValidation(r.Context(), "missing_cookie", group)
			response.Error(w, r, http.StatusForbidden, "INTEGRITY_MISMATCH", "invalid csrf token", nil)
			return
		}
		header := r.Header.Get("X-CSRF-Token")
		if !security.ConstantTimeEquals(cookie, header) {
			observability.RecordCSRFValidation(r.Context(), "mismatch", group)
			response.Error(w, r, http.StatusForbidden, "INTEGRITY_MISMATCH", "invalid csrf token", nil)
			return
		}
		observability.RecordCSRFValidation(r.Context(), "valid", group)
		next.ServeHTTP(w, r)
	})
}

func csrfPathGroup(rawPath string) string {
	p := strings.Trim(path.Clean(rawPath), "/")
	if p == "" || p == "." {
		return "root"
	}
	parts := strings.Split(p, "/")
	if len(parts) >= 3 && parts[0] == "api" {
		return parts[0] + "/" + parts[2]
	}
	return parts[0]
}
