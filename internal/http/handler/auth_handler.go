package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/agora-forum/agora/internal/http/middleware"
	"github.com/agora-forum/agora/internal/http/response"
	"github.com/agora-forum/agora/internal/observability"
	"github.com/agora-forum/agora/internal/security"
	"github.com/agora-forum/agora/internal/service"
)

type AuthHandler struct {
	authSvc    service.AuthServiceInterface
	cookieMgr  *security.CookieManager
	resolver   *middleware.ClientIPResolver
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthHandler(authSvc service.AuthServiceInterface, cookieMgr *security.CookieManager, resolver *middleware.ClientIPResolver, accessTTL, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, cookieMgr: cookieMgr, resolver: resolver, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "login", status, time.Since(start))
	}()

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	result, err := h.authSvc.Login(r.Context(), body.Email, body.Password, r.UserAgent(), h.resolver.Resolve(r))
	if err != nil {
		status = "failure"
		observability.Audit(r, "auth.login.failed", "reason", "invalid_credentials")
		writeServiceError(w, r, err)
		return
	}

	h.cookieMgr.SetTokenCookies(w, result.AccessToken, result.RefreshToken, result.CSRFToken, h.accessTTL, h.refreshTTL)
	observability.Audit(r, "auth.login.success", "user_id", result.User.ID)
	response.JSON(w, r, http.StatusOK, result)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "refresh", status, time.Since(start))
	}()

	refresh := security.GetCookie(r, security.RefreshCookieName)
	if refresh == "" {
		status = "failure"
		observability.Audit(r, "auth.refresh.failed", "reason", "missing_refresh_cookie")
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "missing refresh credential", nil)
		return
	}

	result, err := h.authSvc.Refresh(r.Context(), refresh, r.UserAgent(), h.resolver.Resolve(r))
	if err != nil {
		status = "failure"
		observability.Audit(r, "auth.refresh.failed", "reason", "invalid_refresh")
		h.cookieMgr.ClearTokenCookies(w)
		writeServiceError(w, r, err)
		return
	}

	h.cookieMgr.SetTokenCookies(w, result.AccessToken, result.RefreshToken, result.CSRFToken, h.accessTTL, h.refreshTTL)
	observability.Audit(r, "auth.refresh.success", "user_id", result.User.ID)
	response.JSON(w, r, http.StatusOK, result)
}

// Logout revokes the presented refresh credential only. Other devices
// keep their sessions; a missing cookie still clears local state.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "logout", status, time.Since(start))
	}()

	refresh := security.GetCookie(r, security.RefreshCookieName)
	if err := h.authSvc.Logout(r.Context(), refresh); err != nil {
		status = "failure"
		observability.Audit(r, "auth.logout.failed", "reason", "revoke_error")
		response.Error(w, r, http.StatusInternalServerError, "IO_ERROR", "logout failed", nil)
		return
	}

	h.cookieMgr.ClearTokenCookies(w)
	observability.Audit(r, "auth.logout.success")
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "logged_out"})
}
