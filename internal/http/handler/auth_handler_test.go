package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/agora-forum/agora/internal/domain"
	"github.com/agora-forum/agora/internal/http/middleware"
	"github.com/agora-forum/agora/internal/security"
	"github.com/agora-forum/agora/internal/service"
)

func newAuthHandlerForTest(svc *stubAuthSvc) *AuthHandler {
	return NewAuthHandler(svc, testCookieManager(), middleware.NewClientIPResolver(nil), 30*time.Minute, time.Hour)
}

func loginResultForTest() *service.LoginResult {
	return &service.LoginResult{
		User:         &domain.User{ID: 42, Email: "alice@example.com", Nickname: "alice"},
		AccessToken:  "access-jwt",
		RefreshToken: "refresh-jwt",
		CSRFToken:    "csrf-value",
		ExpiresAt:    time.Now().Add(30 * time.Minute),
	}
}

func TestLoginSetsCookiesAndOmitsTokensFromBody(t *testing.T) {
	svc := &stubAuthSvc{
		loginFn: func(_ context.Context, email, password, _, _ string) (*service.LoginResult, error) {
			if email != "alice@example.com" || password != "pw" {
				t.Fatalf("unexpected credentials forwarded: %s", email)
			}
			return loginResultForTest(), nil
		},
	}
	h := newAuthHandlerForTest(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"alice@example.com","password":"pw"}`))
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	cookies := cookiesByName(rr)
	if c := cookies[security.AccessCookieName]; c == nil || c.Value != "access-jwt" {
		t.Fatalf("access cookie not set: %+v", c)
	}
	if c := cookies[security.RefreshCookieName]; c == nil || c.Value != "refresh-jwt" {
		t.Fatalf("refresh cookie not set: %+v", c)
	}
	if c := cookies[security.CSRFCookieName]; c == nil || c.HttpOnly {
		t.Fatalf("csrf cookie must be readable by the client: %+v", c)
	}

	raw := rr.Body.String()
	if strings.Contains(raw, "access-jwt") || strings.Contains(raw, "refresh-jwt") {
		t.Fatal("token values must never appear in the response body")
	}
	var body struct {
		CSRFToken string `json:"csrf_token"`
		User      struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.CSRFToken != "csrf-value" || body.User.ID != 42 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestLoginFailureMapsToUnauthenticated(t *testing.T) {
	svc := &stubAuthSvc{
		loginFn: func(context.Context, string, string, string, string) (*service.LoginResult, error) {
			return nil, service.ErrInvalidCredentials
		},
	}
	h := newAuthHandlerForTest(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"a@b.c","password":"x"}`))
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if code := decodeErrorCode(t, rr); code != "UNAUTHENTICATED" {
		t.Fatalf("expected UNAUTHENTICATED, got %s", code)
	}
	if len(cookiesByName(rr)) != 0 {
		t.Fatal("no cookies on failed login")
	}
}

func TestLoginRejectsMalformedPayload(t *testing.T) {
	h := newAuthHandlerForTest(&stubAuthSvc{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	h.Login(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestRefreshRequiresCookie(t *testing.T) {
	h := newAuthHandlerForTest(&stubAuthSvc{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	rr := httptest.NewRecorder()
	h.Refresh(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRefreshRotatesCookies(t *testing.T) {
	svc := &stubAuthSvc{
		refreshFn: func(_ context.Context, token, _, _ string) (*service.LoginResult, error) {
			if token != "old-refresh" {
				t.Fatalf("expected cookie value forwarded, got %q", token)
			}
			res := loginResultForTest()
			res.RefreshToken = "new-refresh"
			return res, nil
		},
	}
	h := newAuthHandlerForTest(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: security.RefreshCookieName, Value: "old-refresh"})
	rr := httptest.NewRecorder()
	h.Refresh(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if c := cookiesByName(rr)[security.RefreshCookieName]; c == nil || c.Value != "new-refresh" {
		t.Fatalf("refresh cookie not rotated: %+v", c)
	}
}

func TestRefreshFailureClearsCookies(t *testing.T) {
	svc := &stubAuthSvc{
		refreshFn: func(context.Context, string, string, string) (*service.LoginResult, error) {
			return nil, service.ErrInvalidCredentials
		},
	}
	h := newAuthHandlerForTest(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: security.RefreshCookieName, Value: "replayed"})
	rr := httptest.NewRecorder()
	h.Refresh(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	for _, c := range rr.Result().Cookies() {
		if c.MaxAge != -1 {
			t.Fatalf("cookie %s should be expired, got MaxAge=%d", c.Name, c.MaxAge)
		}
	}
}

func TestLogoutRevokesAndClearsCookies(t *testing.T) {
	var revoked string
	svc := &stubAuthSvc{
		logoutFn: func(_ context.Context, token string) error {
			revoked = token
			return nil
		},
	}
	h := newAuthHandlerForTest(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: security.RefreshCookieName, Value: "current-refresh"})
	rr := httptest.NewRecorder()
	h.Logout(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if revoked != "current-refresh" {
		t.Fatalf("expected presented credential revoked, got %q", revoked)
	}
	cookies := cookiesByName(rr)
	for _, name := range []string{security.AccessCookieName, security.RefreshCookieName, security.CSRFCookieName} {
		c := cookies[name]
		if c == nil || c.MaxAge != -1 {
			t.Fatalf("cookie %s not cleared: %+v", name, c)
		}
	}
}
