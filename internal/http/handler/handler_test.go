package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agora-forum/agora/internal/domain"
	"github.com/agora-forum/agora/internal/http/middleware"
	"github.com/agora-forum/agora/internal/repository"
	"github.com/agora-forum/agora/internal/security"
	"github.com/agora-forum/agora/internal/service"
)

type stubAuthSvc struct {
	loginFn   func(ctx context.Context, email, password, ua, ip string) (*service.LoginResult, error)
	refreshFn func(ctx context.Context, refreshToken, ua, ip string) (*service.LoginResult, error)
	logoutFn  func(ctx context.Context, refreshToken string) error
}

func (s *stubAuthSvc) Login(ctx context.Context, email, password, ua, ip string) (*service.LoginResult, error) {
	if s.loginFn != nil {
		return s.loginFn(ctx, email, password, ua, ip)
	}
	return nil, errors.New("not implemented")
}

func (s *stubAuthSvc) Refresh(ctx context.Context, refreshToken, ua, ip string) (*service.LoginResult, error) {
	if s.refreshFn != nil {
		return s.refreshFn(ctx, refreshToken, ua, ip)
	}
	return nil, errors.New("not implemented")
}

func (s *stubAuthSvc) Logout(ctx context.Context, refreshToken string) error {
	if s.logoutFn != nil {
		return s.logoutFn(ctx, refreshToken)
	}
	return nil
}

type stubUserSvc struct {
	getByIDFn        func(id uint) (*domain.User, error)
	registerFn       func(ctx context.Context, email, nickname, password string) (*domain.User, error)
	updateProfileFn  func(ctx context.Context, id uint, patch service.ProfilePatch) (*domain.User, error)
	changeEmailFn    func(ctx context.Context, id uint, newEmail string) (*domain.User, error)
	changePasswordFn func(ctx context.Context, id uint, currentPassword, newPassword string) error
	withdrawFn       func(ctx context.Context, id uint, password string) error
}

func (s *stubUserSvc) GetByID(id uint) (*domain.User, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(id)
	}
	return nil, errors.New("not implemented")
}

func (s *stubUserSvc) Register(ctx context.Context, email, nickname, password string) (*domain.User, error) {
	if s.registerFn != nil {
		return s.registerFn(ctx, email, nickname, password)
	}
	return nil, errors.New("not implemented")
}

func (s *stubUserSvc) UpdateProfile(ctx context.Context, id uint, patch service.ProfilePatch) (*domain.User, error) {
	if s.updateProfileFn != nil {
		return s.updateProfileFn(ctx, id, patch)
	}
	return nil, errors.New("not implemented")
}

func (s *stubUserSvc) ChangeEmail(ctx context.Context, id uint, newEmail string) (*domain.User, error) {
	if s.changeEmailFn != nil {
		return s.changeEmailFn(ctx, id, newEmail)
	}
	return nil, errors.New("not implemented")
}

func (s *stubUserSvc) ChangePassword(ctx context.Context, id uint, currentPassword, newPassword string) error {
	if s.changePasswordFn != nil {
		return s.changePasswordFn(ctx, id, currentPassword, newPassword)
	}
	return errors.New("not implemented")
}

func (s *stubUserSvc) Withdraw(ctx context.Context, id uint, password string) error {
	if s.withdrawFn != nil {
		return s.withdrawFn(ctx, id, password)
	}
	return errors.New("not implemented")
}

type stubPostSvc struct {
	createFn       func(ctx context.Context, authorID uint, input service.CreatePostInput) (*domain.Post, error)
	listFn         func(ctx context.Context, req repository.PageRequest) (*repository.PageResult[domain.Post], error)
	getFn          func(ctx context.Context, id uint) (*domain.Post, error)
	updateFn       func(ctx context.Context, actorID, id uint, input service.UpdatePostInput) (*domain.Post, error)
	deleteFn       func(ctx context.Context, actorID, id uint) error
	addCommentFn   func(ctx context.Context, authorID, postID uint, body string) (*domain.Comment, error)
	listCommentsFn func(ctx context.Context, postID uint) ([]domain.Comment, error)
	delCommentFn   func(ctx context.Context, actorID, commentID uint) error
	toggleLikeFn   func(ctx context.Context, actorID, postID uint) (bool, int64, error)
}

func (s *stubPostSvc) Create(ctx context.Context, authorID uint, input service.CreatePostInput) (*domain.Post, error) {
	if s.createFn != nil {
		return s.createFn(ctx, authorID, input)
	}
	return nil, errors.New("not implemented")
}

func (s *stubPostSvc) List(ctx context.Context, req repository.PageRequest) (*repository.PageResult[domain.Post], error) {
	if s.listFn != nil {
		return s.listFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (s *stubPostSvc) Get(ctx context.Context, id uint) (*domain.Post, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (s *stubPostSvc) Update(ctx context.Context, actorID, id uint, input service.UpdatePostInput) (*domain.Post, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, actorID, id, input)
	}
	return nil, errors.New("not implemented")
}

func (s *stubPostSvc) Delete(ctx context.Context, actorID, id uint) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, actorID, id)
	}
	return errors.New("not implemented")
}

func (s *stubPostSvc) AddComment(ctx context.Context, authorID, postID uint, body string) (*domain.Comment, error) {
	if s.addCommentFn != nil {
		return s.addCommentFn(ctx, authorID, postID, body)
	}
	return nil, errors.New("not implemented")
}

func (s *stubPostSvc) ListComments(ctx context.Context, postID uint) ([]domain.Comment, error) {
	if s.listCommentsFn != nil {
		return s.listCommentsFn(ctx, postID)
	}
	return nil, errors.New("not implemented")
}

func (s *stubPostSvc) DeleteComment(ctx context.Context, actorID, commentID uint) error {
	if s.delCommentFn != nil {
		return s.delCommentFn(ctx, actorID, commentID)
	}
	return errors.New("not implemented")
}

func (s *stubPostSvc) ToggleLike(ctx context.Context, actorID, postID uint) (bool, int64, error) {
	if s.toggleLikeFn != nil {
		return s.toggleLikeFn(ctx, actorID, postID)
	}
	return false, 0, errors.New("not implemented")
}

func authedRequest(r *http.Request, userID uint) *http.Request {
	return r.WithContext(middleware.WithUserID(r.Context(), userID))
}

func testCookieManager() *security.CookieManager {
	return security.NewCookieManager("", false, "lax")
}

func cookiesByName(rr *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := make(map[string]*http.Cookie)
	for _, c := range rr.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func decodeErrorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error.Code
}
