package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/agora-forum/agora/internal/domain"
	"github.com/agora-forum/agora/internal/repository"
	"github.com/agora-forum/agora/internal/service"
)

// postRouter mounts the handler under real chi routes so URL params
// resolve the same way they do in production.
func postRouter(h *PostHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/posts", h.List)
	r.Post("/posts", h.Create)
	r.Get("/posts/{id}", h.Get)
	r.Patch("/posts/{id}", h.Update)
	r.Delete("/posts/{id}", h.Delete)
	r.Post("/posts/{id}/comments", h.AddComment)
	r.Get("/posts/{id}/comments", h.ListComments)
	r.Delete("/comments/{commentID}", h.DeleteComment)
	r.Post("/posts/{id}/like", h.ToggleLike)
	return r
}

func TestCreatePostRequiresValidPayload(t *testing.T) {
	svc := &stubPostSvc{
		createFn: func(_ context.Context, authorID uint, input service.CreatePostInput) (*domain.Post, error) {
			if input.Title == "" {
				return nil, service.ErrPostInvalidTitle
			}
			return &domain.Post{ID: 1, AuthorID: authorID, Title: input.Title, Body: input.Body}, nil
		},
	}
	router := postRouter(NewPostHandler(svc))

	t.Run("success", func(t *testing.T) {
		req := authedRequest(httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(`{"title":"Hello","body":"First post"}`)), 7)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("missing title", func(t *testing.T) {
		req := authedRequest(httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(`{"body":"no title"}`)), 7)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
		if code := decodeErrorCode(t, rr); code != "VALIDATION" {
			t.Fatalf("expected VALIDATION, got %s", code)
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(`{"title":"x","body":"y"}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})
}

func TestListPostsPaginationParams(t *testing.T) {
	var gotReq repository.PageRequest
	svc := &stubPostSvc{
		listFn: func(_ context.Context, req repository.PageRequest) (*repository.PageResult[domain.Post], error) {
			gotReq = req
			return &repository.PageResult[domain.Post]{
				Items:      []domain.Post{{ID: 1}},
				Page:       req.Page,
				PageSize:   req.PageSize,
				Total:      1,
				TotalPages: 1,
			}, nil
		},
	}
	router := postRouter(NewPostHandler(svc))

	req := httptest.NewRequest(http.MethodGet, "/posts?page=2&page_size=10", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if gotReq.Page != 2 || gotReq.PageSize != 10 {
		t.Fatalf("page params not forwarded: %+v", gotReq)
	}
	var body struct {
		Pagination struct {
			Page int `json:"page"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Pagination.Page != 2 {
		t.Fatalf("pagination envelope missing: %s", rr.Body.String())
	}
}

func TestListPostsRejectsOversizePage(t *testing.T) {
	router := postRouter(NewPostHandler(&stubPostSvc{}))
	req := httptest.NewRequest(http.MethodGet, "/posts?page_size=500", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestGetPostMapsNotFound(t *testing.T) {
	svc := &stubPostSvc{
		getFn: func(context.Context, uint) (*domain.Post, error) {
			return nil, service.ErrNotFound
		},
	}
	router := postRouter(NewPostHandler(svc))

	req := httptest.NewRequest(http.MethodGet, "/posts/99", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestGetPostRejectsBadID(t *testing.T) {
	router := postRouter(NewPostHandler(&stubPostSvc{}))
	req := httptest.NewRequest(http.MethodGet, "/posts/abc", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestUpdatePostOwnershipMapsToForbidden(t *testing.T) {
	svc := &stubPostSvc{
		updateFn: func(context.Context, uint, uint, service.UpdatePostInput) (*domain.Post, error) {
			return nil, service.ErrForbidden
		},
	}
	router := postRouter(NewPostHandler(svc))

	req := authedRequest(httptest.NewRequest(http.MethodPatch, "/posts/1", strings.NewReader(`{"title":"hijack"}`)), 8)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	if code := decodeErrorCode(t, rr); code != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN, got %s", code)
	}
}

func TestToggleLikeReturnsStateAndCount(t *testing.T) {
	svc := &stubPostSvc{
		toggleLikeFn: func(_ context.Context, actorID, postID uint) (bool, int64, error) {
			if actorID != 7 || postID != 4 {
				t.Fatalf("unexpected args: %d %d", actorID, postID)
			}
			return true, 3, nil
		},
	}
	router := postRouter(NewPostHandler(svc))

	req := authedRequest(httptest.NewRequest(http.MethodPost, "/posts/4/like", nil), 7)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body struct {
		Liked     bool  `json:"liked"`
		LikeCount int64 `json:"like_count"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.Liked || body.LikeCount != 3 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestCommentLifecycleRoutes(t *testing.T) {
	svc := &stubPostSvc{
		addCommentFn: func(_ context.Context, authorID, postID uint, body string) (*domain.Comment, error) {
			return &domain.Comment{ID: 11, PostID: postID, AuthorID: authorID, Body: body}, nil
		},
		listCommentsFn: func(_ context.Context, postID uint) ([]domain.Comment, error) {
			return []domain.Comment{{ID: 11, PostID: postID}}, nil
		},
		delCommentFn: func(_ context.Context, actorID, commentID uint) error {
			if commentID != 11 {
				return service.ErrNotFound
			}
			return nil
		},
	}
	router := postRouter(NewPostHandler(svc))

	req := authedRequest(httptest.NewRequest(http.MethodPost, "/posts/4/comments", strings.NewReader(`{"body":"nice post"}`)), 7)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("add comment: expected 201, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/posts/4/comments", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"items"`) {
		t.Fatalf("list comments: %d %s", rr.Code, rr.Body.String())
	}

	req = authedRequest(httptest.NewRequest(http.MethodDelete, "/comments/11", nil), 7)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete comment: expected 200, got %d", rr.Code)
	}
}
