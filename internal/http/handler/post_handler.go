package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agora-forum/agora/internal/http/response"
	"github.com/agora-forum/agora/internal/observability"
	"github.com/agora-forum/agora/internal/service"
)

type PostHandler struct {
	svc service.PostServiceInterface
}

func NewPostHandler(svc service.PostServiceInterface) *PostHandler {
	return &PostHandler{svc: svc}
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := actorID(w, r)
	if !ok {
		return
	}
	var body struct {
		Title    string `json:"title"`
		Body     string `json:"body"`
		ImageURL string `json:"image_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	post, err := h.svc.Create(r.Context(), id, service.CreatePostInput{
		Title:    body.Title,
		Body:     body.Body,
		ImageURL: body.ImageURL,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	observability.Audit(r, "post.created", "post_id", post.ID, "author_id", id)
	response.JSON(w, r, http.StatusCreated, post)
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	pageReq, err := parsePageRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	res, err := h.svc.List(r.Context(), pageReq)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, paginatedData(res))
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	postID, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", "invalid post id", nil)
		return
	}

	post, err := h.svc.Get(r.Context(), postID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, post)
}

func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := actorID(w, r)
	if !ok {
		return
	}
	postID, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", "invalid post id", nil)
		return
	}
	var body struct {
		Title    *string `json:"title"`
		Body     *string `json:"body"`
		ImageURL *string `json:"image_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	post, err := h.svc.Update(r.Context(), id, postID, service.UpdatePostInput{
		Title:    body.Title,
		Body:     body.Body,
		ImageURL: body.ImageURL,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	observability.Audit(r, "post.updated", "post_id", postID, "author_id", id)
	response.JSON(w, r, http.StatusOK, post)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := actorID(w, r)
	if !ok {
		return
	}
	postID, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", "invalid post id", nil)
		return
	}

	if err := h.svc.Delete(r.Context(), id, postID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	observability.Audit(r, "post.deleted", "post_id", postID, "author_id", id)
	response.JSON(w, r, http.StatusOK, map[string]any{"deleted": true})
}

func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := actorID(w, r)
	if !ok {
		return
	}
	postID, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", "invalid post id", nil)
		return
	}
	var body struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	comment, err := h.svc.AddComment(r.Context(), id, postID, body.Body)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	observability.Audit(r, "comment.created", "post_id", postID, "comment_id", comment.ID)
	response.JSON(w, r, http.StatusCreated, comment)
}

func (h *PostHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	postID, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", "invalid post id", nil)
		return
	}

	comments, err := h.svc.ListComments(r.Context(), postID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"items": comments})
}

func (h *PostHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := actorID(w, r)
	if !ok {
		return
	}
	commentID, err := parsePathID(chi.URLParam(r, "commentID"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", "invalid comment id", nil)
		return
	}

	if err := h.svc.DeleteComment(r.Context(), id, commentID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	observability.Audit(r, "comment.deleted", "comment_id", commentID, "actor_id", id)
	response.JSON(w, r, http.StatusOK, map[string]any{"deleted": true})
}

func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	id, ok := actorID(w, r)
	if !ok {
		return
	}
	postID, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", "invalid post id", nil)
		return
	}

	liked, count, err := h.svc.ToggleLike(r.Context(), id, postID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"liked": liked, "like_count": count})
}
