package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agora-forum/agora/internal/domain"
	"github.com/agora-forum/agora/internal/http/response"
	"github.com/agora-forum/agora/internal/observability"
	"github.com/agora-forum/agora/internal/security"
	"github.com/agora-forum/agora/internal/service"
)

const maxAvatarUploadBytes = 5 << 20

type UserHandler struct {
	userSvc   service.UserServiceInterface
	storage   service.ObjectStorage
	cookieMgr *security.CookieManager
}

func NewUserHandler(userSvc service.UserServiceInterface, storage service.ObjectStorage, cookieMgr *security.CookieManager) *UserHandler {
	return &UserHandler{userSvc: userSvc, storage: storage, cookieMgr: cookieMgr}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Nickname string `json:"nickname"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	u, err := h.userSvc.Register(r.Context(), body.Email, body.Nickname, body.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	observability.Audit(r, "user.register.success", "user_id", u.ID)
	response.JSON(w, r, http.StatusCreated, u)
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := actorID(w, r)
	if !ok {
		return
	}
	u, err := h.userSvc.GetByID(id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, h.withAvatarURL(r, u))
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := actorID(w, r)
	if !ok {
		return
	}
	var patch service.ProfilePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	u, err := h.userSvc.UpdateProfile(r.Context(), id, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	observability.Audit(r, "user.profile.updated", "user_id", id)
	response.JSON(w, r, http.StatusOK, h.withAvatarURL(r, u))
}

func (h *UserHandler) ChangeEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := actorID(w, r)
	if !ok {
		return
	}
	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	u, err := h.userSvc.ChangeEmail(r.Context(), id, body.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	observability.Audit(r, "user.email.changed", "user_id", id)
	response.JSON(w, r, http.StatusOK, u)
}

// ChangePassword revokes every refresh credential, so the client must
// log in again; the handler clears the session cookies to match.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := actorID(w, r)
	if !ok {
		return
	}
	var body struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	if err := h.userSvc.ChangePassword(r.Context(), id, body.CurrentPassword, body.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.cookieMgr.ClearTokenCookies(w)
	observability.Audit(r, "user.password.changed", "user_id", id)
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "password_changed"})
}

func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	id, ok := actorID(w, r)
	if !ok {
		return
	}
	var body struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	if err := h.userSvc.Withdraw(r.Context(), id, body.Password); err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.cookieMgr.ClearTokenCookies(w)
	observability.Audit(r, "user.withdraw.success", "user_id", id)
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "withdrawn"})
}

func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	id, ok := actorID(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxAvatarUploadBytes); err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", "invalid multipart payload", nil)
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", "avatar file is required", nil)
		return
	}
	defer file.Close()

	key, err := h.storage.UploadAvatar(r.Context(), id, file, header.Size)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFileTooBig), errors.Is(err, service.ErrInvalidFileType):
			response.Error(w, r, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "IO_ERROR", "avatar upload failed", nil)
		}
		return
	}

	u, err := h.userSvc.UpdateProfile(r.Context(), id, service.ProfilePatch{ProfileImageURL: &key})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	observability.Audit(r, "user.avatar.uploaded", "user_id", id, "object_key", key)
	response.JSON(w, r, http.StatusOK, h.withAvatarURL(r, u))
}

func (h *UserHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	id, ok := actorID(w, r)
	if !ok {
		return
	}
	u, err := h.userSvc.GetByID(id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if u.ProfileImageURL == "" {
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "no avatar to delete", nil)
		return
	}

	if err := h.storage.DeleteAvatar(r.Context(), id, u.ProfileImageURL); err != nil {
		if errors.Is(err, service.ErrUnauthorizedAccess) {
			response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "not allowed", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "IO_ERROR", "avatar delete failed", nil)
		return
	}

	empty := ""
	if _, err := h.userSvc.UpdateProfile(r.Context(), id, service.ProfilePatch{ProfileImageURL: &empty}); err != nil {
		writeServiceError(w, r, err)
		return
	}

	observability.Audit(r, "user.avatar.deleted", "user_id", id)
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "avatar_deleted"})
}

// withAvatarURL swaps the stored object key for a short-lived presigned
// URL in the response copy. Failures fall back to the bare key.
func (h *UserHandler) withAvatarURL(r *http.Request, u *domain.User) *domain.User {
	if u == nil || u.ProfileImageURL == "" || h.storage == nil {
		return u
	}
	out := *u
	if url, err := h.storage.AvatarURL(r.Context(), u.ProfileImageURL); err == nil {
		out.ProfileImageURL = url
	}
	return &out
}
