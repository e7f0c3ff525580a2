package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/agora-forum/agora/internal/http/middleware"
	"github.com/agora-forum/agora/internal/http/response"
	"github.com/agora-forum/agora/internal/repository"
	"github.com/agora-forum/agora/internal/service"
)

func actorID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required", nil)
		return 0, false
	}
	return id, true
}

func parsePathID(input string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(input), 10, 64)
	if err != nil || n == 0 {
		return 0, errors.New("id must be a positive integer")
	}
	return uint(n), nil
}

func parsePageRequest(r *http.Request) (repository.PageRequest, error) {
	page := repository.DefaultPage
	pageSize := repository.DefaultPageSize
	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return repository.PageRequest{}, errors.New("page must be a positive integer")
		}
		page = v
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("page_size")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return repository.PageRequest{}, errors.New("page_size must be a positive integer")
		}
		if v > repository.MaxPageSize {
			return repository.PageRequest{}, fmt.Errorf("page_size must be <= %d", repository.MaxPageSize)
		}
		pageSize = v
	}
	return repository.PageRequest{Page: page, PageSize: pageSize}, nil
}

func paginatedData[T any](res *repository.PageResult[T]) map[string]any {
	return map[string]any{
		"items": res.Items,
		"pagination": map[string]any{
			"page":        res.Page,
			"page_size":   res.PageSize,
			"total":       res.Total,
			"total_pages": res.TotalPages,
		},
	}
}

// writeServiceError maps service sentinels onto the wire error taxonomy.
// Anything unmapped is reported as IO_ERROR without leaking internals.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "invalid credentials", nil)
	case errors.Is(err, service.ErrForbidden):
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "not allowed", nil)
	case errors.Is(err, service.ErrNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrNicknameTaken):
		response.Error(w, r, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrPostInvalidTitle),
		errors.Is(err, service.ErrPostInvalidBody),
		errors.Is(err, service.ErrCommentInvalidBody):
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	default:
		response.Error(w, r, http.StatusInternalServerError, "IO_ERROR", "request failed", nil)
	}
}
