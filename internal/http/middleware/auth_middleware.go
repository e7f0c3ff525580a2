package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/agora-forum/agora/internal/http/response"
	"github.com/agora-forum/agora/internal/observability"
	"github.com/agora-forum/agora/internal/security"
	"github.com/agora-forum/agora/internal/service"
)

type contextKey string

const userIDContextKey contextKey = "user_id"

// AuthMiddleware resolves the access grant from the cookie or the
// Authorization header and stores the subject id in the request context.
// Missing, malformed and expired grants all answer the same way.
func AuthMiddleware(validator service.CredentialValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := security.GetCookie(r, security.AccessCookieName)
			if raw == "" {
				auth := r.Header.Get("Authorization")
				if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
					raw = strings.TrimSpace(auth[7:])
				}
			}
			if raw == "" {
				observability.RecordAccessValidation(r.Context(), "missing")
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required", nil)
				return
			}
			userID, err := validator.ValidateAccess(raw)
			if err != nil {
				observability.RecordAccessValidation(r.Context(), "invalid")
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required", nil)
				return
			}
			observability.RecordAccessValidation(r.Context(), "valid")
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID returns a context carrying the authenticated subject id.
func WithUserID(ctx context.Context, id uint) context.Context {
	return context.WithValue(ctx, userIDContextKey, id)
}

func UserIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(userIDContextKey).(uint)
	return id, ok
}
