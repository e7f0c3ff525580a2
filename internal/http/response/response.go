// Package response centralizes JSON rendering so every handler and
// middleware emits the same envelope shape.
package response

import (
	"encoding/json"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// ErrorBody is the uniform error envelope. Code carries a stable
// machine-readable identifier; Message is safe to show to end users.
type ErrorBody struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

type errorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// JSON writes payload with the given status. A nil payload writes only the
// status line and headers.
func JSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	// The status line is already committed, so an encode failure can only be
	// logged upstream; closing the body mid-stream signals it to the client.
	_ = json.NewEncoder(w).Encode(payload)
}

// Error writes the uniform error envelope. Details is optional and should
// never carry secrets; it surfaces field-level validation context.
func Error(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]any) {
	body := ErrorBody{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: chimiddleware.GetReqID(r.Context()),
	}
	JSON(w, r, status, errorEnvelope{Error: body})
}
