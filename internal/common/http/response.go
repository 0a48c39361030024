package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	commonerrors "github.com/AlibekovAA/civic-reports-backend/internal/common/errors"
)

type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

func WriteErrorWithReason(w http.ResponseWriter, status int, message, reason string) {
	WriteJSON(w, status, ErrorResponse{Error: message, Reason: reason})
}

// WriteDomainError maps a service error to its HTTP shape. Anything that is not
// a DomainError is reported as a generic 500 so internals never leak.
func WriteDomainError(w http.ResponseWriter, err error) {
	if de, ok := commonerrors.AsDomainError(err); ok {
		WriteError(w, de.HTTPStatus(), de.Message())
		return
	}
	WriteError(w, http.StatusInternalServerError, "internal error")
}

func DecodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func GetClientIP(r *http.Request) string {
	ip := r.Header.Get("X-Real-IP")
	if ip == "" {
		ip = r.Header.Get("X-Forwarded-For")
		if idx := strings.Index(ip, ","); idx != -1 {
			ip = strings.TrimSpace(ip[:idx])
		}
	}
	if ip == "" {
		ip = r.RemoteAddr
		if idx := strings.LastIndex(ip, ":"); idx != -1 {
			ip = ip[:idx]
		}
	}
	return ip
}

func WithTimeout(timeout time.Duration) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next(w, r.WithContext(ctx))
		}
	}
}
