package web

// errors.go turns catalog errors into JSON responses.
//
// The technical error is logged with the request id; the client receives
// the user message from core.MapError and a status chosen by error kind.

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/JonMunkholm/catalog/internal/logging"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error  string `json:"error"`
	Action string `json:"action,omitempty"`
	Code   string `json:"code"`
	Field  string `json:"field,omitempty"`
}

// statusFor maps an error kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrIntegrity):
		return http.StatusConflict
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrSchema):
		// Unknown tables and columns are caller mistakes.
		return http.StatusNotFound
	case errors.Is(err, core.ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the mapped user message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", msg.Code,
		"error", err.Error(),
	)

	resp := ErrorResponse{Error: msg.Message, Action: msg.Action, Code: msg.Code}
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		resp.Field = ve.Field
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, status, resp)
}

// respondBadRequest reports a request the handler could not decode.
func (s *Server) respondBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	logging.FromContext(r.Context()).Warn("bad request",
		"path", r.URL.Path,
		"method", r.Method,
		"error", message,
	)
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Code: "REQ001"})
}

func respondRateLimited(w http.ResponseWriter, r *http.Request) {
	logging.FromContext(r.Context()).Warn("rate limit exceeded", "ip", clientIP(r), "path", r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
		Error:  "Too many requests",
		Action: "Wait a minute and try again",
		Code:   "RATE001",
	})
}
