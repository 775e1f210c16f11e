package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"tutorbook/internal/auth"
	"tutorbook/internal/core"
	applog "tutorbook/internal/log"
)

// Error codes for failures that carry no record error code.
const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeEmailTaken   = "EMAIL_TAKEN"
	CodeBadRequest   = "BAD_REQUEST"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps the error taxonomy onto HTTP statuses.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest, core.CodeValidation
	case errors.Is(err, core.ErrEmptyResult):
		return http.StatusNotFound, core.CodeEmptyResult
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, CodeUnauthorized
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict, CodeEmailTaken
	case errors.Is(err, core.ErrRead), errors.Is(err, core.ErrWrite):
		return http.StatusBadGateway, core.ErrorCode(err)
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// writeError logs err and renders it. Store and internal failures are not
// echoed to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	body := ErrorBody{Error: err.Error(), Code: code}

	var ve *core.ValidationError
	if errors.As(err, &ve) {
		body.Field = ve.Field
	}

	logger := applog.FromContext(r.Context())
	fields := applog.NewFields().WithError(err, code).WithUser(userIDFrom(r.Context()))
	if status >= 500 {
		logger.ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
		body.Error = http.StatusText(status)
	} else {
		logger.WarnContext(r.Context(), "Request rejected", fields.ToSlice()...)
	}
	writeJSON(w, status, body)
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, ErrorBody{Error: msg, Code: CodeBadRequest})
}
