package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/pavelanni/texexam/internal/exam"
	appI18n "github.com/pavelanni/texexam/internal/i18n"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type meta struct {
	RequestID string `json:"request_id,omitempty"`
}

type envelope struct {
	OK    bool          `json:"ok"`
	Data  any           `json:"data,omitempty"`
	Error *errorPayload `json:"error,omitempty"`
	Meta  meta          `json:"meta"`
}

func writeOK(w http.ResponseWriter, r *http.Request, status int, data any) {
	write(w, r, status, envelope{OK: true, Data: data})
}

// writeError writes a localized error. msgID names a message in the locale
// files.
func writeError(w http.ResponseWriter, r *http.Request, status int, msgID string) {
	write(w, r, status, envelope{
		Error: &errorPayload{
			Code:    codeFromStatus(status),
			Message: appI18n.T(r.Context(), msgID),
		},
	})
}

func write(w http.ResponseWriter, r *http.Request, status int, res envelope) {
	res.Meta.RequestID = middleware.GetReqID(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(res)
}

// writeServiceError maps engine errors to a status and message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, msgID := errorStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, r, status, msgID)
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, exam.ErrValidation):
		return http.StatusBadRequest, "ValidationFailed"
	case errors.Is(err, exam.ErrExtractionEmpty):
		return http.StatusUnprocessableEntity, "NoQuestionsFound"
	case errors.Is(err, exam.ErrExamNotFound):
		return http.StatusNotFound, "ExamNotFound"
	case errors.Is(err, exam.ErrNotEligible):
		return http.StatusForbidden, "ExamNotEligible"
	case errors.Is(err, exam.ErrSessionStarted):
		return http.StatusConflict, "SessionInProgress"
	case errors.Is(err, exam.ErrAlreadySubmitted):
		return http.StatusConflict, "AlreadySubmitted"
	case errors.Is(err, exam.ErrNotInProgress):
		return http.StatusConflict, "NotInProgress"
	case errors.Is(err, exam.ErrQuestionIndex):
		return http.StatusBadRequest, "InvalidQuestionIndex"
	case errors.Is(err, exam.ErrStoreUnavailable):
		return http.StatusInternalServerError, "StoreUnavailable"
	default:
		return http.StatusInternalServerError, "InternalError"
	}
}

func codeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusRequestEntityTooLarge:
		return "too_large"
	case http.StatusUnprocessableEntity:
		return "unprocessable_entity"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return "error"
	}
}
