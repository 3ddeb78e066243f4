package api

import (
	"errors"
	"net/http"

	"naalli/internal/analytics"
	"naalli/internal/assistant"
	"naalli/internal/database"
	"naalli/internal/service"
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{service.ErrUnauthenticated, http.StatusUnauthorized},
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrForbidden, http.StatusForbidden},
	{database.ErrPermissionDenied, http.StatusForbidden},
	{database.ErrNotFound, http.StatusNotFound},
	{database.ErrSlotTaken, http.StatusConflict},
	{database.ErrDuplicateEmail, http.StatusConflict},
	{database.ErrAlreadyReviewed, http.StatusConflict},
	{service.ErrInvalidInput, http.StatusUnprocessableEntity},
	{service.ErrClosed, http.StatusUnprocessableEntity},
	{service.ErrUnknownSlot, http.StatusUnprocessableEntity},
	{service.ErrSlotInPast, http.StatusUnprocessableEntity},
	{service.ErrNotEligible, http.StatusUnprocessableEntity},
	{service.ErrInvalidRating, http.StatusUnprocessableEntity},
	{service.ErrPasswordMismatch, http.StatusUnprocessableEntity},
	{service.ErrPasswordTooShort, http.StatusUnprocessableEntity},
	{service.ErrPasswordTooLong, http.StatusUnprocessableEntity},
	{service.ErrNoData, http.StatusUnprocessableEntity},
	{analytics.ErrInvalidRange, http.StatusUnprocessableEntity},
	{service.ErrTooManyAttempts, http.StatusTooManyRequests},
	{service.ErrAssistantDisabled, http.StatusServiceUnavailable},
	{service.ErrMailUnavailable, http.StatusServiceUnavailable},
	{assistant.ErrUnauthorized, http.StatusBadGateway},
	{service.ErrUpstream, http.StatusBadGateway},
}

func statusFor(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// writeServiceError maps domain errors to status codes. Unexpected errors are
// logged and hidden from the client.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		s.logger.Error().Err(err).
			Str("request_id", RequestID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		if status == http.StatusInternalServerError {
			writeError(w, status, "internal error")
			return
		}
	}
	writeError(w, status, err.Error())
}
