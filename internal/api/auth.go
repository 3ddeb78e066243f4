package api

import (
	"net/http"
	"strings"

	"naalli/internal/models"
	"naalli/internal/service"
)

type sessionHandler func(w http.ResponseWriter, r *http.Request, session *models.Session)

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// pendingAllowed resolves the session without enforcing the forced password change.
func (s *HTTPServer) pendingAllowed(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := s.svc.Auth.Session(r.Context(), bearerToken(r))
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		next(w, r, session)
	}
}

// authed also rejects sessions that still have to change their password.
func (s *HTTPServer) authed(next sessionHandler) http.HandlerFunc {
	return s.pendingAllowed(func(w http.ResponseWriter, r *http.Request, session *models.Session) {
		if session.MustChangePassword {
			writeError(w, http.StatusForbidden, "password change required")
			return
		}
		next(w, r, session)
	})
}

func (s *HTTPServer) admin(next sessionHandler) http.HandlerFunc {
	return s.authed(func(w http.ResponseWriter, r *http.Request, session *models.Session) {
		if !session.IsAdmin() {
			s.writeServiceError(w, r, service.ErrForbidden)
			return
		}
		next(w, r, session)
	})
}
