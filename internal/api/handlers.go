package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"naalli/internal/analytics"
	"naalli/internal/models"
	"naalli/internal/schedule"
	"naalli/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	session, err := s.svc.Auth.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request, session *models.Session) {
	if err := s.svc.Auth.Logout(r.Context(), session.Token); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleMe(w http.ResponseWriter, _ *http.Request, session *models.Session) {
	writeJSON(w, http.StatusOK, session)
}

func (s *HTTPServer) handleChangePassword(w http.ResponseWriter, r *http.Request, session *models.Session) {
	var body struct {
		Password string `json:"password"`
		Confirm  string `json:"confirm"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.svc.Auth.ChangePassword(r.Context(), session, body.Password, body.Confirm); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *HTTPServer) handleRecover(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	result, err := s.svc.Auth.RecoverPassword(r.Context(), body.Email)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *HTTPServer) handleStudentDashboard(w http.ResponseWriter, r *http.Request, session *models.Session) {
	profile, err := s.svc.Analytics.StudentDashboard(r.Context(), session)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// dateParam defaults to today.
func (s *HTTPServer) dateParam(r *http.Request) string {
	if date := strings.TrimSpace(r.URL.Query().Get("date")); date != "" {
		return date
	}
	return schedule.FormatDate(s.now().In(s.loc))
}

func (s *HTTPServer) handleSchedule(w http.ResponseWriter, r *http.Request, _ *models.Session) {
	day, err := s.svc.Bookings.Schedule(r.Context(), s.dateParam(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (s *HTTPServer) handleGrid(w http.ResponseWriter, r *http.Request, session *models.Session) {
	grid, err := s.svc.Bookings.Grid(r.Context(), session, s.dateParam(r), r.URL.Query().Get("time"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grid)
}

func (s *HTTPServer) handleBook(w http.ResponseWriter, r *http.Request, session *models.Session) {
	var req service.BookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	booking, err := s.svc.Bookings.Book(r.Context(), session, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"booking": booking, "pin": booking.Pin})
}

func (s *HTTPServer) handleRelease(w http.ResponseWriter, r *http.Request, session *models.Session) {
	var req service.ReleaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	released, err := s.svc.Bookings.Release(r.Context(), session, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"released": released})
}

func (s *HTTPServer) handlePendingReviews(w http.ResponseWriter, r *http.Request, session *models.Session) {
	pending, err := s.svc.Reviews.Pending(r.Context(), session)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pending": pending})
}

func (s *HTTPServer) handleSubmitReview(w http.ResponseWriter, r *http.Request, session *models.Session) {
	var body struct {
		BookingID int64  `json:"booking_id"`
		Rating    int    `json:"rating"`
		Comment   string `json:"comment"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	review, err := s.svc.Reviews.Submit(r.Context(), session, body.BookingID, body.Rating, body.Comment)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (s *HTTPServer) handleListUsers(w http.ResponseWriter, r *http.Request, _ *models.Session) {
	users, err := s.svc.Auth.ListUsers(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (s *HTTPServer) handleCreateUser(w http.ResponseWriter, r *http.Request, session *models.Session) {
	var body struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		Role  string `json:"role"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	user, err := s.svc.Auth.CreateUser(r.Context(), session, body.Email, body.Name, body.Role)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// filterParams is the period/kind selection shared by the admin endpoints.
type filterParams struct {
	Period string   `json:"period"`
	From   string   `json:"from"`
	To     string   `json:"to"`
	Kinds  []string `json:"kinds"`
}

func queryFilter(r *http.Request) filterParams {
	q := r.URL.Query()
	var kinds []string
	for _, raw := range q["kind"] {
		kinds = append(kinds, splitCSV(raw)...)
	}
	return filterParams{Period: q.Get("period"), From: q.Get("from"), To: q.Get("to"), Kinds: kinds}
}

func (s *HTTPServer) toFilter(p filterParams) (analytics.Filter, error) {
	f := analytics.Filter{Period: strings.TrimSpace(p.Period)}
	for _, k := range p.Kinds {
		if !models.IsValidKind(k) {
			return f, fmt.Errorf("%w: unknown kind %q", service.ErrInvalidInput, k)
		}
		f.Kinds = append(f.Kinds, k)
	}

	parse := func(raw string) (time.Time, error) {
		if strings.TrimSpace(raw) == "" {
			return time.Time{}, nil
		}
		d, err := schedule.ParseDate(raw, s.loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", service.ErrInvalidInput, err)
		}
		return d, nil
	}
	var err error
	if f.From, err = parse(p.From); err != nil {
		return f, err
	}
	if f.To, err = parse(p.To); err != nil {
		return f, err
	}
	if f.Period == "" && (!f.From.IsZero() || !f.To.IsZero()) {
		f.Period = analytics.PeriodCustom
	}
	return f, nil
}

func (s *HTTPServer) handleAdminDashboard(w http.ResponseWriter, r *http.Request, _ *models.Session) {
	f, err := s.toFilter(queryFilter(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	dashboard, err := s.svc.Analytics.AdminDashboard(r.Context(), f)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

func (s *HTTPServer) handleStudents(w http.ResponseWriter, r *http.Request, _ *models.Session) {
	students, err := s.svc.Analytics.Students(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"students": students})
}

func (s *HTTPServer) handleStudentProfile(w http.ResponseWriter, r *http.Request, _ *models.Session) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	profile, err := s.svc.Analytics.StudentProfile(r.Context(), name)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *HTTPServer) handleQuality(w http.ResponseWriter, r *http.Request, _ *models.Session) {
	var students []string
	for _, raw := range r.URL.Query()["student"] {
		students = append(students, splitCSV(raw)...)
	}
	quality, err := s.svc.Analytics.Quality(r.Context(), students)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quality)
}

func (s *HTTPServer) handleSuggestions(w http.ResponseWriter, _ *http.Request, _ *models.Session) {
	writeJSON(w, http.StatusOK, map[string]any{
		"enabled":     s.svc.Assistant.Enabled(),
		"suggestions": s.svc.Assistant.Suggestions(),
	})
}

func (s *HTTPServer) handleAsk(w http.ResponseWriter, r *http.Request, _ *models.Session) {
	var body struct {
		filterParams
		Question string `json:"question"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	f, err := s.toFilter(body.filterParams)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	answer, err := s.svc.Assistant.Ask(r.Context(), f, body.Question)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request, _ *models.Session) {
	f, err := s.toFilter(queryFilter(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	// buffered so a failure can still be reported as JSON
	var buf bytes.Buffer
	if err := s.svc.Analytics.ExportWorkbook(r.Context(), &buf, f); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	filename := fmt.Sprintf("naalli_%s.xlsx", s.now().In(s.loc).Format("20060102_150405"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *HTTPServer) handleSheetsSync(w http.ResponseWriter, r *http.Request, _ *models.Session) {
	if s.svc.Sheets == nil {
		writeError(w, http.StatusServiceUnavailable, "sheets mirror is not configured")
		return
	}
	if err := s.svc.Sheets.Sync(r.Context()); err != nil {
		s.logger.Error().Err(err).Msg("manual sheets sync failed")
		writeError(w, http.StatusBadGateway, "sheets sync failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "synced"})
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
