package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"naalli/internal/config"
	"naalli/internal/service"

	"github.com/rs/zerolog"
)

// SheetsSyncer forces a full spreadsheet sync.
type SheetsSyncer interface {
	Sync(ctx context.Context) error
}

// Services groups what the handlers depend on. Sheets and Ready may be nil.
type Services struct {
	Auth      *service.AuthService
	Bookings  *service.BookingService
	Reviews   *service.ReviewService
	Analytics *service.AnalyticsService
	Assistant *service.AssistantService
	Sheets    SheetsSyncer
	Ready     func(ctx context.Context) error
}

// HTTPServer exposes the JSON API.
type HTTPServer struct {
	cfg     config.HTTPConfig
	svc     Services
	server  *http.Server
	limiter *rateLimiter
	loc     *time.Location
	now     func() time.Time
	logger  *zerolog.Logger
}

func NewHTTPServer(cfg config.HTTPConfig, svc Services, loc *time.Location, logger *zerolog.Logger) *HTTPServer {
	if loc == nil {
		loc = time.Local
	}
	srv := &HTTPServer{
		cfg:     cfg,
		svc:     svc,
		limiter: newRateLimiter(cfg.RateLimit),
		loc:     loc,
		now:     time.Now,
		logger:  logger,
	}

	mux := http.NewServeMux()
	srv.routes(mux)

	handler := requestIDMiddleware(srv.loggingMiddleware(metricsMiddleware(srv.limiter.Wrap(mux))))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		// the assistant may take a while to answer
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}
	return srv
}

func (s *HTTPServer) routes(mux *http.ServeMux) {
	const prefix = "/api/v1"

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST "+prefix+"/auth/login", s.handleLogin)
	mux.HandleFunc("POST "+prefix+"/auth/recover", s.handleRecover)
	mux.HandleFunc("POST "+prefix+"/auth/logout", s.pendingAllowed(s.handleLogout))
	mux.HandleFunc("POST "+prefix+"/auth/password", s.pendingAllowed(s.handleChangePassword))
	mux.HandleFunc("GET "+prefix+"/me", s.pendingAllowed(s.handleMe))

	mux.HandleFunc("GET "+prefix+"/me/dashboard", s.authed(s.handleStudentDashboard))
	mux.HandleFunc("GET "+prefix+"/schedule", s.authed(s.handleSchedule))
	mux.HandleFunc("GET "+prefix+"/grid", s.authed(s.handleGrid))
	mux.HandleFunc("POST "+prefix+"/bookings", s.authed(s.handleBook))
	mux.HandleFunc("DELETE "+prefix+"/bookings", s.authed(s.handleRelease))
	mux.HandleFunc("GET "+prefix+"/reviews/pending", s.authed(s.handlePendingReviews))
	mux.HandleFunc("POST "+prefix+"/reviews", s.authed(s.handleSubmitReview))

	mux.HandleFunc("GET "+prefix+"/admin/users", s.admin(s.handleListUsers))
	mux.HandleFunc("POST "+prefix+"/admin/users", s.admin(s.handleCreateUser))
	mux.HandleFunc("GET "+prefix+"/admin/dashboard", s.admin(s.handleAdminDashboard))
	mux.HandleFunc("GET "+prefix+"/admin/students", s.admin(s.handleStudents))
	mux.HandleFunc("GET "+prefix+"/admin/students/profile", s.admin(s.handleStudentProfile))
	mux.HandleFunc("GET "+prefix+"/admin/quality", s.admin(s.handleQuality))
	mux.HandleFunc("GET "+prefix+"/admin/assistant/suggestions", s.admin(s.handleSuggestions))
	mux.HandleFunc("POST "+prefix+"/admin/assistant", s.admin(s.handleAsk))
	mux.HandleFunc("GET "+prefix+"/admin/export", s.admin(s.handleExport))
	mux.HandleFunc("POST "+prefix+"/admin/sheets/sync", s.admin(s.handleSheetsSync))
}

// Handler returns the full middleware chain; used by tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.svc.Ready != nil {
		if err := s.svc.Ready(r.Context()); err != nil {
			s.logger.Warn().Err(err).Msg("readiness check failed")
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body", service.ErrInvalidInput)
	}
	return nil
}
