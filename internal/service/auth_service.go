package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"naalli/internal/config"
	"naalli/internal/database"
	"naalli/internal/domain"
	"naalli/internal/events"
	"naalli/internal/mail"
	"naalli/internal/metrics"
	"naalli/internal/models"
	"naalli/internal/security"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RecoveryResult tells the caller how the temporary password was delivered.
// TempPassword is only set in debug mode.
type RecoveryResult struct {
	Sent         bool   `json:"sent"`
	TempPassword string `json:"temp_password,omitempty"`
}

type AuthService struct {
	users      domain.UserRepository
	sessions   domain.SessionStore
	mailer     domain.Mailer
	eventBus   domain.EventPublisher
	config     config.AuthConfig
	production bool
	logger     *zerolog.Logger
	now        func() time.Time
}

// NewAuthService builds the service. mailer may be nil when SMTP is not configured.
func NewAuthService(users domain.UserRepository, sessions domain.SessionStore, mailer domain.Mailer, eventBus domain.EventPublisher, cfg config.AuthConfig, app config.AppConfig, logger *zerolog.Logger) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		mailer:     mailer,
		eventBus:   eventBus,
		config:     cfg,
		production: app.IsProduction(),
		logger:     logger,
		now:        time.Now,
	}
}

func loginKey(email string) string {
	return "login:" + email
}

// Login checks the credentials and opens a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Session, error) {
	email = models.NormalizeEmail(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	allowed, err := s.sessions.CheckRateLimit(ctx, loginKey(email), s.config.LoginAttempts, s.config.LoginWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to check login attempts: %w", err)
	}
	if !allowed {
		metrics.IncLogin("throttled")
		s.logger.Warn().Str("email", email).Msg("login throttled")
		return nil, ErrTooManyAttempts
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		metrics.IncLogin("denied")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := security.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.IncLogin("denied")
		return nil, ErrInvalidCredentials
	}

	if err := s.sessions.ResetRateLimit(ctx, loginKey(email)); err != nil {
		s.logger.Warn().Err(err).Msg("failed to reset login attempts")
	}

	now := s.now()
	session := &models.Session{
		Token:              uuid.NewString(),
		Email:              user.Email,
		Name:               user.Name,
		Role:               user.Role,
		MustChangePassword: user.MustChangePassword,
		CreatedAt:          now,
		ExpiresAt:          now.Add(s.config.SessionTTL),
	}
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	metrics.IncLogin("ok")
	s.logger.Info().Str("email", user.Email).Str("role", user.Role).Msg("user logged in")
	return session, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.DeleteSession(ctx, token)
}

// Session resolves a bearer token; ErrUnauthenticated when unknown or expired.
func (s *AuthService) Session(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil || !session.ExpiresAt.After(s.now()) {
		return nil, ErrUnauthenticated
	}
	return session, nil
}

// ChangePassword sets a new password and clears the forced-change flag.
func (s *AuthService) ChangePassword(ctx context.Context, session *models.Session, password, confirm string) error {
	password = strings.TrimSpace(password)
	confirm = strings.TrimSpace(confirm)
	if password != confirm {
		return ErrPasswordMismatch
	}
	if len(password) < s.config.MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > security.MaxPasswordBytes {
		return ErrPasswordTooLong
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, session.Email, hash, false); err != nil {
		return err
	}

	session.MustChangePassword = false
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	s.logger.Info().Str("email", session.Email).Msg("password changed")
	return nil
}

// RecoverPassword replaces the password with a temporary one and mails it. Without
// SMTP the temporary password is returned instead, except in production.
func (s *AuthService) RecoverPassword(ctx context.Context, email string) (*RecoveryResult, error) {
	email = models.NormalizeEmail(email)
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if s.mailer == nil && s.production {
		return nil, ErrMailUnavailable
	}

	temp, err := security.GenerateTempPassword()
	if err != nil {
		return nil, err
	}
	hash, err := security.HashPassword(temp)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdatePassword(ctx, user.Email, hash, true); err != nil {
		return nil, err
	}
	_ = s.eventBus.PublishJSON(events.EventPasswordReset, events.UserEventPayload{Email: user.Email, Name: user.Name})

	if s.mailer == nil {
		s.logger.Warn().Str("email", user.Email).Msg("mail not configured, returning temporary password")
		return &RecoveryResult{TempPassword: temp}, nil
	}

	subject, body := mail.RecoveryMessage(temp)
	if err := s.mailer.Send(ctx, user.Email, subject, body); err != nil {
		return nil, fmt.Errorf("%w: failed to send recovery mail: %w", ErrUpstream, err)
	}
	s.logger.Info().Str("email", user.Email).Msg("recovery mail sent")
	return &RecoveryResult{Sent: true}, nil
}

// CreateUser provisions an account with the default password and a forced change.
func (s *AuthService) CreateUser(ctx context.Context, actor *models.Session, email, name, role string) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	email = models.NormalizeEmail(email)
	name = strings.TrimSpace(name)
	if role == "" {
		role = models.RoleStudent
	}
	if email == "" || name == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: e-mail and name are required", ErrInvalidInput)
	}
	if !models.IsValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}

	user, err := s.newUser(email, name, role, s.config.DefaultPassword)
	if err != nil {
		return nil, err
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	_ = s.eventBus.PublishJSON(events.EventUserCreated, events.UserEventPayload{
		Email: user.Email, Name: user.Name, Role: user.Role, ActorEmail: actor.Email,
	})
	s.logger.Info().Str("email", user.Email).Str("actor", actor.Email).Msg("user created")
	return user, nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.users.ListUsers(ctx)
}

// EnsureDefaultAdmin creates the configured admin when there are no users yet.
func (s *AuthService) EnsureDefaultAdmin(ctx context.Context) error {
	count, err := s.users.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	admin, err := s.newUser(models.NormalizeEmail(s.config.AdminEmail), s.config.AdminName, models.RoleAdmin, s.config.AdminPassword)
	if err != nil {
		return err
	}
	if err := s.users.CreateUser(ctx, admin); err != nil && !errors.Is(err, database.ErrDuplicateEmail) {
		return err
	}
	s.logger.Info().Str("email", admin.Email).Msg("default admin created")
	return nil
}

func (s *AuthService) newUser(email, name, role, password string) (*models.User, error) {
	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &models.User{
		Email:              email,
		Name:               name,
		PasswordHash:       hash,
		MustChangePassword: true,
		Role:               role,
		CreatedAt:          s.now(),
	}, nil
}
