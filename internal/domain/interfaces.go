package domain

import (
	"context"
	"time"

	"naalli/internal/models"
)

type UserRepository interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, email, passwordHash string, mustChange bool) error
	ListUsers(ctx context.Context) ([]*models.User, error)
	CountUsers(ctx context.Context) (int, error)
}

type BookingRepository interface {
	GetBookingsByDate(ctx context.Context, date string) ([]*models.Booking, error)
	GetBookingsByName(ctx context.Context, name string) ([]*models.Booking, error)
	GetAllBookings(ctx context.Context) ([]*models.Booking, error)
	GetBookingByID(ctx context.Context, id int64) (*models.Booking, error)
	GetBookingBySlot(ctx context.Context, key models.SlotKey) (*models.Booking, error)
	CreateBooking(ctx context.Context, booking *models.Booking) error
	DeleteBooking(ctx context.Context, key models.SlotKey, pin string, bypass func(*models.Booking) bool) (*models.Booking, error)
}

type ReviewRepository interface {
	CreateReview(ctx context.Context, review *models.Review) error
	HasReview(ctx context.Context, bookingID int64) (bool, error)
	GetReviewedBookingIDs(ctx context.Context, studentName string) (map[int64]bool, error)
	GetAllReviews(ctx context.Context) ([]*models.Review, error)
}

// SessionStore keeps login sessions and login attempt counters.
type SessionStore interface {
	SaveSession(ctx context.Context, session *models.Session) error
	// GetSession returns nil, nil for an unknown or expired token.
	GetSession(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	ResetRateLimit(ctx context.Context, key string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Generator produces a text answer for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type SheetsWriter interface {
	ReplaceBookingsSheet(ctx context.Context, bookings []*models.Booking) error
	ReplaceReviewsSheet(ctx context.Context, reviews []*models.Review) error
}
