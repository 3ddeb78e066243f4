package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"naalli/internal/analytics"
	"naalli/internal/database"
	"naalli/internal/domain"
	"naalli/internal/export"
	"naalli/internal/models"
	"naalli/internal/schedule"

	"github.com/rs/zerolog"
)

// AnalyticsService loads the full history and hands it to the analytics package.
type AnalyticsService struct {
	bookings domain.BookingRepository
	reviews  domain.ReviewRepository
	loc      *time.Location
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewAnalyticsService(bookings domain.BookingRepository, reviews domain.ReviewRepository, loc *time.Location, logger *zerolog.Logger) *AnalyticsService {
	if loc == nil {
		loc = time.Local
	}
	return &AnalyticsService{
		bookings: bookings,
		reviews:  reviews,
		loc:      loc,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *AnalyticsService) load(ctx context.Context) ([]analytics.DatedBooking, error) {
	all, err := s.bookings.GetAllBookings(ctx)
	if err != nil {
		return nil, err
	}
	data, invalid := analytics.Index(all, s.loc)
	if len(invalid) > 0 {
		s.logger.Warn().Int("count", len(invalid)).Msg("bookings with malformed dates ignored")
	}
	return data, nil
}

func (s *AnalyticsService) filtered(ctx context.Context, f analytics.Filter) (analytics.Range, []analytics.DatedBooking, error) {
	data, err := s.load(ctx)
	if err != nil {
		return analytics.Range{}, nil, err
	}
	rng, err := analytics.ResolveRange(f, s.now().In(s.loc), data)
	if err != nil {
		return analytics.Range{}, nil, err
	}
	return rng, analytics.Apply(data, rng, f.Kinds), nil
}

// StudentDashboard is the viewer's own profile; an empty profile when they never booked.
func (s *AnalyticsService) StudentDashboard(ctx context.Context, viewer *models.Session) (*analytics.Profile, error) {
	data, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	profile := analytics.BuildProfile(viewer.Name, data, s.now().In(s.loc))
	if profile == nil {
		return &analytics.Profile{Name: viewer.Name, Kinds: []analytics.NameCount{}, Recent: []*models.Booking{}}, nil
	}
	return profile, nil
}

func (s *AnalyticsService) AdminDashboard(ctx context.Context, f analytics.Filter) (*analytics.Dashboard, error) {
	rng, data, err := s.filtered(ctx, f)
	if err != nil {
		return nil, err
	}
	return analytics.BuildDashboard(rng, f.Kinds, data), nil
}

// Students lists every occupant name in the history.
func (s *AnalyticsService) Students(ctx context.Context) ([]string, error) {
	data, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.Students(data), nil
}

// StudentProfile is computed over the full history; database.ErrNotFound when the
// name never booked.
func (s *AnalyticsService) StudentProfile(ctx context.Context, name string) (*analytics.Profile, error) {
	data, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	profile := analytics.BuildProfile(name, data, s.now().In(s.loc))
	if profile == nil {
		return nil, database.ErrNotFound
	}
	return profile, nil
}

// Quality builds the feedback report; students only narrows the comment list.
func (s *AnalyticsService) Quality(ctx context.Context, students []string) (*analytics.Quality, error) {
	reviews, err := s.reviews.GetAllReviews(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.BuildQuality(reviews, students, s.loc), nil
}

// FilteredBookings returns the bookings selected by f in chronological order.
func (s *AnalyticsService) FilteredBookings(ctx context.Context, f analytics.Filter) ([]*models.Booking, error) {
	_, data, err := s.filtered(ctx, f)
	if err != nil {
		return nil, err
	}
	return analytics.Bookings(data), nil
}

// ExportWorkbook writes the filtered bookings and every review as XLSX.
func (s *AnalyticsService) ExportWorkbook(ctx context.Context, w io.Writer, f analytics.Filter) error {
	rng, data, err := s.filtered(ctx, f)
	if err != nil {
		return err
	}
	reviews, err := s.reviews.GetAllReviews(ctx)
	if err != nil {
		return err
	}

	title := fmt.Sprintf("Agenda Naalli - %s a %s", schedule.FormatDate(rng.From), schedule.FormatDate(rng.To))
	return export.WriteWorkbook(w, title, analytics.Bookings(data), reviews)
}
