package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"naalli/internal/domain"
	"naalli/internal/events"
	"naalli/internal/metrics"
	"naalli/internal/models"

	"github.com/rs/zerolog"
)

// PendingReview is a past session the student has not rated yet.
type PendingReview struct {
	*models.Booking
	Moment time.Time `json:"moment"`
}

type ReviewService struct {
	bookings domain.BookingRepository
	reviews  domain.ReviewRepository
	eventBus domain.EventPublisher
	loc      *time.Location
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewReviewService(bookings domain.BookingRepository, reviews domain.ReviewRepository, eventBus domain.EventPublisher, loc *time.Location, logger *zerolog.Logger) *ReviewService {
	if loc == nil {
		loc = time.Local
	}
	return &ReviewService{
		bookings: bookings,
		reviews:  reviews,
		eventBus: eventBus,
		loc:      loc,
		logger:   logger,
		now:      time.Now,
	}
}

// Pending lists the viewer's unreviewed sessions that already started, newest first.
func (s *ReviewService) Pending(ctx context.Context, viewer *models.Session) ([]PendingReview, error) {
	pending := []PendingReview{}
	if viewer.IsAdmin() {
		return pending, nil
	}

	bookings, err := s.bookings.GetBookingsByName(ctx, viewer.Name)
	if err != nil {
		return nil, err
	}
	reviewed, err := s.reviews.GetReviewedBookingIDs(ctx, viewer.Name)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for _, b := range bookings {
		if reviewed[b.ID] || !b.OwnedBy(viewer.Email, viewer.Name) {
			continue
		}
		moment, err := b.Moment(s.loc)
		if err != nil {
			s.logger.Warn().Int64("booking_id", b.ID).Str("date", b.Date).Msg("skipping booking with malformed date")
			continue
		}
		if moment.Before(now) {
			pending = append(pending, PendingReview{Booking: b, Moment: moment})
		}
	}

	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Moment.After(pending[j].Moment)
	})
	return pending, nil
}

// Submit stores a 1..5 rating for one of the viewer's past bookings.
func (s *ReviewService) Submit(ctx context.Context, viewer *models.Session, bookingID int64, rating int, comment string) (*models.Review, error) {
	if viewer.IsAdmin() {
		return nil, ErrForbidden
	}
	if rating < models.MinRating || rating > models.MaxRating {
		return nil, ErrInvalidRating
	}

	booking, err := s.bookings.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.OwnedBy(viewer.Email, viewer.Name) {
		return nil, ErrForbidden
	}
	moment, err := booking.Moment(s.loc)
	if err != nil || !moment.Before(s.now()) {
		return nil, ErrNotEligible
	}

	review := &models.Review{
		BookingID:   booking.ID,
		StudentName: booking.Name,
		ClassDate:   booking.Date,
		Kind:        booking.Kind,
		Rating:      rating,
		Comment:     strings.TrimSpace(comment),
		SubmittedAt: s.now(),
	}
	if err := s.reviews.CreateReview(ctx, review); err != nil {
		return nil, err
	}

	metrics.IncReview(rating)
	if err := s.eventBus.PublishJSON(events.EventReviewSubmitted, events.ReviewEventPayload{
		ReviewID:    review.ID,
		BookingID:   review.BookingID,
		StudentName: review.StudentName,
		Kind:        review.Kind,
		Rating:      review.Rating,
	}); err != nil {
		s.logger.Error().Err(err).Msg("failed to publish review event")
	}
	s.logger.Info().Int64("booking_id", booking.ID).Int("rating", rating).Msg("review submitted")
	return review, nil
}
