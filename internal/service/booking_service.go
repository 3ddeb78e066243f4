package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"naalli/internal/database"
	"naalli/internal/domain"
	"naalli/internal/events"
	"naalli/internal/metrics"
	"naalli/internal/models"
	"naalli/internal/schedule"
	"naalli/internal/security"

	"github.com/rs/zerolog"
)

const (
	SlotFree     = "free"
	SlotOccupied = "occupied"
)

// SlotView is one station of the grid as seen by a given user.
type SlotView struct {
	Number   int    `json:"number"`
	Kind     string `json:"kind"`
	Status   string `json:"status"`
	Occupant string `json:"occupant,omitempty"`
	Mine     bool   `json:"mine"`
}

type KindGroup struct {
	Kind  string     `json:"kind"`
	Slots []SlotView `json:"slots"`
}

// Grid is the station map of one date and hour.
type Grid struct {
	Date     string      `json:"date"`
	Weekday  string      `json:"weekday"`
	Time     string      `json:"time"`
	Hours    []string    `json:"hours"`
	Lunch    bool        `json:"lunch"`
	Groups   []KindGroup `json:"groups"`
	Free     int         `json:"free"`
	Occupied int         `json:"occupied"`
}

// DaySchedule lists the opening hours and bookings of a date.
type DaySchedule struct {
	Date     string            `json:"date"`
	Weekday  string            `json:"weekday"`
	Open     bool              `json:"open"`
	Hours    []string          `json:"hours"`
	Bookings []*models.Booking `json:"bookings"`
}

type BookRequest struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	Number int    `json:"number"`
	Kind   string `json:"kind"`
	// Name books on behalf of someone else; admins only.
	Name string `json:"name,omitempty"`
}

type ReleaseRequest struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	Number int    `json:"number"`
	Kind   string `json:"kind"`
	Pin    string `json:"pin,omitempty"`
}

type BookingService struct {
	repo     domain.BookingRepository
	eventBus domain.EventPublisher
	loc      *time.Location
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewBookingService(repo domain.BookingRepository, eventBus domain.EventPublisher, loc *time.Location, logger *zerolog.Logger) *BookingService {
	if loc == nil {
		loc = time.Local
	}
	return &BookingService{
		repo:     repo,
		eventBus: eventBus,
		loc:      loc,
		logger:   logger,
		now:      time.Now,
	}
}

// Schedule returns every booking of a "DD/MM/YYYY" date.
func (s *BookingService) Schedule(ctx context.Context, date string) (*DaySchedule, error) {
	day, err := schedule.ParseDate(date, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	date = schedule.FormatDate(day)

	bookings, err := s.repo.GetBookingsByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}

	hours := schedule.HoursFor(day.Weekday())
	return &DaySchedule{
		Date:     date,
		Weekday:  schedule.WeekdayName(day.Weekday()),
		Open:     len(hours) > 0,
		Hours:    hours,
		Bookings: bookings,
	}, nil
}

// Grid builds the station map for date and hhmm. An empty hhmm selects the first
// opening hour of the day.
func (s *BookingService) Grid(ctx context.Context, viewer *models.Session, date, hhmm string) (*Grid, error) {
	day, err := schedule.ParseDate(date, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	hours := schedule.HoursFor(day.Weekday())
	if len(hours) == 0 {
		return nil, ErrClosed
	}

	if strings.TrimSpace(hhmm) == "" {
		hhmm = hours[0]
	}
	hhmm, err = schedule.NormalizeTime(hhmm)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !schedule.IsOpen(day, hhmm) {
		return nil, ErrClosed
	}
	hour, err := schedule.HourOf(hhmm)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	date = schedule.FormatDate(day)
	bookings, err := s.repo.GetBookingsByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	occupied := make(map[models.SlotKey]*models.Booking)
	for _, b := range bookings {
		if b.Time == hhmm {
			occupied[b.Key()] = b
		}
	}

	grid := &Grid{
		Date:    date,
		Weekday: schedule.WeekdayName(day.Weekday()),
		Time:    hhmm,
		Hours:   hours,
		Lunch:   schedule.IsLunch(hour),
	}
	groups := make(map[string]int)
	for _, slot := range schedule.SlotsForHour(hour) {
		view := SlotView{Number: slot.Number, Kind: slot.Kind, Status: SlotFree}
		key := models.SlotKey{Date: date, Time: hhmm, Number: slot.Number, Kind: slot.Kind}
		if b, ok := occupied[key]; ok {
			view.Status = SlotOccupied
			view.Occupant = models.ShortName(b.Name)
			view.Mine = b.OwnedBy(viewer.Email, viewer.Name)
			grid.Occupied++
		} else {
			grid.Free++
		}

		idx, ok := groups[slot.Kind]
		if !ok {
			idx = len(grid.Groups)
			groups[slot.Kind] = idx
			grid.Groups = append(grid.Groups, KindGroup{Kind: slot.Kind})
		}
		grid.Groups[idx].Slots = append(grid.Groups[idx].Slots, view)
	}
	return grid, nil
}

// resolveSlot validates date, time and station and returns the canonical key.
func (s *BookingService) resolveSlot(date, hhmm string, number int, kind string) (models.SlotKey, time.Time, error) {
	day, err := schedule.ParseDate(date, s.loc)
	if err != nil {
		return models.SlotKey{}, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	hhmm, err = schedule.NormalizeTime(hhmm)
	if err != nil {
		return models.SlotKey{}, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !models.IsValidKind(kind) {
		return models.SlotKey{}, time.Time{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, kind)
	}

	key := models.SlotKey{Date: schedule.FormatDate(day), Time: hhmm, Number: number, Kind: kind}
	start, err := schedule.Moment(key.Date, key.Time, s.loc)
	if err != nil {
		return models.SlotKey{}, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return key, start, nil
}

// Book reserves a station. The returned booking carries the generated PIN.
func (s *BookingService) Book(ctx context.Context, viewer *models.Session, req BookRequest) (*models.Booking, error) {
	key, start, err := s.resolveSlot(req.Date, req.Time, req.Number, req.Kind)
	if err != nil {
		return nil, err
	}

	if !schedule.IsOpen(start, key.Time) {
		return nil, ErrClosed
	}
	if !schedule.HasSlot(start.Hour(), key.Number, key.Kind) {
		return nil, ErrUnknownSlot
	}
	if !s.now().Before(start.Add(time.Hour)) {
		return nil, ErrSlotInPast
	}

	name := viewer.Name
	owner := viewer.Email
	if onBehalf := strings.TrimSpace(req.Name); onBehalf != "" && onBehalf != viewer.Name {
		if !viewer.IsAdmin() {
			return nil, ErrForbidden
		}
		name, owner = onBehalf, ""
	}

	pin, err := security.GeneratePin()
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		Date:       key.Date,
		Time:       key.Time,
		Number:     key.Number,
		Kind:       key.Kind,
		Name:       name,
		OwnerEmail: owner,
		Pin:        pin,
		CreatedAt:  s.now(),
	}
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		if errors.Is(err, database.ErrSlotTaken) {
			metrics.IncBooking(key.Kind, "taken")
		}
		return nil, err
	}

	metrics.IncBooking(key.Kind, "ok")
	s.publish(events.EventBookingCreated, booking, viewer.Email)
	s.logger.Info().Str("slot", key.String()).Str("name", name).Str("actor", viewer.Email).Msg("booking created")
	return booking, nil
}

// Release frees a station. Admins and the occupant need no PIN.
func (s *BookingService) Release(ctx context.Context, viewer *models.Session, req ReleaseRequest) (*models.Booking, error) {
	key, _, err := s.resolveSlot(req.Date, req.Time, req.Number, req.Kind)
	if err != nil {
		return nil, err
	}

	via := "pin"
	released, err := s.repo.DeleteBooking(ctx, key, strings.TrimSpace(req.Pin), func(b *models.Booking) bool {
		switch {
		case viewer.IsAdmin():
			via = "admin"
		case b.OwnedBy(viewer.Email, viewer.Name):
			via = "owner"
		default:
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	metrics.IncRelease(via)
	s.publish(events.EventBookingReleased, released, viewer.Email)
	s.logger.Info().Str("slot", key.String()).Str("via", via).Str("actor", viewer.Email).Msg("booking released")
	return released, nil
}

func (s *BookingService) publish(eventType string, b *models.Booking, actor string) {
	payload := events.BookingEventPayload{
		BookingID:  b.ID,
		Date:       b.Date,
		Time:       b.Time,
		Number:     b.Number,
		Kind:       b.Kind,
		Name:       b.Name,
		ActorEmail: actor,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("failed to publish event")
	}
}
