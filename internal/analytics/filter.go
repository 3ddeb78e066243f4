// Package analytics turns bookings and reviews into the figures shown on the
// student and admin dashboards. Everything here is pure and clock-injected.
package analytics

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"naalli/internal/models"
	"naalli/internal/schedule"
)

const (
	PeriodWeek    = "week"
	PeriodMonth   = "month"
	PeriodQuarter = "90d"
	PeriodAll     = "all"
	PeriodCustom  = "custom"
)

var ErrInvalidRange = errors.New("invalid date range")

// Filter selects the bookings a dashboard is computed over. Empty Kinds means all.
type Filter struct {
	Period string
	From   time.Time
	To     time.Time
	Kinds  []string
}

// Range is an inclusive span of calendar days.
type Range struct {
	From time.Time
	To   time.Time
}

func (r Range) Contains(day time.Time) bool {
	return !day.Before(r.From) && !day.After(r.To)
}

// DatedBooking is a booking with its parsed calendar day.
type DatedBooking struct {
	*models.Booking
	Day time.Time
}

// Index parses booking dates in loc and sorts chronologically by day and time.
// Bookings with malformed dates are returned separately so callers can log them.
func Index(bookings []*models.Booking, loc *time.Location) (dated []DatedBooking, invalid []*models.Booking) {
	dated = make([]DatedBooking, 0, len(bookings))
	for _, b := range bookings {
		day, err := schedule.ParseDate(b.Date, loc)
		if err != nil {
			invalid = append(invalid, b)
			continue
		}
		dated = append(dated, DatedBooking{Booking: b, Day: day})
	}
	sort.SliceStable(dated, func(i, j int) bool {
		if !dated[i].Day.Equal(dated[j].Day) {
			return dated[i].Day.Before(dated[j].Day)
		}
		return dated[i].Time < dated[j].Time
	})
	return dated, invalid
}

// ResolveRange turns a period into concrete days relative to now. "all" spans the
// data itself and collapses to today when there is none.
func ResolveRange(f Filter, now time.Time, data []DatedBooking) (Range, error) {
	today := schedule.Midnight(now)

	switch f.Period {
	case PeriodWeek, "":
		start := today.AddDate(0, 0, -schedule.MondayIndex(today.Weekday()))
		return Range{From: start, To: start.AddDate(0, 0, 6)}, nil
	case PeriodMonth:
		start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return Range{From: start, To: start.AddDate(0, 1, -1)}, nil
	case PeriodQuarter:
		return Range{From: today.AddDate(0, 0, -90), To: today}, nil
	case PeriodAll:
		if len(data) == 0 {
			return Range{From: today, To: today}, nil
		}
		from, to := data[0].Day, data[0].Day
		for _, d := range data[1:] {
			if d.Day.Before(from) {
				from = d.Day
			}
			if d.Day.After(to) {
				to = d.Day
			}
		}
		return Range{From: from, To: to}, nil
	case PeriodCustom:
		if f.From.IsZero() || f.To.IsZero() {
			return Range{}, fmt.Errorf("%w: custom period needs from and to", ErrInvalidRange)
		}
		from, to := schedule.Midnight(f.From), schedule.Midnight(f.To)
		if to.Before(from) {
			return Range{}, fmt.Errorf("%w: from is after to", ErrInvalidRange)
		}
		return Range{From: from, To: to}, nil
	default:
		return Range{}, fmt.Errorf("%w: unknown period %q", ErrInvalidRange, f.Period)
	}
}

// Apply keeps the bookings inside rng whose kind is selected.
func Apply(data []DatedBooking, rng Range, kinds []string) []DatedBooking {
	allowed := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		allowed[k] = true
	}

	out := make([]DatedBooking, 0, len(data))
	for _, d := range data {
		if !rng.Contains(d.Day) {
			continue
		}
		if len(allowed) > 0 && !allowed[d.Kind] {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Bookings strips the parsed day.
func Bookings(data []DatedBooking) []*models.Booking {
	out := make([]*models.Booking, len(data))
	for i, d := range data {
		out[i] = d.Booking
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
