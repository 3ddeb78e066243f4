package schedule

import (
	"fmt"
	"time"
)

// OpeningHours is the first and last bookable hour of a day.
type OpeningHours struct {
	Open  int
	Close int
}

var weeklyHours = map[time.Weekday]OpeningHours{
	time.Monday:    {6, 20},
	time.Tuesday:   {6, 20},
	time.Wednesday: {6, 20},
	time.Thursday:  {6, 20},
	time.Friday:    {6, 20},
	time.Saturday:  {8, 12},
}

// HoursOn returns the opening hours for a weekday; ok is false on Sundays.
func HoursOn(day time.Weekday) (OpeningHours, bool) {
	h, ok := weeklyHours[day]
	return h, ok
}

// HoursFor lists the bookable "HH:00" slots of a weekday. Nil when closed.
func HoursFor(day time.Weekday) []string {
	h, ok := HoursOn(day)
	if !ok {
		return nil
	}
	out := make([]string, 0, h.Close-h.Open+1)
	for hour := h.Open; hour <= h.Close; hour++ {
		out = append(out, fmt.Sprintf("%02d:00", hour))
	}
	return out
}

// IsOpen reports whether hhmm is one of the bookable slots of date.
func IsOpen(date time.Time, hhmm string) bool {
	for _, h := range HoursFor(date.Weekday()) {
		if h == hhmm {
			return true
		}
	}
	return false
}
