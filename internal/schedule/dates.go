package schedule

import (
	"fmt"
	"strings"
	"time"

	"naalli/internal/models"
)

var (
	weekdayLong = map[time.Weekday]string{
		time.Monday:    "Segunda",
		time.Tuesday:   "Terça",
		time.Wednesday: "Quarta",
		time.Thursday:  "Quinta",
		time.Friday:    "Sexta",
		time.Saturday:  "Sábado",
		time.Sunday:    "Domingo",
	}
	weekdayShort = map[time.Weekday]string{
		time.Monday:    "Seg",
		time.Tuesday:   "Ter",
		time.Wednesday: "Qua",
		time.Thursday:  "Qui",
		time.Friday:    "Sex",
		time.Saturday:  "Sáb",
		time.Sunday:    "Dom",
	}
)

// ParseDate parses a "DD/MM/YYYY" date at midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(models.DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected DD/MM/YYYY", s)
	}
	return d, nil
}

// NormalizeTime accepts "H:MM" or "HH:MM" and returns the canonical "HH:MM".
func NormalizeTime(s string) (string, error) {
	t, err := time.Parse(models.TimeLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	return t.Format(models.TimeLayout), nil
}

// Moment combines a "DD/MM/YYYY" date and an "HH:MM" time in loc.
func Moment(date, hhmm string, loc *time.Location) (time.Time, error) {
	day, err := ParseDate(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(models.TimeLayout, strings.TrimSpace(hhmm))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: expected HH:MM", hhmm)
	}
	return day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute), nil
}

// FormatDate renders t as "DD/MM/YYYY".
func FormatDate(t time.Time) string {
	return t.Format(models.DateLayout)
}

// Midnight truncates t to the start of its day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WeekdayName is the Portuguese weekday name ("Segunda").
func WeekdayName(day time.Weekday) string {
	return weekdayLong[day]
}

// DayLabel renders the short chart label used by the dashboards, e.g. "Seg, 15/12".
func DayLabel(t time.Time) string {
	return weekdayShort[t.Weekday()] + ", " + t.Format("02/01")
}

// MondayIndex maps Monday..Sunday to 0..6.
func MondayIndex(day time.Weekday) int {
	return (int(day) + 6) % 7
}
