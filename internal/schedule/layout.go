package schedule

import (
	"fmt"
	"strconv"
	"strings"

	"naalli/internal/models"
)

// Lunch window, inclusive. Fewer stations are staffed during these hours.
const (
	lunchStart = 12
	lunchEnd   = 14
)

type stationBlock struct {
	kind  string
	count int
}

var (
	regularLayout = []stationBlock{
		{models.KindStrength, 10},
		{models.KindTreadmill, 2},
		{models.KindElliptical, 1},
	}
	lunchLayout = []stationBlock{
		{models.KindStrength, 6},
		{models.KindTreadmill, 2},
		{models.KindElliptical, 1},
	}
)

// IsLunch reports whether hour falls in the reduced lunch catalog.
func IsLunch(hour int) bool {
	return hour >= lunchStart && hour <= lunchEnd
}

// SlotsForHour returns the station catalog for an hour. Numbers run consecutively
// across kinds: strength stations first, then treadmills, then the elliptical.
func SlotsForHour(hour int) []models.Slot {
	blocks := regularLayout
	if IsLunch(hour) {
		blocks = lunchLayout
	}

	slots := make([]models.Slot, 0, 13)
	n := 1
	for _, b := range blocks {
		for i := 0; i < b.count; i++ {
			slots = append(slots, models.Slot{Number: n, Kind: b.kind})
			n++
		}
	}
	return slots
}

// SlotsForTime is SlotsForHour for an "HH:MM" value.
func SlotsForTime(hhmm string) ([]models.Slot, error) {
	hour, err := HourOf(hhmm)
	if err != nil {
		return nil, err
	}
	return SlotsForHour(hour), nil
}

// HasSlot reports whether (number, kind) exists in the catalog for hour.
func HasSlot(hour, number int, kind string) bool {
	for _, s := range SlotsForHour(hour) {
		if s.Number == number && s.Kind == kind {
			return true
		}
	}
	return false
}

// HourOf extracts the hour from "HH:MM".
func HourOf(hhmm string) (int, error) {
	head, _, ok := strings.Cut(strings.TrimSpace(hhmm), ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", hhmm)
	}
	hour, err := strconv.Atoi(head)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", hhmm)
	}
	return hour, nil
}
