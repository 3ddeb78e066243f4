package analytics

import (
	"math"
	"sort"
	"time"

	"naalli/internal/models"
	"naalli/internal/schedule"
)

const (
	StatusActive    = "Ativo"
	StatusAttention = "Atenção"
	StatusInactive  = "Inativo"

	recentSessions = 5
)

// Profile summarizes one occupant's whole history.
type Profile struct {
	Name          string            `json:"name"`
	Total         int               `json:"total"`
	First         string            `json:"first"`
	Last          string            `json:"last"`
	DaysSinceLast int               `json:"days_since_last"`
	Status        string            `json:"status"`
	WeeklyAverage float64           `json:"weekly_average"`
	Kinds         []NameCount       `json:"kinds"`
	Recent        []*models.Booking `json:"recent"`
}

// ActivityStatus classifies how long ago the last session was.
func ActivityStatus(daysSinceLast int) string {
	switch {
	case daysSinceLast <= 7:
		return StatusActive
	case daysSinceLast <= 30:
		return StatusAttention
	default:
		return StatusInactive
	}
}

// BuildProfile returns nil when name has no bookings in data.
func BuildProfile(name string, data []DatedBooking, now time.Time) *Profile {
	var mine []DatedBooking
	for _, b := range data {
		if b.Name == name {
			mine = append(mine, b)
		}
	}
	if len(mine) == 0 {
		return nil
	}

	sort.SliceStable(mine, func(i, j int) bool {
		if !mine[i].Day.Equal(mine[j].Day) {
			return mine[i].Day.After(mine[j].Day)
		}
		return mine[i].Time > mine[j].Time
	})
	last, first := mine[0].Day, mine[len(mine)-1].Day

	days := int(math.Floor(now.Sub(last).Hours() / 24))

	weeks := last.Sub(first).Hours() / 24 / 7
	if weeks == 0 {
		weeks = 1
	}

	kinds := make(map[string]int)
	for _, b := range mine {
		kinds[b.Kind]++
	}
	kindCounts := make([]NameCount, 0, len(kinds))
	for _, k := range models.Kinds {
		if n := kinds[k]; n > 0 {
			kindCounts = append(kindCounts, NameCount{Name: k, Count: n})
			delete(kinds, k)
		}
	}
	extra := make([]string, 0, len(kinds))
	for k := range kinds {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	for _, k := range extra {
		kindCounts = append(kindCounts, NameCount{Name: k, Count: kinds[k]})
	}

	recent := make([]*models.Booking, 0, recentSessions)
	for i := 0; i < len(mine) && i < recentSessions; i++ {
		recent = append(recent, mine[i].Booking)
	}

	return &Profile{
		Name:          name,
		Total:         len(mine),
		First:         schedule.FormatDate(first),
		Last:          schedule.FormatDate(last),
		DaysSinceLast: days,
		Status:        ActivityStatus(days),
		WeeklyAverage: round1(float64(len(mine)) / weeks),
		Kinds:         kindCounts,
		Recent:        recent,
	}
}
