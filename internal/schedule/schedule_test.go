package schedule

import (
	"testing"
	"time"

	"naalli/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countKinds(slots []models.Slot) map[string]int {
	out := map[string]int{}
	for _, s := range slots {
		out[s.Kind]++
	}
	return out
}

func TestSlotsForHour(t *testing.T) {
	t.Run("Lunch", func(t *testing.T) {
		slots := SlotsForHour(13)
		require.Len(t, slots, 9)
		assert.Equal(t, map[string]int{
			models.KindStrength:   6,
			models.KindTreadmill:  2,
			models.KindElliptical: 1,
		}, countKinds(slots))
		assert.Equal(t, models.Slot{Number: 7, Kind: models.KindTreadmill}, slots[6])
		assert.Equal(t, models.Slot{Number: 9, Kind: models.KindElliptical}, slots[8])
	})

	t.Run("Regular", func(t *testing.T) {
		slots := SlotsForHour(17)
		require.Len(t, slots, 13)
		assert.Equal(t, map[string]int{
			models.KindStrength:   10,
			models.KindTreadmill:  2,
			models.KindElliptical: 1,
		}, countKinds(slots))
		assert.Equal(t, models.Slot{Number: 11, Kind: models.KindTreadmill}, slots[10])
		assert.Equal(t, models.Slot{Number: 13, Kind: models.KindElliptical}, slots[12])
	})

	t.Run("LunchBoundaries", func(t *testing.T) {
		assert.Len(t, SlotsForHour(11), 13)
		assert.Len(t, SlotsForHour(12), 9)
		assert.Len(t, SlotsForHour(14), 9)
		assert.Len(t, SlotsForHour(15), 13)
	})
}

func TestSlotsForTime(t *testing.T) {
	slots, err := SlotsForTime("12:00")
	require.NoError(t, err)
	assert.Len(t, slots, 9)

	_, err = SlotsForTime("noon")
	assert.Error(t, err)
	_, err = SlotsForTime("25:00")
	assert.Error(t, err)
}

func TestHasSlot(t *testing.T) {
	assert.True(t, HasSlot(17, 13, models.KindElliptical))
	assert.False(t, HasSlot(13, 13, models.KindElliptical))
	assert.True(t, HasSlot(13, 9, models.KindElliptical))
	assert.False(t, HasSlot(17, 1, models.KindTreadmill))
}

func TestHoursFor(t *testing.T) {
	assert.Nil(t, HoursFor(time.Sunday))

	sat := HoursFor(time.Saturday)
	assert.Equal(t, []string{"08:00", "09:00", "10:00", "11:00", "12:00"}, sat)

	weekday := HoursFor(time.Wednesday)
	require.Len(t, weekday, 15)
	assert.Equal(t, "06:00", weekday[0])
	assert.Equal(t, "20:00", weekday[len(weekday)-1])
}

func TestIsOpen(t *testing.T) {
	loc := time.UTC
	monday := time.Date(2025, 12, 15, 0, 0, 0, 0, loc)
	saturday := time.Date(2025, 12, 20, 0, 0, 0, 0, loc)
	sunday := time.Date(2025, 12, 21, 0, 0, 0, 0, loc)

	assert.True(t, IsOpen(monday, "06:00"))
	assert.False(t, IsOpen(monday, "21:00"))
	assert.False(t, IsOpen(saturday, "13:00"))
	assert.True(t, IsOpen(saturday, "12:00"))
	assert.False(t, IsOpen(sunday, "10:00"))
}

func TestDates(t *testing.T) {
	d, err := ParseDate("16/12/2025", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Tuesday, d.Weekday())
	assert.Equal(t, "16/12/2025", FormatDate(d))
	assert.Equal(t, "Ter, 16/12", DayLabel(d))
	assert.Equal(t, "Terça", WeekdayName(d.Weekday()))
	assert.Equal(t, 1, MondayIndex(d.Weekday()))
	assert.Equal(t, 6, MondayIndex(time.Sunday))

	_, err = ParseDate("2025-12-16", time.UTC)
	assert.Error(t, err)

	hhmm, err := NormalizeTime("7:00")
	require.NoError(t, err)
	assert.Equal(t, "07:00", hhmm)

	_, err = NormalizeTime("7h")
	assert.Error(t, err)

	noon := time.Date(2025, 12, 16, 12, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 12, 16, 0, 0, 0, 0, time.UTC), Midnight(noon))

	m, err := Moment("16/12/2025", "18:00", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 12, 16, 18, 0, 0, 0, time.UTC), m)

	_, err = Moment("16/12/2025", "late", time.UTC)
	assert.Error(t, err)
}
