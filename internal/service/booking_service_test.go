package service

import (
	"context"
	"testing"

	"naalli/internal/database"
	"naalli/internal/events"
	"naalli/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBookingService(t *testing.T) (*BookingService, *database.DB, *recorder) {
	t.Helper()
	db := newTestDB(t)
	rec := newRecorder()
	svc := NewBookingService(db, rec.bus, nil, testLogger())
	svc.loc = testNow.Location()
	svc.now = fixedClock
	return svc, db, rec
}

func TestBook(t *testing.T) {
	svc, db, rec := newBookingService(t)
	ctx := context.Background()

	b, err := svc.Book(ctx, studentSession(), BookRequest{Date: "17/12/2025", Time: "18:00", Number: 13, Kind: models.KindElliptical})
	require.NoError(t, err)
	assert.NotZero(t, b.ID)
	assert.Equal(t, "Ana Souza", b.Name)
	assert.Equal(t, "ana@naalli.com", b.OwnerEmail)
	assert.Len(t, b.Pin, 4)
	assert.Equal(t, []string{events.EventBookingCreated}, rec.types)

	stored, err := db.GetBookingBySlot(ctx, b.Key())
	require.NoError(t, err)
	assert.Equal(t, b.ID, stored.ID)

	// the same station is now taken, even for an admin
	_, err = svc.Book(ctx, adminSession(), BookRequest{Date: "17/12/2025", Time: "18:00", Number: 13, Kind: models.KindElliptical})
	assert.ErrorIs(t, err, database.ErrSlotTaken)
}

func TestBookCurrentHourIsAllowed(t *testing.T) {
	svc, _, _ := newBookingService(t)

	// 10:00 started already but has not ended
	_, err := svc.Book(context.Background(), studentSession(), BookRequest{Date: "17/12/2025", Time: "10:00", Number: 1, Kind: models.KindStrength})
	assert.NoError(t, err)
}

func TestBookValidation(t *testing.T) {
	svc, _, _ := newBookingService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  BookRequest
		want error
	}{
		{"past hour", BookRequest{Date: "17/12/2025", Time: "09:00", Number: 1, Kind: models.KindStrength}, ErrSlotInPast},
		{"sunday", BookRequest{Date: "21/12/2025", Time: "10:00", Number: 1, Kind: models.KindStrength}, ErrClosed},
		{"saturday afternoon", BookRequest{Date: "20/12/2025", Time: "14:00", Number: 1, Kind: models.KindStrength}, ErrClosed},
		{"before opening", BookRequest{Date: "18/12/2025", Time: "05:00", Number: 1, Kind: models.KindStrength}, ErrClosed},
		{"lunch catalog", BookRequest{Date: "18/12/2025", Time: "13:00", Number: 7, Kind: models.KindStrength}, ErrUnknownSlot},
		{"wrong kind for number", BookRequest{Date: "18/12/2025", Time: "18:00", Number: 1, Kind: models.KindTreadmill}, ErrUnknownSlot},
		{"unknown kind", BookRequest{Date: "18/12/2025", Time: "18:00", Number: 1, Kind: "Bike"}, ErrInvalidInput},
		{"bad date", BookRequest{Date: "2025-12-18", Time: "18:00", Number: 1, Kind: models.KindStrength}, ErrInvalidInput},
		{"on behalf as student", BookRequest{Date: "18/12/2025", Time: "18:00", Number: 1, Kind: models.KindStrength, Name: "Bia"}, ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Book(ctx, studentSession(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBookOnBehalf(t *testing.T) {
	svc, _, _ := newBookingService(t)

	b, err := svc.Book(context.Background(), adminSession(), BookRequest{Date: "18/12/2025", Time: "7:00", Number: 2, Kind: models.KindStrength, Name: " Ricardo Alves "})
	require.NoError(t, err)
	assert.Equal(t, "Ricardo Alves", b.Name)
	assert.Equal(t, "07:00", b.Time)
	assert.Empty(t, b.OwnerEmail)
}

func TestRelease(t *testing.T) {
	svc, db, rec := newBookingService(t)
	ctx := context.Background()

	mine := insertBooking(t, db, "18/12/2025", "18:00", 1, models.KindStrength, "Ana Souza", "ana@naalli.com")
	other := insertBooking(t, db, "18/12/2025", "18:00", 2, models.KindStrength, "Bia Lima", "bia@naalli.com")
	forAdmin := insertBooking(t, db, "18/12/2025", "18:00", 3, models.KindStrength, "Caio", "")

	t.Run("owner needs no pin", func(t *testing.T) {
		released, err := svc.Release(ctx, studentSession(), ReleaseRequest{Date: mine.Date, Time: mine.Time, Number: 1, Kind: models.KindStrength})
		require.NoError(t, err)
		assert.Equal(t, mine.ID, released.ID)
	})

	t.Run("someone else without pin", func(t *testing.T) {
		_, err := svc.Release(ctx, studentSession(), ReleaseRequest{Date: other.Date, Time: other.Time, Number: 2, Kind: models.KindStrength})
		assert.ErrorIs(t, err, database.ErrPermissionDenied)
	})

	t.Run("someone else with pin", func(t *testing.T) {
		_, err := svc.Release(ctx, studentSession(), ReleaseRequest{Date: other.Date, Time: other.Time, Number: 2, Kind: models.KindStrength, Pin: "1234"})
		assert.NoError(t, err)
	})

	t.Run("admin override", func(t *testing.T) {
		_, err := svc.Release(ctx, adminSession(), ReleaseRequest{Date: forAdmin.Date, Time: forAdmin.Time, Number: 3, Kind: models.KindStrength})
		assert.NoError(t, err)
	})

	t.Run("empty slot", func(t *testing.T) {
		_, err := svc.Release(ctx, adminSession(), ReleaseRequest{Date: "18/12/2025", Time: "18:00", Number: 4, Kind: models.KindStrength})
		assert.ErrorIs(t, err, database.ErrNotFound)
	})

	assert.Equal(t, []string{events.EventBookingReleased, events.EventBookingReleased, events.EventBookingReleased}, rec.types)
}

func TestReleaseAfterSlotChangedHands(t *testing.T) {
	svc, db, _ := newBookingService(t)
	ctx := context.Background()

	mine := insertBooking(t, db, "18/12/2025", "19:00", 5, models.KindStrength, "Ana Souza", "ana@naalli.com")
	req := ReleaseRequest{Date: mine.Date, Time: mine.Time, Number: 5, Kind: models.KindStrength}
	_, err := svc.Release(ctx, studentSession(), req)
	require.NoError(t, err)

	taken := insertBooking(t, db, "18/12/2025", "19:00", 5, models.KindStrength, "Bia Lima", "bia@naalli.com")

	_, err = svc.Release(ctx, studentSession(), req)
	assert.ErrorIs(t, err, database.ErrPermissionDenied)

	current, err := db.GetBookingBySlot(ctx, taken.Key())
	require.NoError(t, err)
	assert.Equal(t, taken.ID, current.ID)
}

func TestGrid(t *testing.T) {
	svc, db, _ := newBookingService(t)
	ctx := context.Background()

	insertBooking(t, db, "18/12/2025", "13:00", 1, models.KindStrength, "Ana Souza", "ana@naalli.com")
	insertBooking(t, db, "18/12/2025", "13:00", 7, models.KindTreadmill, "Beatriz Lima Costa", "bia@naalli.com")
	insertBooking(t, db, "18/12/2025", "14:00", 2, models.KindStrength, "Caio", "")

	grid, err := svc.Grid(ctx, studentSession(), "18/12/2025", "13:00")
	require.NoError(t, err)
	assert.True(t, grid.Lunch)
	assert.Equal(t, "Quinta", grid.Weekday)
	assert.Equal(t, 7, grid.Free)
	assert.Equal(t, 2, grid.Occupied)
	require.Len(t, grid.Groups, 3)
	assert.Equal(t, models.KindStrength, grid.Groups[0].Kind)
	assert.Len(t, grid.Groups[0].Slots, 6)
	assert.Len(t, grid.Groups[1].Slots, 2)
	assert.Len(t, grid.Groups[2].Slots, 1)

	first := grid.Groups[0].Slots[0]
	assert.Equal(t, SlotOccupied, first.Status)
	assert.True(t, first.Mine)

	treadmill := grid.Groups[1].Slots[0]
	assert.Equal(t, "Beatriz Lima", treadmill.Occupant)
	assert.False(t, treadmill.Mine)

	// no time picks the first opening hour
	grid, err = svc.Grid(ctx, studentSession(), "18/12/2025", "")
	require.NoError(t, err)
	assert.Equal(t, "06:00", grid.Time)
	assert.Equal(t, 13, grid.Free)

	_, err = svc.Grid(ctx, studentSession(), "21/12/2025", "")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSchedule(t *testing.T) {
	svc, db, _ := newBookingService(t)
	insertBooking(t, db, "18/12/2025", "18:00", 1, models.KindStrength, "Ana Souza", "")
	insertBooking(t, db, "18/12/2025", "07:00", 1, models.KindStrength, "Ana Souza", "")

	day, err := svc.Schedule(context.Background(), "18/12/2025")
	require.NoError(t, err)
	assert.True(t, day.Open)
	assert.Len(t, day.Hours, 15)
	require.Len(t, day.Bookings, 2)
	assert.Equal(t, "07:00", day.Bookings[0].Time)

	sunday, err := svc.Schedule(context.Background(), "21/12/2025")
	require.NoError(t, err)
	assert.False(t, sunday.Open)
	assert.Empty(t, sunday.Bookings)
}
