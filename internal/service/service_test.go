package service

import (
	"context"
	"testing"
	"time"

	"naalli/internal/database"
	"naalli/internal/events"
	"naalli/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Wednesday 17/12/2025 10:00.
var testNow = time.Date(2025, 12, 17, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewSQLiteDB(":memory:", testLogger())
	require.NoError(t, err)
	db.SetLocation(time.UTC)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func studentSession() *models.Session {
	return &models.Session{Token: "student-token", Email: "ana@naalli.com", Name: "Ana Souza", Role: models.RoleStudent}
}

func adminSession() *models.Session {
	return &models.Session{Token: "admin-token", Email: "admin@naalli.com", Name: "Administrador", Role: models.RoleAdmin}
}

func insertBooking(t *testing.T, db *database.DB, date, hhmm string, number int, kind, name, owner string) *models.Booking {
	t.Helper()
	b := &models.Booking{
		Date: date, Time: hhmm, Number: number, Kind: kind,
		Name: name, OwnerEmail: owner, Pin: "1234", CreatedAt: testNow,
	}
	require.NoError(t, db.CreateBooking(context.Background(), b))
	return b
}

// recorder captures the events published during a test.
type recorder struct {
	bus   *events.EventBus
	types []string
}

func newRecorder() *recorder {
	r := &recorder{bus: events.NewEventBus()}
	r.bus.SubscribeAll(func(e *events.Event) error {
		r.types = append(r.types, e.Type)
		return nil
	})
	return r
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, to, subject, body string) error {
	return m.Called(ctx, to, subject, body).Error(0)
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}
