package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"naalli/internal/analytics"
	"naalli/internal/database"
	"naalli/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newAnalyticsService(t *testing.T) (*AnalyticsService, *database.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := NewAnalyticsService(db, db, testNow.Location(), testLogger())
	svc.now = fixedClock

	insertBooking(t, db, "15/12/2025", "07:00", 1, models.KindStrength, "Ana Souza", "ana@naalli.com")
	insertBooking(t, db, "16/12/2025", "07:00", 1, models.KindStrength, "Ana Souza", "ana@naalli.com")
	insertBooking(t, db, "16/12/2025", "18:00", 11, models.KindTreadmill, "Bia Lima", "")
	insertBooking(t, db, "01/11/2025", "18:00", 1, models.KindStrength, "Caio", "")
	return svc, db
}

func TestAdminDashboard(t *testing.T) {
	svc, _ := newAnalyticsService(t)
	ctx := context.Background()

	week, err := svc.AdminDashboard(ctx, analytics.Filter{Period: analytics.PeriodWeek})
	require.NoError(t, err)
	assert.Equal(t, 3, week.KPIs.Total)
	assert.Equal(t, 2, week.KPIs.UniqueStudents)
	assert.Equal(t, "07:00", week.KPIs.PeakHour)

	all, err := svc.AdminDashboard(ctx, analytics.Filter{Period: analytics.PeriodAll, Kinds: []string{models.KindStrength}})
	require.NoError(t, err)
	assert.Equal(t, 3, all.KPIs.Total)

	_, err = svc.AdminDashboard(ctx, analytics.Filter{Period: "decade"})
	assert.ErrorIs(t, err, analytics.ErrInvalidRange)
}

func TestStudentDashboard(t *testing.T) {
	svc, _ := newAnalyticsService(t)
	ctx := context.Background()

	profile, err := svc.StudentDashboard(ctx, studentSession())
	require.NoError(t, err)
	assert.Equal(t, 2, profile.Total)
	assert.Equal(t, analytics.StatusActive, profile.Status)

	empty, err := svc.StudentDashboard(ctx, &models.Session{Name: "Nova Aluna"})
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.NotNil(t, empty.Recent)
}

func TestStudentsAndProfile(t *testing.T) {
	svc, _ := newAnalyticsService(t)
	ctx := context.Background()

	students, err := svc.Students(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana Souza", "Bia Lima", "Caio"}, students)

	profile, err := svc.StudentProfile(ctx, "Caio")
	require.NoError(t, err)
	assert.Equal(t, analytics.StatusInactive, profile.Status)

	_, err = svc.StudentProfile(ctx, "Ninguém")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestQualityService(t *testing.T) {
	svc, db := newAnalyticsService(t)
	ctx := context.Background()

	require.NoError(t, db.CreateReview(ctx, &models.Review{BookingID: 1, StudentName: "Ana Souza", ClassDate: "15/12/2025", Kind: models.KindStrength, Rating: 5, Comment: "Top", SubmittedAt: testNow}))
	require.NoError(t, db.CreateReview(ctx, &models.Review{BookingID: 3, StudentName: "Bia Lima", ClassDate: "16/12/2025", Kind: models.KindTreadmill, Rating: 3, SubmittedAt: testNow}))

	q, err := svc.Quality(ctx, []string{"Bia Lima"})
	require.NoError(t, err)
	assert.Equal(t, 2, q.Count)
	assert.Equal(t, 4.0, q.Mean)
	assert.Empty(t, q.Comments)
}

func TestExportWorkbook(t *testing.T) {
	svc, _ := newAnalyticsService(t)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportWorkbook(context.Background(), &buf, analytics.Filter{Period: analytics.PeriodWeek}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue("Agendamentos", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Agenda Naalli - 15/12/2025 a 21/12/2025", title)

	rows, err := f.GetRows("Agendamentos")
	require.NoError(t, err)
	assert.Len(t, rows, 5) // title, header and three bookings
}

func TestAssistantAsk(t *testing.T) {
	analyticsSvc, _ := newAnalyticsService(t)
	ctx := context.Background()

	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "PERGUNTA: Qual o melhor horário?") &&
			strings.Contains(prompt, "16/12/2025,18:00,Esteira,Bia Lima") &&
			!strings.Contains(prompt, "Caio")
	})).Return("Às 7h.", nil).Once()

	svc := NewAssistantService(gen, analyticsSvc, testLogger())
	assert.True(t, svc.Enabled())
	assert.Len(t, svc.Suggestions(), 6)

	answer, err := svc.Ask(ctx, analytics.Filter{Period: analytics.PeriodWeek}, " Qual o melhor horário? ")
	require.NoError(t, err)
	assert.Equal(t, "Às 7h.", answer)
	gen.AssertExpectations(t)

	_, err = svc.Ask(ctx, analytics.Filter{Period: analytics.PeriodWeek}, "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Ask(ctx, analytics.Filter{Period: analytics.PeriodWeek, Kinds: []string{models.KindElliptical}}, "Algo?")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestAssistantErrors(t *testing.T) {
	analyticsSvc, _ := newAnalyticsService(t)
	ctx := context.Background()

	disabled := NewAssistantService(nil, analyticsSvc, testLogger())
	assert.False(t, disabled.Enabled())
	_, err := disabled.Ask(ctx, analytics.Filter{}, "Oi?")
	assert.ErrorIs(t, err, ErrAssistantDisabled)

	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("quota"))
	failing := NewAssistantService(gen, analyticsSvc, testLogger())
	_, err = failing.Ask(ctx, analytics.Filter{}, "Oi?")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "quota")
}
