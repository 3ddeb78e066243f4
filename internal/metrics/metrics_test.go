package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	Register()
	Register()

	assert.NotPanics(t, func() {
		ObserveHTTP("/api/v1/schedule", 200, 15*time.Millisecond)
		ObserveAssistant("ok", 2*time.Second)
		IncRelease("pin")
		IncLogin("ok")
	})
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(bookings.WithLabelValues("Treino", "created"))
	IncBooking("Treino", "created")
	assert.Equal(t, before+1, testutil.ToFloat64(bookings.WithLabelValues("Treino", "created")))

	before = testutil.ToFloat64(reviews.WithLabelValues("5"))
	IncReview(5)
	assert.Equal(t, before+1, testutil.ToFloat64(reviews.WithLabelValues("5")))

	before = testutil.ToFloat64(sheetsSyncs.WithLabelValues("error"))
	IncSheetsSync("error")
	assert.Equal(t, before+1, testutil.ToFloat64(sheetsSyncs.WithLabelValues("error")))
}
