package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"naalli/internal/domain"
	"naalli/internal/events"
	"naalli/internal/metrics"
	"naalli/internal/models"

	"github.com/rs/zerolog"
)

// DataSource loads everything the mirror needs.
type DataSource interface {
	GetAllBookings(ctx context.Context) ([]*models.Booking, error)
	GetAllReviews(ctx context.Context) ([]*models.Review, error)
}

// SheetsWorker mirrors bookings and reviews into a spreadsheet. Change events only
// mark the mirror dirty; a single goroutine rewrites both tabs after a quiet period,
// so a burst of bookings costs one sync.
type SheetsWorker struct {
	source      DataSource
	sheets      domain.SheetsWriter
	retryPolicy RetryPolicy
	debounce    time.Duration
	dirty       chan struct{}
	mu          sync.Mutex
	lastSync    time.Time
	lastErr     error
	logger      *zerolog.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewSheetsWorker builds a worker with sane defaults.
func NewSheetsWorker(source DataSource, sheets domain.SheetsWriter, retry RetryPolicy, debounce time.Duration, logger *zerolog.Logger) *SheetsWorker {
	def := DefaultRetryPolicy()
	if retry.MaxRetries == 0 {
		retry.MaxRetries = def.MaxRetries
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = def.InitialDelay
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = def.MaxDelay
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = def.BackoffFactor
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &SheetsWorker{
		source:      source,
		sheets:      sheets,
		retryPolicy: retry,
		debounce:    debounce,
		dirty:       make(chan struct{}, 1),
		logger:      logger,
		sleep:       sleepContext,
	}
}

// Attach marks the mirror dirty on every booking and review change.
func (w *SheetsWorker) Attach(bus *events.EventBus) {
	handler := func(*events.Event) error {
		w.MarkDirty()
		return nil
	}
	bus.Subscribe(events.EventBookingCreated, handler)
	bus.Subscribe(events.EventBookingReleased, handler)
	bus.Subscribe(events.EventReviewSubmitted, handler)
}

// MarkDirty schedules a sync without blocking.
func (w *SheetsWorker) MarkDirty() {
	select {
	case w.dirty <- struct{}{}:
	default:
	}
}

// Start runs until ctx is done. A sync is done at startup so the sheet reflects the
// database after a restart.
func (w *SheetsWorker) Start(ctx context.Context) {
	w.logger.Info().Dur("debounce", w.debounce).Msg("sheets worker started")
	defer w.logger.Info().Msg("sheets worker stopped")

	w.MarkDirty()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.dirty:
		}

		if err := w.sleep(ctx, w.debounce); err != nil {
			return
		}
		// changes that arrived during the quiet period are covered by this sync
		select {
		case <-w.dirty:
		default:
		}

		if err := w.syncWithRetry(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error().Err(err).Msg("sheets sync gave up")
		}
	}
}

func (w *SheetsWorker) syncWithRetry(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		err := w.Sync(ctx)
		if err == nil {
			return nil
		}
		if w.retryPolicy.Exhausted(attempt) {
			return err
		}

		delay := w.retryPolicy.NextDelay(attempt)
		w.logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("sheets sync failed")
		if err := w.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// Sync rewrites both tabs from the database once.
func (w *SheetsWorker) Sync(ctx context.Context) error {
	err := w.sync(ctx)

	w.mu.Lock()
	w.lastErr = err
	if err == nil {
		w.lastSync = time.Now()
	}
	w.mu.Unlock()

	if err != nil {
		metrics.IncSheetsSync("error")
		return err
	}
	metrics.IncSheetsSync("ok")
	return nil
}

func (w *SheetsWorker) sync(ctx context.Context) error {
	bookings, err := w.source.GetAllBookings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load bookings: %w", err)
	}
	reviews, err := w.source.GetAllReviews(ctx)
	if err != nil {
		return fmt.Errorf("failed to load reviews: %w", err)
	}

	if err := w.sheets.ReplaceBookingsSheet(ctx, bookings); err != nil {
		return err
	}
	if err := w.sheets.ReplaceReviewsSheet(ctx, reviews); err != nil {
		return err
	}

	w.logger.Debug().Int("bookings", len(bookings)).Int("reviews", len(reviews)).Msg("sheets synced")
	return nil
}

// Status returns the time of the last successful sync and the last error.
func (w *SheetsWorker) Status() (time.Time, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSync, w.lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
