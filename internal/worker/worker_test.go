package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"naalli/internal/events"
	"naalli/internal/models"
)

type fakeSource struct {
	bookings []*models.Booking
	reviews  []*models.Review
	err      error
}

func (f *fakeSource) GetAllBookings(context.Context) ([]*models.Booking, error) {
	return f.bookings, f.err
}

func (f *fakeSource) GetAllReviews(context.Context) ([]*models.Review, error) {
	return f.reviews, nil
}

type fakeSheets struct {
	mu           sync.Mutex
	bookingCalls int
	reviewCalls  int
	failures     int
	lastBookings []*models.Booking
	synced       chan struct{}
}

func (f *fakeSheets) ReplaceBookingsSheet(_ context.Context, bookings []*models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookingCalls++
	if f.failures > 0 {
		f.failures--
		return errors.New("quota exceeded")
	}
	f.lastBookings = bookings
	return nil
}

func (f *fakeSheets) ReplaceReviewsSheet(context.Context, []*models.Review) error {
	f.mu.Lock()
	f.reviewCalls++
	f.mu.Unlock()
	if f.synced != nil {
		f.synced <- struct{}{}
	}
	return nil
}

func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func TestRetryPolicyNextDelay(t *testing.T) {
	p := RetryPolicy{InitialDelay: time.Second, MaxDelay: 5 * time.Second, BackoffFactor: 2, MaxRetries: 3}

	if d := p.NextDelay(1); d != time.Second {
		t.Fatalf("attempt 1: got %v", d)
	}
	if d := p.NextDelay(3); d != 4*time.Second {
		t.Fatalf("attempt 3: got %v", d)
	}
	if d := p.NextDelay(10); d != 5*time.Second {
		t.Fatalf("expected clamp to max delay, got %v", d)
	}
	if p.Exhausted(2) || !p.Exhausted(3) {
		t.Fatalf("unexpected exhaustion")
	}
	if (RetryPolicy{}).Exhausted(100) {
		t.Fatalf("zero MaxRetries never exhausts")
	}
}

func TestSyncSuccess(t *testing.T) {
	source := &fakeSource{bookings: []*models.Booking{{ID: 1, Name: "Ana"}}}
	sheets := &fakeSheets{}
	w := NewSheetsWorker(source, sheets, RetryPolicy{}, 0, nil)

	if err := w.Sync(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if sheets.bookingCalls != 1 || sheets.reviewCalls != 1 {
		t.Fatalf("expected both tabs written, got %d/%d", sheets.bookingCalls, sheets.reviewCalls)
	}
	if len(sheets.lastBookings) != 1 {
		t.Fatalf("expected 1 booking, got %d", len(sheets.lastBookings))
	}
	last, err := w.Status()
	if err != nil || last.IsZero() {
		t.Fatalf("expected successful status, got %v %v", last, err)
	}
}

func TestSyncSourceError(t *testing.T) {
	w := NewSheetsWorker(&fakeSource{err: errors.New("db down")}, &fakeSheets{}, RetryPolicy{}, 0, nil)

	if err := w.Sync(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := w.Status(); err == nil {
		t.Fatalf("expected status to keep the error")
	}
}

func TestSyncWithRetry(t *testing.T) {
	sheets := &fakeSheets{failures: 2}
	w := NewSheetsWorker(&fakeSource{}, sheets, RetryPolicy{MaxRetries: 3}, 0, nil)
	w.sleep = noSleep

	if err := w.syncWithRetry(context.Background()); err != nil {
		t.Fatalf("expected success on third attempt: %v", err)
	}
	if sheets.bookingCalls != 3 {
		t.Fatalf("expected 3 attempts, got %d", sheets.bookingCalls)
	}
}

func TestSyncWithRetryGivesUp(t *testing.T) {
	sheets := &fakeSheets{failures: 10}
	w := NewSheetsWorker(&fakeSource{}, sheets, RetryPolicy{MaxRetries: 2}, 0, nil)
	w.sleep = noSleep

	if err := w.syncWithRetry(context.Background()); err == nil {
		t.Fatalf("expected error after retries")
	}
	if sheets.bookingCalls != 2 {
		t.Fatalf("expected 2 attempts, got %d", sheets.bookingCalls)
	}
}

func TestStartSyncsOnEvents(t *testing.T) {
	sheets := &fakeSheets{synced: make(chan struct{}, 4)}
	w := NewSheetsWorker(&fakeSource{}, sheets, RetryPolicy{}, 0, nil)
	bus := events.NewEventBus()
	w.Attach(bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	waitSynced(t, sheets.synced)

	if err := bus.PublishJSON(events.EventBookingCreated, events.BookingEventPayload{BookingID: 1}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	waitSynced(t, sheets.synced)
}

func TestMarkDirtyDoesNotBlock(t *testing.T) {
	w := NewSheetsWorker(&fakeSource{}, &fakeSheets{}, RetryPolicy{}, 0, nil)
	for i := 0; i < 10; i++ {
		w.MarkDirty()
	}
	if len(w.dirty) != 1 {
		t.Fatalf("expected a single pending signal, got %d", len(w.dirty))
	}
}

func waitSynced(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for sync")
	}
}
