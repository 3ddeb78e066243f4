package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *fakeWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.msgs)
}

func TestKafkaForwarder(t *testing.T) {
	writer := &fakeWriter{}
	logger := zerolog.Nop()
	f := newKafkaForwarder(writer, "naalli.events", &logger)

	bus := NewEventBus()
	f.Attach(bus)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.Run(ctx)
		close(done)
	}()

	require.NoError(t, bus.PublishJSON(EventBookingCreated, BookingEventPayload{BookingID: 1}))
	require.NoError(t, bus.PublishJSON(EventReviewSubmitted, ReviewEventPayload{ReviewID: 2}))

	assert.Eventually(t, func() bool { return writer.count() == 2 }, time.Second, 10*time.Millisecond)

	cancel()
	<-done

	writer.mu.Lock()
	defer writer.mu.Unlock()
	assert.True(t, writer.closed)
	assert.Equal(t, "naalli.events", writer.msgs[0].Topic)
	assert.Equal(t, []byte(EventBookingCreated), writer.msgs[0].Key)
	assert.JSONEq(t, `{"booking_id":1,"date":"","time":"","number":0,"kind":"","name":""}`, string(writer.msgs[0].Value))
}

func TestKafkaForwarderQueueFull(t *testing.T) {
	logger := zerolog.Nop()
	f := newKafkaForwarder(&fakeWriter{}, "t", &logger)

	for i := 0; i < forwarderBuffer; i++ {
		require.NoError(t, f.enqueue(&Event{Type: EventUserCreated}))
	}
	assert.Error(t, f.enqueue(&Event{Type: EventUserCreated}))
}
