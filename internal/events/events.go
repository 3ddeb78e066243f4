package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventBookingCreated  = "booking_created"
	EventBookingReleased = "booking_released"
	EventReviewSubmitted = "review_submitted"
	EventUserCreated     = "user_created"
	EventPasswordReset   = "password_reset"
)

// AllEvents lists every event type the application publishes.
var AllEvents = []string{
	EventBookingCreated,
	EventBookingReleased,
	EventReviewSubmitted,
	EventUserCreated,
	EventPasswordReset,
}

// BookingEventPayload is the booking snapshot sent with booking events.
type BookingEventPayload struct {
	BookingID  int64  `json:"booking_id"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Number     int    `json:"number"`
	Kind       string `json:"kind"`
	Name       string `json:"name"`
	ActorEmail string `json:"actor_email,omitempty"`
}

type ReviewEventPayload struct {
	ReviewID    int64  `json:"review_id"`
	BookingID   int64  `json:"booking_id"`
	StudentName string `json:"student_name"`
	Kind        string `json:"kind"`
	Rating      int    `json:"rating"`
}

// UserEventPayload never carries credentials.
type UserEventPayload struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role,omitempty"`
	ActorEmail string `json:"actor_email,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers handler for every type in AllEvents.
func (b *EventBus) SubscribeAll(handler EventHandler) {
	for _, eventType := range AllEvents {
		b.Subscribe(eventType, handler)
	}
}

// Publish notifies subscribers of the event type. Handlers run synchronously and
// must not block; their errors are ignored.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event. A nil bus is a no-op.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}
	b.Publish(&event)
	return nil
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}
