package events

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const forwarderBuffer = 256

// messageWriter is the part of *kafka.Writer the forwarder needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaForwarder mirrors bus events to a Kafka topic. Events are queued by the bus
// handler and written by Run, so publishing never waits on the broker.
type KafkaForwarder struct {
	writer messageWriter
	topic  string
	queue  chan *Event
	logger *zerolog.Logger
}

func NewKafkaForwarder(brokers []string, topic string, logger *zerolog.Logger) *KafkaForwarder {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return newKafkaForwarder(writer, topic, logger)
}

func newKafkaForwarder(writer messageWriter, topic string, logger *zerolog.Logger) *KafkaForwarder {
	return &KafkaForwarder{
		writer: writer,
		topic:  topic,
		queue:  make(chan *Event, forwarderBuffer),
		logger: logger,
	}
}

// Attach subscribes the forwarder to every application event on bus.
func (f *KafkaForwarder) Attach(bus *EventBus) {
	bus.SubscribeAll(f.enqueue)
}

func (f *KafkaForwarder) enqueue(event *Event) error {
	select {
	case f.queue <- event:
		return nil
	default:
		f.logger.Warn().Str("event", event.Type).Msg("kafka queue full, dropping event")
		return fmt.Errorf("kafka queue full")
	}
}

// Run writes queued events until ctx is done, then closes the writer.
func (f *KafkaForwarder) Run(ctx context.Context) {
	defer func() {
		if err := f.writer.Close(); err != nil {
			f.logger.Error().Err(err).Msg("failed to close kafka writer")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-f.queue:
			msg := kafka.Message{
				Topic: f.topic,
				Key:   []byte(event.Type),
				Value: event.Payload,
				Time:  event.CreatedAt,
			}
			if err := f.writer.WriteMessages(ctx, msg); err != nil {
				f.logger.Error().Err(err).Str("event", event.Type).Msg("failed to forward event to kafka")
				continue
			}
			f.logger.Debug().Str("event", event.Type).Msg("event forwarded to kafka")
		}
	}
}
