package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fittrack/internal/telemetry/metrics"
	"github.com/2beens/fittrack/internal/telemetry/tracing"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
)

var ErrInvalidEventType = errors.New("invalid event type")

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = NopPublisher{}
)

//go:generate mockgen -source=$GOFILE -destination=publisher_mocks_test.go -package=events_test

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON to a single topic, keyed by owner so
// that all events of one user land in the same partition.
type KafkaPublisher struct {
	writer         messageWriter
	metricsManager *metrics.Manager
}

func NewKafkaPublisher(brokers []string, topic string, metricsManager *metrics.Manager) *KafkaPublisher {
	return NewKafkaPublisherWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		BatchTimeout: 20 * time.Millisecond,
		Async:        false,
	}, metricsManager)
}

func NewKafkaPublisherWithWriter(writer messageWriter, metricsManager *metrics.Manager) *KafkaPublisher {
	return &KafkaPublisher{
		writer:         writer,
		metricsManager: metricsManager,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "events.kafka.publish")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
		if p.metricsManager != nil {
			status := "ok"
			if err != nil {
				status = "error"
			}
			p.metricsManager.CounterEventsPublished.WithLabelValues(string(event.Type), status).Inc()
		}
	}()
	span.SetAttributes(attribute.String("event.type", string(event.Type)))

	if !event.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidEventType, event.Type)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OwnerID),
		Value: payload,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}); err != nil {
		return fmt.Errorf("write event message: %w", err)
	}

	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops all events. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
