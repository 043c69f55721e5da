// Package events publishes fulfillment lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"phasegarden/internal/fulfillment/models"
	"phasegarden/pkg/requestcontext"
)

// Kafka produces one record per event, keyed by payment identity so events
// of one fulfillment stay ordered within a partition.
type Kafka struct {
	client *kgo.Client
	topic  string
}

// NewKafka connects a producer. The caller owns Close.
func NewKafka(brokers []string, topic string, opts ...kgo.Opt) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}
	opts = append([]kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.SnappyCompression(), kgo.NoCompression()),
	}, opts...)
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Kafka{client: client, topic: topic}, nil
}

func (k *Kafka) Publish(ctx context.Context, event models.Event) error {
	event = stamp(ctx, event)
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode fulfillment event: %w", err)
	}
	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(event.Provider + ":" + event.PaymentID),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce fulfillment event: %w", err)
	}
	return nil
}

func (k *Kafka) Close() {
	k.client.Close()
}

// Log writes events to the logger. Used when no broker is configured.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Publish(ctx context.Context, event models.Event) error {
	event = stamp(ctx, event)
	l.logger.InfoContext(ctx, "fulfillment event",
		"event_id", event.ID,
		"event_type", event.Type,
		"provider", event.Provider,
		"payment_id", event.PaymentID,
		"delivery_status", event.Status,
		"attempts", event.Attempts,
		"reason", event.Reason,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// Recorder keeps events in memory for tests and the operator CLI dry runs.
type Recorder struct {
	events chan models.Event
}

func NewRecorder(size int) *Recorder {
	return &Recorder{events: make(chan models.Event, size)}
}

// Publish drops the event if the buffer is full.
func (r *Recorder) Publish(ctx context.Context, event models.Event) error {
	select {
	case r.events <- stamp(ctx, event):
	default:
	}
	return nil
}

// Drain returns buffered events without blocking.
func (r *Recorder) Drain() []models.Event {
	var out []models.Event
	for {
		select {
		case e := <-r.events:
			out = append(out, e)
		default:
			return out
		}
	}
}

func stamp(ctx context.Context, event models.Event) models.Event {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = requestcontext.Now(ctx).UTC().Truncate(time.Millisecond)
	}
	return event
}
