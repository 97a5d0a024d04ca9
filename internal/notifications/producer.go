package notifications

import (
	"context"
	"fmt"
	"time"

	"bookd/internal/shared/config"
	"bookd/pkg/logger"

	"github.com/IBM/sarama"
)

// Publisher publishes reservation lifecycle events
type Publisher interface {
	Publish(ctx context.Context, event *ReservationEvent) error
	Close() error
}

// KafkaPublisher writes reservation events to a Kafka topic
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *logger.Logger
}

// NewSaramaConfig returns the producer settings used for reservation events
func NewSaramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Timeout = 10 * time.Second
	cfg.Producer.Idempotent = true
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	// Idempotent writes need a single in-flight request
	cfg.Net.MaxOpenRequests = 1
	return cfg
}

// NewPublisher connects to Kafka when enabled, otherwise events are only logged
func NewPublisher(cfg config.KafkaConfig) (Publisher, error) {
	if !cfg.Enabled {
		return NewLogPublisher(), nil
	}

	producer, err := sarama.NewSyncProducer(cfg.Brokers, NewSaramaConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return NewKafkaPublisher(producer, cfg.Topic), nil
}

// NewKafkaPublisher wraps an existing producer
func NewKafkaPublisher(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger.GetDefault().WithComponent("notifications"),
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event *ReservationEvent) error {
	payload, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal reservation event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.PartitionKey()),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
			{Key: []byte("reservation_id"), Value: []byte(event.ReservationID.String())},
			{Key: []byte("producer"), Value: []byte("bookd")},
		},
		Timestamp: event.OccurredAt,
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to send reservation event to Kafka: %w", err)
	}

	p.logger.DebugContext(ctx, "reservation event published",
		"type", string(event.Type),
		"reservation_id", event.ReservationID.String(),
		"partition", partition,
		"offset", offset,
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	return nil
}

// LogPublisher records events in the application log when Kafka is disabled
type LogPublisher struct {
	logger *logger.Logger
}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{logger: logger.GetDefault().WithComponent("notifications")}
}

func (p *LogPublisher) Publish(ctx context.Context, event *ReservationEvent) error {
	p.logger.InfoContext(ctx, "reservation event",
		"type", string(event.Type),
		"reservation_id", event.ReservationID.String(),
		"seats", event.Seats,
	)
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
