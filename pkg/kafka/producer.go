package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// Producer emits diff events as the aggregation run produces them
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	requiredAcks := kafka.RequiredAcks(cfg.RequiredAcks)

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           requiredAcks,
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.Topic,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// PublishDiff publishes one diff entry, keyed by record id so all changes to
// a record land in the same partition.
func (p *Producer) PublishDiff(ctx context.Context, entry models.DiffEntry) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishDiff")
	defer span.End()

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(entry.ID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "change_type", Value: []byte(entry.ChangeType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish diff event")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"change_type": entry.ChangeType,
		"record_id":   entry.ID,
	}).Debug("Published diff event")

	return nil
}

// PublishDiffs publishes a run's diff entries in a batch
func (p *Producer) PublishDiffs(ctx context.Context, entries []models.DiffEntry) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishDiffs")
	defer span.End()

	if len(entries) == 0 {
		return nil
	}

	messages := make([]kafka.Message, len(entries))
	for i, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}

		messages[i] = kafka.Message{
			Topic: p.topic,
			Key:   []byte(entry.ID),
			Value: data,
			Headers: []kafka.Header{
				{Key: "change_type", Value: []byte(entry.ChangeType)},
				{Key: "schema_version", Value: []byte("1.0")},
			},
		}
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"batch_size": len(entries),
		}).Error("Failed to publish diff events batch")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"batch_size": len(entries),
	}).Debug("Published diff events batch")

	return nil
}

// RunCompletedEvent announces that an aggregation run finished
type RunCompletedEvent struct {
	Type      string             `json:"type"` // "run.completed"
	RunDate   string             `json:"run_date"`
	Summary   *models.RunSummary `json:"summary"`
	Timestamp time.Time          `json:"timestamp"`
}

// PublishRunCompleted publishes the run summary after a successful run
func (p *Producer) PublishRunCompleted(ctx context.Context, runDate string, summary *models.RunSummary) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishRunCompleted")
	defer span.End()

	event := RunCompletedEvent{
		Type:      "run.completed",
		RunDate:   runDate,
		Summary:   summary,
		Timestamp: time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(runDate),
		Value: data,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish run summary")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"run_date": runDate,
		"added":    summary.Added,
		"updated":  summary.Updated,
	}).Debug("Published run summary")

	return nil
}
