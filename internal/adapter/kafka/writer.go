package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/moment-tensor-etl/internal/config"
	"github.com/couchcryptid/moment-tensor-etl/internal/domain"
	"github.com/couchcryptid/moment-tensor-etl/internal/observability"
)

// batchSize caps the number of messages handed to one WriteMessages call.
const batchSize = 500

// messageWriter is the part of kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes moment tensor records to a Kafka topic.
// It implements pipeline.RecordWriter.
type Writer struct {
	writer  messageWriter
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, metrics: metrics, logger: logger}
}

// WriteRecords serializes and publishes records in batches. Records keyed by
// the same event land on the same partition.
func (w *Writer) WriteRecords(ctx context.Context, records []domain.MomentTensorRecord) error {
	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))
		msgs := make([]kafkago.Message, 0, end-start)
		for i := start; i < end; i++ {
			msg, err := serializeToMessage(records[i])
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
			return fmt.Errorf("publish records: %w", err)
		}
		w.metrics.RecordsPublished.Add(float64(len(msgs)))
	}
	w.logger.Debug("records published", "count", len(records))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a record into a Kafka message keyed by its
// short event identifier.
func serializeToMessage(rec domain.MomentTensorRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize record %s: %w", rec.EventID, err)
	}
	return kafkago.Message{
		Key:   []byte(rec.EventToken()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_id", Value: []byte(rec.EventToken())},
			{Key: "timestamp", Value: []byte(rec.Timestamp.UTC().Format(time.RFC3339Nano))},
		},
	}, nil
}
