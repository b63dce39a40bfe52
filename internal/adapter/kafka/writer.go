package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/typhoonwatch/bulletin-etl/internal/config"
	"github.com/typhoonwatch/bulletin-etl/internal/domain"
)

// Writer produces extracted bulletins to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes a batch of extracted bulletins to the
// sink topic in a single WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, bulletins []domain.ExtractedBulletin) error {
	if len(bulletins) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(bulletins))
	for i := range bulletins {
		msg, err := serializeToMessage(bulletins[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an extracted bulletin into a Kafka message
// keyed by the bulletin id so re-extractions land on the same partition.
func serializeToMessage(bulletin domain.ExtractedBulletin) (kafkago.Message, error) {
	data, err := json.Marshal(bulletin)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize extracted bulletin: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(bulletin.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "cyclone", Value: []byte(bulletin.Cyclone)},
			{Key: "processed_at", Value: []byte(bulletin.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
