package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/typhoonwatch/bulletin-etl/internal/config"
	"github.com/typhoonwatch/bulletin-etl/internal/domain"
)

// Reader consumes collector documents from the source topic as part of a
// consumer group. It implements pipeline.BatchExtractor.
type Reader struct {
	reader        *kafkago.Reader
	flushInterval time.Duration
	logger        *slog.Logger
}

// NewReader creates a Kafka consumer for the configured source topic.
// Offsets are committed explicitly by the pipeline after a batch is loaded,
// never on an interval.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.KafkaGroupID,
		Topic:    cfg.KafkaSourceTopic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Reader{reader: r, flushInterval: cfg.BatchFlushInterval, logger: logger}
}

// ExtractBatch fetches up to batchSize documents from the source topic. The
// fetch window is bounded by the flush interval so a quiet topic still
// yields partial batches instead of blocking indefinitely.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawDocument, error) {
	batchCtx, cancel := context.WithTimeout(ctx, r.flushInterval)
	defer cancel()

	docs := make([]domain.RawDocument, 0, batchSize)
	for len(docs) < batchSize {
		msg, err := r.reader.FetchMessage(batchCtx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				break
			}
			return nil, fmt.Errorf("fetch message: %w", err)
		}
		docs = append(docs, mapMessageToRawDocument(msg, r.reader.CommitMessages))
	}
	return docs, nil
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

// mapMessageToRawDocument converts a consumed Kafka message into the domain
// representation. The document's Commit closure acknowledges exactly this
// message through the reader's consumer group.
func mapMessageToRawDocument(msg kafkago.Message, commit func(context.Context, ...kafkago.Message) error) domain.RawDocument {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return domain.RawDocument{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
		Commit: func(ctx context.Context) error {
			return commit(ctx, msg)
		},
	}
}
