//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typhoonwatch/bulletin-etl/internal/adapter/kafka"
	"github.com/typhoonwatch/bulletin-etl/internal/config"
	"github.com/typhoonwatch/bulletin-etl/internal/domain"
	"github.com/typhoonwatch/bulletin-etl/internal/observability"
	"github.com/typhoonwatch/bulletin-etl/internal/pipeline"
)

const (
	testSourceTopic = "test-raw-bulletins"
	testSinkTopic   = "test-extracted-bulletins"
)

// transformedMessage holds a deserialized envelope read from the sink topic.
type transformedMessage struct {
	Bulletin domain.ExtractedBulletin
	Key      string
	Headers  map[string]string
}

// readTransformed reads a single message from the sink consumer and deserializes it.
func readTransformed(ctx context.Context, t *testing.T, consumer *kafkago.Reader) transformedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var bulletin domain.ExtractedBulletin
	require.NoError(t, json.Unmarshal(msg.Value, &bulletin), "unmarshal sink message")

	return transformedMessage{
		Bulletin: bulletin,
		Key:      string(msg.Key),
		Headers:  headers,
	}
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader (BatchExtractor)
// and kafka.Writer (BatchLoader) correctly round-trip a bulletin through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("test-reader-%d", time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}

	// Publish one raw bulletin document to the source topic.
	bulletins := loadMockData(t)
	uwan := bulletins[0] // UWAN TCB#14: two signal levels plus heavy rainfall
	payload, err := json.Marshal(uwan)
	require.NoError(t, err)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(uwan.Cyclone + "-" + uwan.Bulletin),
		Value: payload,
	}))

	// Extract via kafka.Reader.
	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawDocument
	for {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("UWAN-TCB#14"), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")

	// Commit the offset.
	require.NoError(t, raw.Commit(ctx))

	// Transform the raw document into an extraction envelope.
	transformer := pipeline.NewTransformer(loadMockGazetteer(t), nil, discardLogger())
	out, err := transformer.Transform(ctx, raw)
	require.NoError(t, err)

	// Load via kafka.Writer.
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	require.NoError(t, writer.LoadBatch(ctx, []domain.ExtractedBulletin{out}))

	// Read from the sink topic and verify key, headers, and record fields.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	tm := readTransformed(ctx, t, consumer)

	// The bulletin id is a digest of the identity fields, so it is stable
	// across runs and doubles as the partition key.
	assert.Equal(t, "tcb-06c6f487", tm.Key)
	assert.Equal(t, "UWAN", tm.Headers["cyclone"])
	assert.Contains(t, tm.Headers, "processed_at")
	_, err = time.Parse(time.RFC3339, tm.Headers["processed_at"])
	assert.NoError(t, err, "processed_at should be valid RFC3339")

	assert.Equal(t, "tcb-06c6f487", tm.Bulletin.ID)
	assert.Equal(t, "UWAN", tm.Bulletin.Cyclone)
	require.NotNil(t, tm.Bulletin.Record)
	rec := tm.Bulletin.Record
	require.NotNil(t, rec.IssuedAt)
	assert.Equal(t, "2025-11-10 17:00:00", *rec.IssuedAt)
	assert.Equal(t, "Maximum sustained winds of 185 km/h near the center", rec.Windspeed)
	require.NotNil(t, rec.Signal2.Luzon)
	assert.Equal(t, "Catanduanes, Camarines Norte", *rec.Signal2.Luzon)
}

// TestPipelineEndToEnd wires the full pipeline (Reader → Transformer → Writer)
// with real Kafka and verifies every raw fixture lands on the sink topic,
// including the unreadable one as a null-record envelope.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("test-pipeline-%d", time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}

	// Publish all raw bulletin fixtures to the source topic.
	bulletins := loadMockData(t)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	msgs := make([]kafkago.Message, 0, len(bulletins))
	for _, raw := range bulletins {
		payload, err := json.Marshal(raw)
		require.NoError(t, err)
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(raw.Cyclone + "-" + raw.Bulletin),
			Value: payload,
		})
	}
	require.NoError(t, producer.WriteMessages(ctx, msgs...))

	// Wire up the pipeline.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	transformer := pipeline.NewTransformer(loadMockGazetteer(t), nil, discardLogger())

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, transformer, writer, discardLogger(), metrics, 50)

	// Run the pipeline in a goroutine.
	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	// Read all extracted envelopes from the sink topic.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := make([]transformedMessage, 0, len(bulletins))
	for len(received) < len(bulletins) {
		tm := readTransformed(ctx, t, consumer)
		received = append(received, tm)
	}

	pipelineCancel()
	require.NoError(t, <-errCh)

	require.Len(t, received, len(bulletins))
	byCyclone := map[string]transformedMessage{}
	for _, tm := range received {
		byCyclone[tm.Bulletin.Cyclone] = tm

		// Every message is keyed by the bulletin id and carries headers.
		assert.Equal(t, tm.Bulletin.ID, tm.Key, "key should be the bulletin id")
		assert.NotEmpty(t, tm.Headers["cyclone"], "missing cyclone header")
		assert.Contains(t, tm.Headers, "processed_at", "missing processed_at header")
		_, err := time.Parse(time.RFC3339, tm.Headers["processed_at"])
		assert.NoError(t, err, "invalid processed_at format")
		assert.False(t, tm.Bulletin.ProcessedAt.IsZero(), "missing processed_at")
	}

	// UWAN TCB#14 carries two signal levels and a heavy rainfall warning.
	uwan, ok := byCyclone["UWAN"]
	require.True(t, ok, "expected UWAN envelope on sink topic")
	require.NotNil(t, uwan.Bulletin.Record)
	require.NotNil(t, uwan.Bulletin.Record.Signal1.Luzon)
	assert.Equal(t, "Ilocos Norte, Apayao", *uwan.Bulletin.Record.Signal1.Luzon)
	require.NotNil(t, uwan.Bulletin.Record.Signal1.Visayas)
	assert.Equal(t, "Biliran", *uwan.Bulletin.Record.Signal1.Visayas)
	require.NotNil(t, uwan.Bulletin.Record.Signal2.Luzon)
	assert.Equal(t, "Catanduanes, Camarines Norte", *uwan.Bulletin.Record.Signal2.Luzon)
	assert.NotNil(t, uwan.Bulletin.Record.Rainfall2.Visayas)

	// PEPITO TCB#5 has no wind signal in effect but light to moderate rains.
	pepito, ok := byCyclone["PEPITO"]
	require.True(t, ok, "expected PEPITO envelope on sink topic")
	require.NotNil(t, pepito.Bulletin.Record)
	assert.True(t, pepito.Bulletin.Record.Signal1.Empty(), "PEPITO should carry no signal 1 tags")
	assert.True(t, pepito.Bulletin.Record.Signal2.Empty(), "PEPITO should carry no signal 2 tags")
	require.NotNil(t, pepito.Bulletin.Record.Rainfall3.Mindanao)
	assert.Contains(t, *pepito.Bulletin.Record.Rainfall3.Mindanao, "Dinagat Islands")
	assert.Equal(t, "Maximum sustained winds of 85 km/h near the center", pepito.Bulletin.Record.Windspeed)

	// AGHON TCB#2 has unreadable text and is published as a null record.
	aghon, ok := byCyclone["AGHON"]
	require.True(t, ok, "expected AGHON envelope on sink topic")
	assert.Nil(t, aghon.Bulletin.Record, "unreadable bulletin should publish a null record")
	assert.NotEmpty(t, aghon.Bulletin.ID)
}

// TestPipelineTransformError verifies that an undecodable message (poison pill)
// is skipped and the pipeline continues processing valid documents.
func TestPipelineTransformError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("test-poison-%d", time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}

	// Publish: invalid JSON, then a valid bulletin document.
	bulletins := loadMockData(t)
	validPayload, err := json.Marshal(bulletins[0])
	require.NoError(t, err)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("good"), Value: validPayload},
	))

	// Wire up the pipeline.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	transformer := pipeline.NewTransformer(loadMockGazetteer(t), nil, discardLogger())

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, transformer, writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	// Only the valid document should appear on the sink topic.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	tm := readTransformed(ctx, t, consumer)
	assert.Equal(t, "UWAN", tm.Bulletin.Cyclone)
	require.NotNil(t, tm.Bulletin.Record)

	// Verify no second message arrives (the poison pill was skipped).
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err = consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
