//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/typhoonwatch/bulletin-etl/internal/domain"
	"github.com/typhoonwatch/bulletin-etl/internal/gazetteer"
)

var (
	kafkaOnce   sync.Once
	kafkaBroker string
	kafkaErr    error
)

// startKafka starts a single Kafka container shared by the whole test run
// and returns its broker address. The container lives until the process
// exits; testcontainers' reaper cleans it up afterwards.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	kafkaOnce.Do(func() {
		ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
			tckafka.WithClusterID("bulletin-etl-test"))
		if err != nil {
			kafkaErr = fmt.Errorf("start kafka container: %w", err)
			return
		}
		brokers, err := ctr.Brokers(ctx)
		if err != nil {
			kafkaErr = fmt.Errorf("resolve kafka brokers: %w", err)
			return
		}
		if len(brokers) == 0 {
			kafkaErr = errors.New("kafka container reported no brokers")
			return
		}
		kafkaBroker = brokers[0]
	})
	if kafkaErr != nil {
		t.Fatalf("kafka test harness: %v", kafkaErr)
	}
	return kafkaBroker
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}), "create topic %s", topic)
}

// loadMockData reads the raw bulletin fixtures checked in under data/mock.
func loadMockData(t *testing.T) []domain.RawBulletin {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("..", "..", "data", "mock", "bulletins_raw.json"))
	require.NoError(t, err, "read raw bulletin fixtures")

	var bulletins []domain.RawBulletin
	require.NoError(t, json.Unmarshal(data, &bulletins), "decode raw bulletin fixtures")
	require.NotEmpty(t, bulletins, "raw bulletin fixtures are empty")
	return bulletins
}

// loadMockGazetteer builds a location index from the sample PSGC table.
func loadMockGazetteer(t *testing.T) *gazetteer.Index {
	t.Helper()

	ix, err := gazetteer.Load(filepath.Join("..", "..", "data", "mock", "gazetteer_sample.csv"))
	require.NoError(t, err, "load sample gazetteer")
	return ix
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
