//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/monsoonlabs/hazardwatch/internal/adapter/kafka"
	"github.com/monsoonlabs/hazardwatch/internal/config"
	"github.com/monsoonlabs/hazardwatch/internal/domain"
)

const testSinkTopic = "test-hazard-events"

// startKafka launches a single-node Kafka broker in a container and returns
// its bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("hazardwatch-test"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve broker addresses")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic pre-creates a topic so the first produce does not race
// auto-creation.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	controllerConn, err := kafkago.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err, "dial controller")
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}), "create topic")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// publishedMessage holds a deserialized message read from the sink topic.
type publishedMessage struct {
	Event   domain.Event
	Key     string
	Headers map[string]string
}

// readPublished reads a single message from the sink consumer and deserializes it.
func readPublished(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var event domain.Event
	require.NoError(t, json.Unmarshal(msg.Value, &event), "unmarshal sink message")

	return publishedMessage{
		Event:   event,
		Key:     string(msg.Key),
		Headers: headers,
	}
}

// TestPublisherRoundTrip verifies that the publisher writes reconciled events
// to the sink topic keyed by event ID, with hazard and ingestion headers, and
// that a consumer can round-trip them back into domain events.
func TestPublisherRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaEnabled:   true,
		KafkaBrokers:   []string{broker},
		KafkaSinkTopic: testSinkTopic,
	}

	publisher := kafka.NewPublisher(cfg, discardLogger())
	t.Cleanup(func() { _ = publisher.Close() })

	occurred := time.Date(2024, time.July, 12, 9, 30, 0, 0, time.UTC)
	quake := domain.Event{
		ID:         domain.GenerateID(domain.HazardSeismic, occurred, 26.2, 92.9),
		Hazard:     domain.HazardSeismic,
		OccurredAt: occurred,
		Lat:        26.2,
		Lon:        92.9,
		Magnitude:  5.4,
		DepthKm:    18,
		Region:     "Assam",
		Place:      "32km NE of Guwahati, Assam",
		Source:     "usgs",
		IngestedAt: occurred.Add(10 * time.Minute),
	}
	flood := domain.Event{
		ID:         domain.GenerateID(domain.HazardFlood, occurred.Add(time.Hour), 25.6, 85.1),
		Hazard:     domain.HazardFlood,
		OccurredAt: occurred.Add(time.Hour),
		Lat:        25.6,
		Lon:        85.1,
		Severity:   "high",
		RainfallMM: 240,
		Region:     "Bihar",
		Place:      "Patna, Bihar",
		Source:     "floodwatch",
		IngestedAt: occurred.Add(70 * time.Minute),
	}

	require.NoError(t, publisher.Publish(ctx, []domain.Event{quake, flood}))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	first := readPublished(ctx, t, consumer)
	second := readPublished(ctx, t, consumer)

	byID := map[string]publishedMessage{first.Key: first, second.Key: second}
	require.Contains(t, byID, quake.ID)
	require.Contains(t, byID, flood.ID)

	gotQuake := byID[quake.ID]
	assert.Equal(t, "seismic", gotQuake.Headers["hazard"])
	assert.Equal(t, quake.IngestedAt.Format(time.RFC3339), gotQuake.Headers["ingested_at"])
	assert.Equal(t, quake.Region, gotQuake.Event.Region)
	assert.InDelta(t, quake.Magnitude, gotQuake.Event.Magnitude, 1e-9)
	assert.True(t, quake.OccurredAt.Equal(gotQuake.Event.OccurredAt))

	gotFlood := byID[flood.ID]
	assert.Equal(t, "flood", gotFlood.Headers["hazard"])
	assert.Equal(t, flood.Severity, gotFlood.Event.Severity)
	assert.InDelta(t, flood.RainfallMM, gotFlood.Event.RainfallMM, 1e-9)
}

// TestPublisherRepublishSameKey verifies that publishing the same physical
// event twice produces two messages under one key, so downstream compaction
// keeps only the latest revision.
func TestPublisherRepublishSameKey(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaEnabled:   true,
		KafkaBrokers:   []string{broker},
		KafkaSinkTopic: testSinkTopic,
	}

	publisher := kafka.NewPublisher(cfg, discardLogger())
	t.Cleanup(func() { _ = publisher.Close() })

	occurred := time.Date(2024, time.August, 3, 14, 0, 0, 0, time.UTC)
	preliminary := domain.Event{
		ID:         domain.GenerateID(domain.HazardSeismic, occurred, 34.1, 74.8),
		Hazard:     domain.HazardSeismic,
		OccurredAt: occurred,
		Lat:        34.1,
		Lon:        74.8,
		Magnitude:  4.8,
		Region:     "Jammu and Kashmir",
		Source:     "usgs",
		IngestedAt: occurred.Add(5 * time.Minute),
	}
	refined := preliminary
	refined.Magnitude = 5.1
	refined.Source = "ncs"
	refined.IngestedAt = occurred.Add(45 * time.Minute)

	require.NoError(t, publisher.Publish(ctx, []domain.Event{preliminary}))
	require.NoError(t, publisher.Publish(ctx, []domain.Event{refined}))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	first := readPublished(ctx, t, consumer)
	second := readPublished(ctx, t, consumer)

	assert.Equal(t, preliminary.ID, first.Key)
	assert.Equal(t, preliminary.ID, second.Key)
	assert.InDelta(t, 4.8, first.Event.Magnitude, 1e-9)
	assert.InDelta(t, 5.1, second.Event.Magnitude, 1e-9)
	assert.Equal(t, "ncs", second.Event.Source)
}
