//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/climate-risk-engine/internal/domain"
)

// startKafka launches a single-node Kafka container and returns its broker
// address. The container is torn down with the test.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.8.0",
		tckafka.WithClusterID("risk-engine-test"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(container)
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic on the given broker.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr(v float64) *float64 { return &v }

// stormWindow builds a window whose last hours carry high wind, falling
// pressure, and heavy rain, which the reference configuration classifies
// as elevated storm and flood risk.
func stormWindow(locationID string) domain.RawWindowRecord {
	base := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	obs := make([]domain.RawObservationRecord, 6)
	for i := range obs {
		k := float64(i)
		obs[i] = domain.RawObservationRecord{
			Timestamp:     base.Add(time.Duration(i) * time.Hour),
			Temperature:   ptr(22 - k),
			Humidity:      ptr(70 + 4*k),
			Pressure:      ptr(1005 - 4*k),
			WindSpeed:     ptr(8 + 4*k),
			WindGust:      ptr(12 + 6*k),
			Precipitation: ptr(10 + 20*k),
			CloudCover:    ptr(60 + 7*k),
			Visibility:    ptr(9000 - 1200*k),
		}
	}
	return domain.RawWindowRecord{
		Location: domain.LocationRecord{
			ID:        locationID,
			Lat:       29.76,
			Lon:       -95.36,
			Elevation: 12,
		},
		Observations: obs,
	}
}

// calmWindow builds a benign window that should land in the low band.
func calmWindow(locationID string) domain.RawWindowRecord {
	base := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	obs := make([]domain.RawObservationRecord, 4)
	for i := range obs {
		obs[i] = domain.RawObservationRecord{
			Timestamp:     base.Add(time.Duration(i) * time.Hour),
			Temperature:   ptr(18),
			Humidity:      ptr(55),
			Pressure:      ptr(1015),
			WindSpeed:     ptr(3),
			Precipitation: ptr(0),
			CloudCover:    ptr(20),
			Visibility:    ptr(20000),
		}
	}
	return domain.RawWindowRecord{
		Location: domain.LocationRecord{
			ID:        locationID,
			Lat:       44.98,
			Lon:       -93.26,
			Elevation: 250,
		},
		Observations: obs,
	}
}
