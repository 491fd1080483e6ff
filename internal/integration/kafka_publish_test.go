//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/radar-rain-etl/internal/adapter/csvstore"
	"github.com/couchcryptid/radar-rain-etl/internal/adapter/kafka"
	"github.com/couchcryptid/radar-rain-etl/internal/adapter/radar"
	"github.com/couchcryptid/radar-rain-etl/internal/config"
	"github.com/couchcryptid/radar-rain-etl/internal/domain"
	"github.com/couchcryptid/radar-rain-etl/internal/observability"
	"github.com/couchcryptid/radar-rain-etl/internal/pipeline"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTopic = "test-radar-rain-samples"

type publishedSample struct {
	RunID string               `json:"run_id"`
	Round string               `json:"round"`
	Site  string               `json:"site"`
	Raw   domain.ChannelCounts `json:"raw"`
	Rain  domain.RainCounts    `json:"rain"`
}

// TestCollectorPublishesRound runs one real round against an HTTP radar
// stub, persists it to disk, and reads the published samples back from Kafka.
func TestCollectorPublishesRound(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	srv := radarServer(t, 8, 8, color.RGBA{R: 2, G: 200, B: 2, A: 255})
	historyPath := filepath.Join(t.TempDir(), "rainfall_data.csv")

	cfg := &config.Config{
		URLs:           config.SiteURLs(srv.URL, []string{"ist", "ank"}),
		Stations:       domain.DefaultStations,
		Circle:         domain.Circle{Center: domain.Point{X: 4, Y: 4}, Radius: 10},
		Ignore:         domain.NewIgnoreSet(domain.Black),
		Threshold:      5,
		NoiseFloor:     domain.NoiseFloor{Light: 4},
		SampleInterval: time.Hour,
		FailurePolicy:  config.PolicyIsolate,
		HistoryPath:    historyPath,
		KafkaBrokers:   []string{broker},
		KafkaTopic:     testTopic,
		KafkaEnabled:   true,
	}

	logger := discardLogger()
	metrics := observability.NewUnregisteredMetrics()
	runID := uuid.NewString()

	writer := kafka.NewWriter(cfg, runID, logger)
	t.Cleanup(func() { _ = writer.Close() })

	store := csvstore.NewFileStore(historyPath, nil, logger)
	client := radar.NewClient(10*time.Second, 4, metrics, logger)
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.May, 1, 6, 30, 0, 0, time.UTC))
	collector := pipeline.New(cfg, client, store, writer, clock, logger, metrics)

	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- collector.Run(runCtx) }()

	// The loop parks on the interval timer once the round is persisted and published.
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	stop()
	require.NoError(t, <-done)
	require.NoError(t, collector.CheckReadiness(ctx))

	// History file on disk.
	data, err := os.ReadFile(historyPath)
	require.NoError(t, err)
	assert.Equal(t, "City,Rain Type,2024-05-01_06-30\n"+
		"Ankara,Heavy Rain,0\n"+
		"Ankara,Light Rain,60\n"+
		"Ankara,Moderate Rain,64\n"+
		"Istanbul,Heavy Rain,0\n"+
		"Istanbul,Light Rain,60\n"+
		"Istanbul,Moderate Rain,64\n", string(data))

	// Published samples, in site order.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1 << 20,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	for _, wantSite := range []string{"Istanbul", "Ankara"} {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read sample for %s", wantSite)

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, wantSite, string(msg.Key))
		assert.Equal(t, "2024-05-01_06-30", headers["round"])
		assert.Equal(t, runID, headers["run_id"])
		assert.Equal(t, "2024-05-01T06:30:00Z", headers["sampled_at"])

		var got publishedSample
		require.NoError(t, json.Unmarshal(msg.Value, &got))
		assert.Equal(t, wantSite, got.Site)
		assert.Equal(t, domain.ChannelCounts{Red: 64, Green: 0, Blue: 64}, got.Raw)
		assert.Equal(t, domain.RainCounts{Light: 60, Moderate: 64, Heavy: 0}, got.Rain)
	}
}
