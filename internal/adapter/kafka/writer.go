package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/radar-rain-etl/internal/config"
	"github.com/couchcryptid/radar-rain-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes site samples to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	runID  string
	logger *slog.Logger
}

// sampleMessage is the JSON value of one published sample.
type sampleMessage struct {
	RunID     string               `json:"run_id"`
	Round     string               `json:"round"`
	SampledAt time.Time            `json:"sampled_at"`
	Site      string               `json:"site"`
	URL       string               `json:"url"`
	Raw       domain.ChannelCounts `json:"raw"`
	Rain      domain.RainCounts    `json:"rain"`
}

// NewWriter creates a Kafka producer for the configured sample topic.
// runID identifies this collector process on every message.
func NewWriter(cfg *config.Config, runID string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, runID: runID, logger: logger}
}

// PublishRound writes one message per successful sample in a single
// WriteMessages call. Failed samples are skipped.
func (w *Writer) PublishRound(ctx context.Context, round domain.Round) (int, error) {
	msgs := make([]kafkago.Message, 0, len(round.Samples))
	for _, s := range round.Samples {
		if !s.OK() {
			continue
		}
		msg, err := serializeToMessage(w.runID, round, s)
		if err != nil {
			return 0, err
		}
		msgs = append(msgs, msg)
	}
	if len(msgs) == 0 {
		return 0, nil
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return 0, fmt.Errorf("publish round %s: %w", round.Label, err)
	}
	w.logger.Debug("round published", "round", round.Label, "messages", len(msgs))
	return len(msgs), nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a sample into a Kafka message keyed by site,
// so each site's samples land on one partition in round order.
func serializeToMessage(runID string, round domain.Round, s domain.SiteSample) (kafkago.Message, error) {
	data, err := json.Marshal(sampleMessage{
		RunID:     runID,
		Round:     round.Label,
		SampledAt: round.SampledAt,
		Site:      s.Site,
		URL:       s.URL,
		Raw:       s.Raw,
		Rain:      s.Rain,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize sample %s: %w", s.Site, err)
	}
	return kafkago.Message{
		Key:   []byte(s.Site),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "round", Value: []byte(round.Label)},
			{Key: "sampled_at", Value: []byte(round.SampledAt.Format(time.RFC3339))},
			{Key: "run_id", Value: []byte(runID)},
		},
	}, nil
}
