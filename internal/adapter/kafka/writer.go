// Package kafka publishes per-county threat events to the sink topic so
// downstream alerting can react without polling the artifact store.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/county-risk-fusion/internal/config"
	"github.com/couchcryptid/county-risk-fusion/internal/domain"
)

// Writer produces threat events to a Kafka topic.
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

// PublishThreats serializes and publishes one classifier run's county
// threats in a single WriteMessages call. The generated_at stamp rides in
// a header so consumers can discard stale runs without decoding the body.
func (w *Writer) PublishThreats(ctx context.Context, generatedAt string, threats []domain.CountyThreat) error {
	if len(threats) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(threats))
	for i := range threats {
		msg, err := serializeToMessage(threats[i], generatedAt)
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

// serializeToMessage marshals a CountyThreat into a Kafka message keyed by
// FIPS so a county's events stay ordered within a partition.
func serializeToMessage(t domain.CountyThreat, generatedAt string) (kafkago.Message, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize county threat: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(t.FIPS),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "threat_level", Value: []byte(t.ThreatLevel)},
			{Key: "generated_at", Value: []byte(generatedAt)},
		},
	}, nil
}
