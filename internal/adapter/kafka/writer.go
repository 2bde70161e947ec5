package kafka

import (
	"context"
	"log/slog"
	"sort"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/climate-risk-engine/internal/config"
	"github.com/couchcryptid/climate-risk-engine/internal/domain"
)

// Writer publishes serialized assessments to the sink topic.
// It implements engine.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a producer for the configured sink topic with full-acks
// durability.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch writes all records in one produce call. Partial batches are not
// committed upstream on error, so redelivery keeps the sink consistent.
func (w *Writer) LoadBatch(ctx context.Context, records []domain.OutputRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i, rec := range records {
		msgs[i] = kafkago.Message{
			Key:     []byte(rec.Key),
			Value:   rec.Value,
			Headers: mapHeaders(rec.Headers),
		}
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

// mapHeaders renders header maps in sorted key order so produced messages are
// byte-stable for a given assessment.
func mapHeaders(headers map[string]string) []kafkago.Header {
	if len(headers) == 0 {
		return nil
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]kafkago.Header, len(keys))
	for i, k := range keys {
		out[i] = kafkago.Header{Key: k, Value: []byte(headers[k])}
	}
	return out
}

func (w *Writer) Close() error {
	return w.writer.Close()
}
