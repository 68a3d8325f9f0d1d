// Package publish streams snapshot records to Kafka.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/roach88/simtest/internal/snapshot"
)

// DefaultBatchSize is the number of records buffered before a write.
const DefaultBatchSize = 64

// Config configures a KafkaSink.
type Config struct {
	Brokers   []string
	Topic     string
	BatchSize int
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error
	if len(c.Brokers) == 0 {
		errs = append(errs, errors.New("kafka: at least one broker required"))
	}
	if c.Topic == "" {
		errs = append(errs, errors.New("kafka: topic required"))
	}
	if c.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("kafka: batch size must be >= 0, got %d", c.BatchSize))
	}
	return errors.Join(errs...)
}

// messageWriter is the part of *kafka.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink is a snapshot.Sink publishing each record as a JSON message.
//
// Messages are keyed by run id and stream, so with the hash balancer every
// stream of a run lands on one partition in order.
type KafkaSink struct {
	w         messageWriter
	log       *slog.Logger
	batchSize int
	pending   []kafka.Message
	now       func() time.Time
	sent      int
}

// NewKafkaSink creates a sink writing to cfg.Topic on cfg.Brokers.
func NewKafkaSink(cfg Config, log *slog.Logger) (*KafkaSink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
	return newKafkaSink(w, cfg.BatchSize, log), nil
}

func newKafkaSink(w messageWriter, batchSize int, log *slog.Logger) *KafkaSink {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &KafkaSink{
		w:         w,
		log:       log.With(slog.String("component", "kafka-sink")),
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Write buffers rec and publishes the batch once it is full.
func (k *KafkaSink) Write(ctx context.Context, rec snapshot.Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	k.pending = append(k.pending, kafka.Message{
		Key:     []byte(rec.RunID + "/" + rec.Stream.String()),
		Value:   b,
		Time:    k.now(),
		Headers: []kafka.Header{{Key: "stream", Value: []byte(rec.Stream.String())}},
	})
	if len(k.pending) >= k.batchSize {
		return k.Flush(ctx)
	}
	return nil
}

// Flush publishes buffered records.
func (k *KafkaSink) Flush(ctx context.Context) error {
	if len(k.pending) == 0 {
		return nil
	}
	if err := k.w.WriteMessages(ctx, k.pending...); err != nil {
		return fmt.Errorf("publish %d snapshots: %w", len(k.pending), err)
	}
	k.sent += len(k.pending)
	k.log.Debug("published snapshots", "count", len(k.pending), "total", k.sent)
	k.pending = k.pending[:0]
	return nil
}

// Sent returns how many records have been published.
func (k *KafkaSink) Sent() int { return k.sent }

// Close flushes buffered records and closes the writer.
func (k *KafkaSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	flushErr := k.Flush(ctx)
	return errors.Join(flushErr, k.w.Close())
}
