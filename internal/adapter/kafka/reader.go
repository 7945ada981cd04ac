// Package kafka consumes observation reports from a Kafka topic for
// deployments where the collector publishes records instead of dropping CSV
// extracts.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/oceanclim/icoads-precip-etl/internal/config"
	"github.com/oceanclim/icoads-precip-etl/internal/domain"
)

// drainTimeout bounds how long ReadBatch waits for messages after the
// first one, so a quiet topic still yields partial batches promptly.
const drainTimeout = 500 * time.Millisecond

// messageReader is the slice of kafkago.Reader the source consumes, split
// out so batch and termination semantics are testable without a broker.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafkago.Message, error)
	Close() error
}

// Reader consumes JSON observation reports from the source topic. It
// implements pipeline.Source: once the topic stays quiet for the configured
// idle timeout, ReadBatch returns io.EOF and the run proceeds to finalize,
// so a Kafka-fed run completes like a file-fed one.
type Reader struct {
	reader messageReader
	logger *slog.Logger
	idle   time.Duration

	malformed int64
}

// NewReader creates a consumer-group reader for the configured topic.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 10 << 20,
	})
	return &Reader{reader: r, logger: logger, idle: cfg.KafkaIdleTimeout}
}

// ReadBatch waits up to the idle timeout for a first message, then drains up
// to max messages or until the drain timeout elapses. An idle topic returns
// io.EOF, ending the run. Messages that fail to decode are skipped with a
// warning; their offsets are still committed by the group reader.
func (r *Reader) ReadBatch(ctx context.Context, max int) ([]domain.Observation, error) {
	batch := make([]domain.Observation, 0, max)

	idleCtx, cancelIdle := context.WithTimeout(ctx, r.idle)
	defer cancelIdle()
	msg, err := r.reader.ReadMessage(idleCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			r.logger.Info("topic idle, ending ingestion", "idle_timeout", r.idle)
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read kafka message: %w", err)
	}
	if obs, ok := r.decode(msg); ok {
		batch = append(batch, obs)
	}

	drainCtx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()
	for len(batch) < max {
		msg, err := r.reader.ReadMessage(drainCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				break
			}
			return batch, nil
		}
		if obs, ok := r.decode(msg); ok {
			batch = append(batch, obs)
		}
	}
	return batch, nil
}

// decode unmarshals one message into an Observation, defaulting a missing
// ww field to PresentWeatherMissing.
func (r *Reader) decode(msg kafkago.Message) (domain.Observation, bool) {
	report := domain.Observation{PresentWeather: domain.PresentWeatherMissing}
	if err := json.Unmarshal(msg.Value, &report); err != nil {
		r.malformed++
		r.logger.Warn("skipping undecodable report",
			"error", err,
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
		)
		return domain.Observation{}, false
	}
	report.Lon = domain.NormalizeLon(report.Lon)
	return report, true
}

// Malformed returns the number of messages skipped so far.
func (r *Reader) Malformed() int64 { return r.malformed }

// Close shuts down the consumer-group reader.
func (r *Reader) Close() error {
	return r.reader.Close()
}
