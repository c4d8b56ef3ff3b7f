// Package worker relays audit outbox rows to Kafka. The outbox write happens
// inside each operation's transaction; this worker is the asynchronous half
// that makes Kafka eventually consistent with the store without ever losing
// an event.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"schoolbus/internal/audit"
	"schoolbus/internal/platform/metrics"
)

const defaultBatchSize = 100

// Outbox is the slice of the audit store the worker consumes.
type Outbox interface {
	PendingOutbox(ctx context.Context, limit int) ([]audit.OutboxRow, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, publishedAt time.Time) error
}

// Worker polls the outbox and publishes rows to Kafka.
type Worker struct {
	outbox       Outbox
	client       *kgo.Client
	topic        string
	pollInterval time.Duration
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

func New(outbox Outbox, client *kgo.Client, topic string, pollInterval time.Duration, logger *slog.Logger, m *metrics.Metrics) *Worker {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &Worker{
		outbox:       outbox,
		client:       client,
		topic:        topic,
		pollInterval: pollInterval,
		logger:       logger,
		metrics:      m,
	}
}

// EnsureTopic creates the audit topic when it does not exist yet.
func (w *Worker) EnsureTopic(ctx context.Context) error {
	adm := kadm.NewClient(w.client)
	resp, err := adm.CreateTopics(ctx, 1, 1, nil, w.topic)
	if err != nil {
		return err
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return r.Err
		}
	}
	return nil
}

// Run polls until ctx is cancelled. Publish failures are logged and retried
// on the next tick; rows stay in the outbox until the broker acknowledges.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.drain(ctx); err != nil {
				w.logger.ErrorContext(ctx, "audit outbox drain failed", "error", err)
			}
		}
	}
}

func (w *Worker) drain(ctx context.Context) error {
	rows, err := w.outbox.PendingOutbox(ctx, defaultBatchSize)
	if err != nil {
		return err
	}
	for _, row := range rows {
		record := &kgo.Record{
			Topic: w.topic,
			Key:   []byte(row.EventID.String()),
			Value: row.Payload,
		}
		if err := w.client.ProduceSync(ctx, record).FirstErr(); err != nil {
			// Leave the row pending; the next tick retries it. Ordering per
			// event key is preserved because rows drain oldest-first.
			return err
		}
		if err := w.outbox.MarkPublished(ctx, row.ID, time.Now()); err != nil {
			return err
		}
		w.metrics.IncAuditEventsRelayed()
	}
	return nil
}
