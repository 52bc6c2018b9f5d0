package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/caterbase/caterbase-backend/pkg/db/models"
	"github.com/caterbase/caterbase-backend/pkg/logger"
)

const (
	defaultRelayBatchSize = 50
	defaultRelayInterval  = 500 * time.Millisecond
)

// Sink receives queued events for delivery. Implementations hand the payload
// to whatever sends the actual email or SMS.
type Sink interface {
	Deliver(ctx context.Context, event models.OutboxEvent) error
}

// Relay drains unpublished outbox rows and hands them to a sink, marking
// each row published or failed.
type Relay struct {
	repo      *Repository
	sink      Sink
	logg      *logger.Logger
	batchSize int
	interval  time.Duration
}

func NewRelay(repo *Repository, sink Sink, logg *logger.Logger) (*Relay, error) {
	if repo == nil {
		return nil, errors.New("outbox repository required")
	}
	if sink == nil {
		return nil, errors.New("delivery sink required")
	}
	return &Relay{
		repo:      repo,
		sink:      sink,
		logg:      logg,
		batchSize: defaultRelayBatchSize,
		interval:  defaultRelayInterval,
	}, nil
}

// ProcessOnce drains a single batch and reports how many rows it handled.
// Delivery failures are recorded per row and do not stop the batch.
func (r *Relay) ProcessOnce(ctx context.Context) (int, error) {
	rows, err := r.repo.FetchUnpublished(r.batchSize)
	if err != nil {
		return 0, err
	}

	for _, row := range rows {
		if err := r.sink.Deliver(ctx, row); err != nil {
			if markErr := r.repo.MarkFailed(row.ID, err); markErr != nil {
				return 0, markErr
			}
			if r.logg != nil {
				r.logg.Error(ctx, "outbox delivery failed", err)
			}
			continue
		}
		if err := r.repo.MarkPublished(row.ID); err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

// Run polls until the context is canceled.
func (r *Relay) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if _, err := r.ProcessOnce(ctx); err != nil {
			if r.logg != nil {
				r.logg.Error(ctx, "outbox relay batch error", err)
			}
		}
	}
}

// LogSink records deliveries through the structured logger. It stands in
// until a real mail or SMS gateway is attached.
type LogSink struct {
	logg *logger.Logger
}

func NewLogSink(logg *logger.Logger) *LogSink {
	return &LogSink{logg: logg}
}

func (s *LogSink) Deliver(ctx context.Context, event models.OutboxEvent) error {
	if s.logg == nil {
		return nil
	}
	fields := map[string]any{
		"event_id":     event.ID.String(),
		"event_type":   string(event.EventType),
		"aggregate_id": event.AggregateID.String(),
	}
	s.logg.Info(s.logg.WithFields(ctx, fields), "outbox event delivered")
	return nil
}
