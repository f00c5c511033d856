package event

import (
	"context"
	"strconv"
	"time"

	"github.com/DioGolang/GeoDispatch/internal/infra/database"
	"github.com/DioGolang/GeoDispatch/pkg/events"
	"github.com/DioGolang/GeoDispatch/pkg/logger"
	"github.com/DioGolang/GeoDispatch/pkg/metrics"
	otelpkg "github.com/DioGolang/GeoDispatch/pkg/otel"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type OutboxStore interface {
	FetchAndClaim(ctx context.Context, limit int32) ([]database.OutboxEvent, error)
	MarkPublished(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	ResetStuck(ctx context.Context, olderThan time.Duration) (int64, error)
	DeleteOld(ctx context.Context, olderThan time.Duration) (int64, error)
}

type RelayConfig struct {
	BatchSize      int32
	Workers        int
	PollInterval   time.Duration
	PublishTimeout time.Duration
	RescueInterval time.Duration
	StuckAfter     time.Duration
	RetainFor      time.Duration
}

func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		BatchSize:      100,
		Workers:        10,
		PollInterval:   100 * time.Millisecond,
		PublishTimeout: 5 * time.Second,
		RescueInterval: 5 * time.Minute,
		StuckAfter:     5 * time.Minute,
		RetainFor:      7 * 24 * time.Hour,
	}
}

type OutboxRelay struct {
	store     OutboxStore
	publisher events.Publisher
	logger    logger.Logger
	metrics   metrics.Metrics
	cfg       RelayConfig
}

func NewOutboxRelay(store OutboxStore, pub events.Publisher, log logger.Logger, m metrics.Metrics, cfg RelayConfig) *OutboxRelay {
	return &OutboxRelay{
		store:     store,
		publisher: pub,
		logger:    log,
		metrics:   m,
		cfg:       cfg,
	}
}

func (r *OutboxRelay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.processBatch(ctx)
		}
	}
}

// processBatch claims a batch in a short transaction, then publishes outside
// of it.
func (r *OutboxRelay) processBatch(ctx context.Context) int {
	batch, err := r.store.FetchAndClaim(ctx, r.cfg.BatchSize)
	if err != nil {
		r.logger.Error(ctx, "Failed to fetch outbox batch", logger.WithError(err))
		return 0
	}
	if len(batch) == 0 {
		return 0
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for _, evt := range batch {
		g.Go(func() error {
			return r.processSingleEvent(gCtx, evt)
		})
	}
	if err := g.Wait(); err != nil {
		r.logger.Error(ctx, "Batch processing had errors", logger.WithError(err))
	}
	return len(batch)
}

func (r *OutboxRelay) processSingleEvent(ctx context.Context, evt database.OutboxEvent) error {
	pubCtx, cancel := context.WithTimeout(otelpkg.ContextFromTraceJSON(ctx, evt.TraceContext), r.cfg.PublishTimeout)
	defer cancel()

	headers := map[string]string{
		HeaderEventVersion: strconv.FormatInt(int64(evt.EventVersion), 10),
		HeaderEventID:      evt.ID.String(),
		HeaderAggregateID:  evt.AggregateID,
		HeaderEventType:    evt.EventType,
	}

	err := r.publisher.Publish(pubCtx, evt.Topic, evt.Payload, headers)

	// state updates must land even if the batch context is cancelled
	stateCtx := context.WithoutCancel(ctx)
	if err != nil {
		r.metrics.IncOutboxEventsProcessed("failed")
		r.logger.Warn(ctx, "Failed to publish event",
			logger.String("id", evt.ID.String()),
			logger.WithError(err))
		return r.store.MarkFailed(stateCtx, evt.ID, err.Error())
	}

	r.metrics.IncOutboxEventsProcessed("published")
	return r.store.MarkPublished(stateCtx, evt.ID)
}

// RunRescuer returns stuck and failed events to the queue and purges old
// published ones.
func (r *OutboxRelay) RunRescuer(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.RescueInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.rescue(ctx)
		}
	}
}

func (r *OutboxRelay) rescue(ctx context.Context) {
	if n, err := r.store.ResetStuck(ctx, r.cfg.StuckAfter); err != nil {
		r.logger.Error(ctx, "Failed to reset stuck events", logger.WithError(err))
	} else if n > 0 {
		r.logger.Info(ctx, "Reset stuck outbox events", logger.Int("count", int(n)))
	}

	if _, err := r.store.DeleteOld(ctx, r.cfg.RetainFor); err != nil {
		r.logger.Error(ctx, "Outbox cleanup failed", logger.WithError(err))
	}
}
