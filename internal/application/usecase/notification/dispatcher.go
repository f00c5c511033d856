package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/DioGolang/GeoDispatch/internal/application/port/outbound"
	"github.com/DioGolang/GeoDispatch/internal/domain/entity"
	"github.com/DioGolang/GeoDispatch/pkg/logger"
	"github.com/DioGolang/GeoDispatch/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

type Result struct {
	SuccessCount int
	FailureCount int
	// Invalid lists tokens the transport rejected permanently. They are
	// scheduled for removal from every owner.
	Invalid []string
}

func (r Result) NothingSent() bool { return r.SuccessCount == 0 && r.FailureCount == 0 }

type DispatcherConfig struct {
	Concurrency    int
	SendTimeout    time.Duration
	CleanupTimeout time.Duration
}

func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		Concurrency:    8,
		SendTimeout:    5 * time.Second,
		CleanupTimeout: 10 * time.Second,
	}
}

// Dispatcher sends one message to a set of device tokens and prunes the
// tokens the transport reports as permanently invalid.
type Dispatcher struct {
	Transport outbound.NotificationTransport
	Tokens    outbound.TokenRepository
	Config    DispatcherConfig
	Logger    logger.Logger
	Metrics   metrics.Metrics
	Clock     func() time.Time

	cleanup sync.WaitGroup
}

func NewDispatcher(
	transport outbound.NotificationTransport,
	tokens outbound.TokenRepository,
	cfg DispatcherConfig,
	log logger.Logger,
	m metrics.Metrics,
) *Dispatcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Dispatcher{
		Transport: transport,
		Tokens:    tokens,
		Config:    cfg,
		Logger:    log,
		Metrics:   m,
		Clock:     time.Now,
	}
}

// Send returns entity.ErrTransportUnavailable only when the transport cannot
// send at all. Per-token failures are counted in the result.
func (d *Dispatcher) Send(ctx context.Context, tokens entity.TokenSet, msg outbound.PushMessage) (Result, error) {
	if tokens.Len() == 0 {
		return Result{}, nil
	}

	msg = d.stamp(msg)
	list := tokens.Slice()
	outcomes := make([]outbound.DeliveryOutcome, len(list))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.Config.Concurrency)
	for i, token := range list {
		g.Go(func() error {
			outcome, err := d.sendOne(gctx, token, msg)
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		d.Logger.Error(ctx, "Notification transport unavailable", logger.WithError(err))
		return Result{}, err
	}

	var res Result
	for i, outcome := range outcomes {
		d.Metrics.RecordNotificationToken(outcome.String())
		switch outcome {
		case outbound.DeliverySuccess:
			res.SuccessCount++
		case outbound.DeliveryPermanentInvalid:
			res.FailureCount++
			res.Invalid = append(res.Invalid, list[i])
		default:
			res.FailureCount++
		}
	}

	d.Logger.Info(ctx, "Notification dispatched",
		logger.Int("tokens", len(list)),
		logger.Int("success", res.SuccessCount),
		logger.Int("failure", res.FailureCount),
	)

	if len(res.Invalid) > 0 {
		d.removeInvalid(ctx, res.Invalid)
	}
	return res, nil
}

func (d *Dispatcher) sendOne(ctx context.Context, token string, msg outbound.PushMessage) (outbound.DeliveryOutcome, error) {
	sendCtx, cancel := context.WithTimeout(ctx, d.Config.SendTimeout)
	defer cancel()

	outcome, err := d.Transport.SendOne(sendCtx, token, msg)
	if err != nil {
		if errors.Is(err, entity.ErrTransportUnavailable) {
			return 0, err
		}
		d.Logger.Warn(ctx, "Notification send failed",
			logger.String("token", entity.Preview(token)),
			logger.WithError(err),
		)
		return outbound.DeliveryTransientFailure, nil
	}
	return outcome, nil
}

// removeInvalid prunes in the background; the caller's result does not wait
// for it.
func (d *Dispatcher) removeInvalid(ctx context.Context, tokens []string) {
	detached := context.WithoutCancel(ctx)
	d.cleanup.Add(1)
	go func() {
		defer d.cleanup.Done()
		cctx, cancel := context.WithTimeout(detached, d.Config.CleanupTimeout)
		defer cancel()

		for _, token := range tokens {
			n, err := d.Tokens.RemoveToken(cctx, token)
			if err != nil {
				d.Logger.Warn(detached, "Failed to remove invalid token",
					logger.String("token", entity.Preview(token)),
					logger.WithError(err),
				)
				continue
			}
			d.Logger.Info(detached, "Removed invalid token",
				logger.String("token", entity.Preview(token)),
				logger.Int("owners", int(n)),
			)
		}
	}()
}

// Wait blocks until pending token cleanups finish. Used on shutdown.
func (d *Dispatcher) Wait() { d.cleanup.Wait() }

func (d *Dispatcher) stamp(msg outbound.PushMessage) outbound.PushMessage {
	data := make(map[string]string, len(msg.Data)+1)
	for k, v := range msg.Data {
		data[k] = v
	}
	data["timestamp"] = d.Clock().UTC().Format(time.RFC3339)
	msg.Data = data
	return msg
}
