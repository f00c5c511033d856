package proximity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/DioGolang/GeoDispatch/internal/application/port/outbound"
	"github.com/DioGolang/GeoDispatch/internal/application/usecase/notification"
	"github.com/DioGolang/GeoDispatch/internal/domain/entity"
	"github.com/DioGolang/GeoDispatch/internal/domain/geo"
	"github.com/DioGolang/GeoDispatch/pkg/logger"
	"github.com/DioGolang/GeoDispatch/pkg/metrics"
)

const (
	ApproachingTitle = "Driver is approaching"
	ApproachingBody  = "Your driver is on the way and will arrive shortly"

	DefaultClaimTTL = 30 * time.Second
)

// Notification statuses recorded per evaluated order.
const (
	StatusSent            = "sent"
	StatusNotDelivered    = "not_delivered"
	StatusNoTokens        = "no_tokens"
	StatusInFlight        = "in_flight"
	StatusAlreadyNotified = "already_notified"
	StatusTransportDown   = "transport_unavailable"
)

type Sender interface {
	Send(ctx context.Context, tokens entity.TokenSet, msg outbound.PushMessage) (notification.Result, error)
}

type CheckReport struct {
	Evaluated int
	Notified  int
}

// Coordinator sends the "driver approaching" notification at most once per
// order, even when checks for the same driver overlap.
type Coordinator struct {
	Orders   outbound.OrderRepository
	Tokens   outbound.TokenRepository
	Claims   outbound.ClaimStore
	Sender   Sender
	ClaimTTL time.Duration
	Logger   logger.Logger
	Metrics  metrics.Metrics
}

func NewCoordinator(
	orders outbound.OrderRepository,
	tokens outbound.TokenRepository,
	claims outbound.ClaimStore,
	sender Sender,
	log logger.Logger,
	m metrics.Metrics,
) *Coordinator {
	return &Coordinator{
		Orders:   orders,
		Tokens:   tokens,
		Claims:   claims,
		Sender:   sender,
		ClaimTTL: DefaultClaimTTL,
		Logger:   log,
		Metrics:  m,
	}
}

// Check evaluates every live order of the driver against the driver's
// position. Only store failures are returned; notification failures leave
// the order eligible for a later check.
func (c *Coordinator) Check(ctx context.Context, driverID string, pos geo.Coordinate) (CheckReport, error) {
	if driverID == "" {
		return CheckReport{}, entity.ErrIDIsRequired
	}
	if err := pos.Validate(); err != nil {
		return CheckReport{}, err
	}

	orders, err := c.Orders.FindActiveByDriver(ctx, driverID)
	if err != nil {
		return CheckReport{}, storeError(err)
	}

	var (
		report CheckReport
		errs   []error
	)
	for _, order := range orders {
		km, ok := order.ShouldNotifyApproaching(pos)
		if !ok {
			continue
		}
		report.Evaluated++
		sent, err := c.notify(ctx, order.ID(), driverID, pos, km)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if sent {
			report.Notified++
		}
	}
	return report, errors.Join(errs...)
}

func (c *Coordinator) notify(ctx context.Context, orderID, driverID string, pos geo.Coordinate, km float64) (bool, error) {
	log := c.Logger.With(
		logger.String("order_id", orderID),
		logger.String("driver_id", driverID),
	)

	key := claimKey(orderID)
	claimed, err := c.Claims.SetNX(ctx, key, driverID, c.ClaimTTL)
	if err != nil {
		return false, storeError(err)
	}
	if !claimed {
		c.Metrics.RecordApproachingNotification(StatusInFlight)
		log.Debug(ctx, "Approaching notification already in flight")
		return false, nil
	}

	// once a device was reached the claim is held until it expires
	keepClaim := false
	defer func() {
		if keepClaim {
			return
		}
		if err := c.Claims.Del(context.WithoutCancel(ctx), key); err != nil {
			log.Warn(ctx, "Failed to release approaching claim", logger.WithError(err))
		}
	}()

	order, err := c.Orders.FindByID(ctx, orderID)
	if err != nil {
		return false, storeError(err)
	}
	if _, ok := order.ShouldNotifyApproaching(pos); !ok {
		if order.ApproachingNotified() {
			c.Metrics.RecordApproachingNotification(StatusAlreadyNotified)
		}
		return false, nil
	}

	tokens, err := c.Tokens.Tokens(ctx, entity.TokenOwner{Kind: entity.OwnerUser, ID: order.CustomerID()})
	if err != nil && !errors.Is(err, entity.ErrEntityNotFound) {
		return false, storeError(err)
	}
	if tokens.Len() == 0 {
		c.Metrics.RecordApproachingNotification(StatusNoTokens)
		log.Warn(ctx, "Customer has no device tokens", logger.String("customer_id", order.CustomerID()))
		return false, nil
	}

	res, err := c.Sender.Send(ctx, tokens, approachingMessage(orderID, driverID, km))
	if err != nil {
		c.Metrics.RecordApproachingNotification(StatusTransportDown)
		log.Error(ctx, "Approaching notification not sent", logger.WithError(err))
		return false, nil
	}
	if res.SuccessCount == 0 {
		c.Metrics.RecordApproachingNotification(StatusNotDelivered)
		log.Warn(ctx, "Approaching notification reached no device",
			logger.Int("failures", res.FailureCount),
		)
		return false, nil
	}

	keepClaim = true
	if err := order.MarkApproachingNotified(); err != nil {
		return false, err
	}
	closed, err := c.Orders.MarkApproachingNotified(ctx, orderID)
	if err != nil {
		log.Error(ctx, "Notification sent but latch not persisted", logger.WithError(err))
		return false, storeError(err)
	}
	c.Metrics.RecordApproachingNotification(StatusSent)
	log.Info(ctx, "Approaching notification sent",
		logger.Float64("distance_km", km),
		logger.Int("devices", res.SuccessCount),
		logger.Bool("latch_closed", closed),
	)
	return true, nil
}

func approachingMessage(orderID, driverID string, km float64) outbound.PushMessage {
	return outbound.PushMessage{
		Title: ApproachingTitle,
		Body:  ApproachingBody,
		Data: map[string]string{
			"type":     "driver_approaching",
			"orderId":  orderID,
			"driverId": driverID,
			"distance": strconv.FormatFloat(km, 'f', -1, 64),
		},
	}
}

func claimKey(orderID string) string { return "proximity:order:" + orderID }

func storeError(err error) error {
	if errors.Is(err, entity.ErrStoreUnavailable) || errors.Is(err, entity.ErrEntityNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w", entity.ErrStoreUnavailable, err)
}
