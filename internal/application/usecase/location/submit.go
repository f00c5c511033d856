package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DioGolang/GeoDispatch/internal/application/port/outbound"
	"github.com/DioGolang/GeoDispatch/internal/domain/entity"
	"github.com/DioGolang/GeoDispatch/internal/domain/geo"
	"github.com/DioGolang/GeoDispatch/pkg/events"
	"github.com/DioGolang/GeoDispatch/pkg/logger"
	"github.com/DioGolang/GeoDispatch/pkg/metrics"
	"github.com/google/uuid"
)

type SubmitUseCaseImpl struct {
	Drivers    outbound.DriverRepository
	UnitOfWork outbound.UnitOfWork
	Throttle   *Throttle
	Policy     Policy
	Logger     logger.Logger
	Metrics    metrics.Metrics
	Clock      func() time.Time
}

func NewSubmitUseCase(
	drivers outbound.DriverRepository,
	uow outbound.UnitOfWork,
	throttle *Throttle,
	policy Policy,
	log logger.Logger,
	m metrics.Metrics,
) *SubmitUseCaseImpl {
	return &SubmitUseCaseImpl{
		Drivers:    drivers,
		UnitOfWork: uow,
		Throttle:   throttle,
		Policy:     policy,
		Logger:     log,
		Metrics:    m,
		Clock:      time.Now,
	}
}

func (uc *SubmitUseCaseImpl) Execute(ctx context.Context, input SubmitInput) (SubmitOutput, error) {
	if input.EntityID == "" {
		return SubmitOutput{}, entity.ErrIDIsRequired
	}
	candidate, err := geo.NewCoordinate(input.Latitude, input.Longitude)
	if err != nil {
		uc.Metrics.RecordLocationUpdate("invalid")
		return SubmitOutput{}, err
	}
	now := input.Now
	if now.IsZero() {
		now = uc.Clock()
	}

	lock := uc.Throttle.Acquire(input.EntityID)
	defer func() {
		lock.Release()
		uc.Metrics.SetThrottleEntries(uc.Throttle.Len())
	}()

	storeCtx, cancel := context.WithTimeout(ctx, uc.Policy.StoreTimeout)
	defer cancel()

	driver, err := uc.Drivers.FindByID(storeCtx, input.EntityID)

	if last, ok := lock.LastAccepted(); ok && now.Sub(last) < uc.Policy.RateLimit {
		uc.Metrics.RecordLocationUpdate(string(ReasonRateLimited))
		if err != nil {
			uc.Logger.Debug(ctx, "Rate-limited update answered without stored position",
				logger.String("driver_id", input.EntityID),
				logger.WithError(err),
			)
			return SubmitOutput{Reason: ReasonRateLimited, LastUpdateAt: last}, nil
		}
		return unchanged(driver, ReasonRateLimited), nil
	}
	if err != nil {
		return SubmitOutput{}, storeError(err)
	}

	var jumpKm float64
	if km, ok := geo.DistancePtr(driver.Position, &candidate); ok {
		if km > uc.Policy.JumpWarnKm {
			jumpKm = km
			uc.Metrics.RecordSuspiciousJump()
			uc.Logger.Warn(ctx, "Large location jump detected",
				logger.String("driver_id", input.EntityID),
				logger.Float64("distance_km", km),
			)
		}
		if km < uc.Policy.MinMovementKm {
			lock.Touch(now)
			uc.Metrics.RecordLocationUpdate(string(ReasonImmaterialMovement))
			return unchanged(driver, ReasonImmaterialMovement), nil
		}
	}

	proximityDue := lock.ProximityDue(now, uc.Policy.ProximityCheckInterval)

	err = uc.UnitOfWork.Do(storeCtx, func(p outbound.RepositoryProvider) error {
		if err := p.Drivers().UpdatePosition(storeCtx, input.EntityID, candidate, now); err != nil {
			return err
		}
		if !proximityDue {
			return nil
		}
		return uc.saveAcceptedEvent(storeCtx, p.Outbox(), input.EntityID, candidate, now)
	})
	if err != nil {
		uc.Logger.Error(ctx, "Failed to persist driver position",
			logger.String("driver_id", input.EntityID),
			logger.WithError(err),
		)
		return SubmitOutput{}, storeError(err)
	}

	lock.Touch(now)
	if proximityDue {
		lock.MarkProximityChecked(now)
	}
	uc.Metrics.RecordLocationUpdate(string(ReasonAccepted))

	driver.MoveTo(candidate, now)
	return SubmitOutput{
		Accepted:     true,
		Reason:       ReasonAccepted,
		Position:     driver.Position,
		LastUpdateAt: driver.LastUpdateAt,
		JumpKm:       jumpKm,
	}, nil
}

func (uc *SubmitUseCaseImpl) saveAcceptedEvent(ctx context.Context, outbox outbound.OutboxRepository, driverID string, pos geo.Coordinate, at time.Time) error {
	evt := events.NewEvent(LocationAcceptedEvent)
	evt.SetPayload(LocationAccepted{
		DriverID:  driverID,
		Latitude:  pos.Latitude,
		Longitude: pos.Longitude,
		At:        at,
	})
	payload, err := json.Marshal(evt.GetPayload())
	if err != nil {
		return fmt.Errorf("encoding %s: %w", evt.GetName(), err)
	}
	return outbox.SaveOutboxEvent(ctx, uuid.NewString(), driverID, evt.GetName(), 1, payload, LocationAcceptedTopic)
}

func unchanged(d *entity.Driver, reason Reason) SubmitOutput {
	return SubmitOutput{
		Accepted:     false,
		Reason:       reason,
		Position:     d.Position,
		LastUpdateAt: d.LastUpdateAt,
	}
}

// storeError keeps not-found as is and classifies everything else, including
// timeouts, as the store being unavailable.
func storeError(err error) error {
	if errors.Is(err, entity.ErrEntityNotFound) || errors.Is(err, entity.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", entity.ErrStoreUnavailable, err)
}
