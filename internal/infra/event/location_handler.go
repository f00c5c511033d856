package event

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/DioGolang/GeoDispatch/internal/application/usecase/location"
	"github.com/DioGolang/GeoDispatch/internal/application/usecase/proximity"
	"github.com/DioGolang/GeoDispatch/internal/domain/entity"
	"github.com/DioGolang/GeoDispatch/internal/domain/geo"
	"github.com/DioGolang/GeoDispatch/pkg/logger"
)

type ProximityChecker interface {
	Check(ctx context.Context, driverID string, pos geo.Coordinate) (proximity.CheckReport, error)
}

// NewLocationAcceptedHandler runs the proximity check for an accepted driver
// position. Events older than maxAge describe a position the driver has
// already left and are skipped.
func NewLocationAcceptedHandler(checker ProximityChecker, log logger.Logger, maxAge time.Duration, now func() time.Time) MessageHandler {
	return func(ctx context.Context, msg []byte, _ map[string]interface{}) error {
		var evt location.LocationAccepted
		if err := json.Unmarshal(msg, &evt); err != nil {
			// poison message: retrying cannot fix it
			log.Error(ctx, "Failed to unmarshal location event", logger.WithError(err))
			return nil
		}

		if maxAge > 0 && !evt.At.IsZero() && now().Sub(evt.At) > maxAge {
			log.Debug(ctx, "Skipping stale location event",
				logger.String("driver_id", evt.DriverID),
				logger.String("at", evt.At.Format(time.RFC3339)),
			)
			return nil
		}

		pos := geo.Coordinate{Latitude: evt.Latitude, Longitude: evt.Longitude}
		report, err := checker.Check(ctx, evt.DriverID, pos)
		if errors.Is(err, entity.ErrInvalidCoordinate) || errors.Is(err, entity.ErrIDIsRequired) {
			log.Error(ctx, "Dropping invalid location event", logger.WithError(err))
			return nil
		}
		if err != nil {
			return err
		}
		if report.Notified > 0 {
			log.Info(ctx, "Proximity check notified customers",
				logger.String("driver_id", evt.DriverID),
				logger.Int("orders", report.Notified),
			)
		}
		return nil
	}
}
