package outbound

import (
	"context"

	"github.com/DioGolang/GeoDispatch/internal/domain/entity"
)

type OrderRepository interface {
	// FindActiveByDriver returns the driver's orders in a live status.
	FindActiveByDriver(ctx context.Context, driverID string) ([]*entity.ActiveOrder, error)
	FindByID(ctx context.Context, id string) (*entity.ActiveOrder, error)
	// MarkApproachingNotified closes the latch only if it is still open and
	// reports whether this call closed it.
	MarkApproachingNotified(ctx context.Context, id string) (bool, error)
}
