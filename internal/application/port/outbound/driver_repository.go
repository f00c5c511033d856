package outbound

import (
	"context"
	"time"

	"github.com/DioGolang/GeoDispatch/internal/domain/entity"
	"github.com/DioGolang/GeoDispatch/internal/domain/geo"
)

// DriverRepository is the entity store for drivers. FindByID returns
// entity.ErrEntityNotFound when the driver does not exist.
type DriverRepository interface {
	FindByID(ctx context.Context, id string) (*entity.Driver, error)
	FindCandidates(ctx context.Context, filter entity.DriverFilter) ([]entity.Driver, error)
	UpdatePosition(ctx context.Context, id string, pos geo.Coordinate, at time.Time) error
}

type SupermarketRepository interface {
	FindActive(ctx context.Context) ([]entity.Supermarket, error)
}
