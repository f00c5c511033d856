package nearest

import (
	"context"
	"fmt"
	"time"

	"github.com/DioGolang/GeoDispatch/internal/application/port/outbound"
	"github.com/DioGolang/GeoDispatch/internal/domain/entity"
	"github.com/DioGolang/GeoDispatch/internal/domain/geo"
	"github.com/DioGolang/GeoDispatch/internal/domain/matching"
)

type SupermarketsUseCaseImpl struct {
	Repo         outbound.SupermarketRepository
	StoreTimeout time.Duration
}

func NewSupermarketsUseCase(repo outbound.SupermarketRepository, storeTimeout time.Duration) *SupermarketsUseCaseImpl {
	return &SupermarketsUseCaseImpl{Repo: repo, StoreTimeout: storeTimeout}
}

func (uc *SupermarketsUseCaseImpl) Execute(ctx context.Context, input SupermarketsInput) (SupermarketsOutput, error) {
	query, err := geo.NewCoordinate(input.Latitude, input.Longitude)
	if err != nil {
		return SupermarketsOutput{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, uc.StoreTimeout)
	defer cancel()

	owners, err := uc.Repo.FindActive(ctx)
	if err != nil {
		return SupermarketsOutput{}, fmt.Errorf("%w: loading supermarkets: %w", entity.ErrStoreUnavailable, err)
	}

	active := owners[:0:0]
	for _, o := range owners {
		if o.Lifecycle == entity.LifecycleActive {
			active = append(active, o)
		}
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 1
	}
	ranked := matching.NearestOwners(query, active, limit)

	out := SupermarketsOutput{Ranked: make([]SupermarketMatch, len(ranked))}
	for i, m := range ranked {
		out.Ranked[i] = SupermarketMatch{Supermarket: m.Owner, Location: m.Location, DistanceKm: m.DistanceKm}
	}
	if best, ok := matching.NearestOwnerLocation(query, active); ok {
		out.Nearest = &SupermarketMatch{Supermarket: best.Owner, Location: best.Location, DistanceKm: best.DistanceKm}
	}
	return out, nil
}
