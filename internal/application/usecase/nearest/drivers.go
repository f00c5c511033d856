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

type DriversUseCaseImpl struct {
	Repo         outbound.DriverRepository
	StoreTimeout time.Duration
}

func NewDriversUseCase(repo outbound.DriverRepository, storeTimeout time.Duration) *DriversUseCaseImpl {
	return &DriversUseCaseImpl{Repo: repo, StoreTimeout: storeTimeout}
}

// Execute ranks the drivers matching the filter against a snapshot read from
// the store. The snapshot may trail in-flight location updates.
func (uc *DriversUseCaseImpl) Execute(ctx context.Context, input DriversInput) (DriversOutput, error) {
	query, err := geo.NewCoordinate(input.Latitude, input.Longitude)
	if err != nil {
		return DriversOutput{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, uc.StoreTimeout)
	defer cancel()

	filter := entity.DriverFilter{ServiceType: input.ServiceType, AvailableOnly: input.AvailableOnly}
	candidates, err := uc.Repo.FindCandidates(ctx, filter)
	if err != nil {
		return DriversOutput{}, fmt.Errorf("%w: loading candidates: %w", entity.ErrStoreUnavailable, err)
	}

	// the store already filters, Match keeps the contract if it does not
	eligible := candidates[:0:0]
	for _, d := range candidates {
		if filter.Match(d) {
			eligible = append(eligible, d)
		}
	}

	ranked := matching.Nearest(query, eligible, matching.DriverPosition, input.Limit)
	out := DriversOutput{Drivers: make([]DriverMatch, len(ranked))}
	for i, r := range ranked {
		out.Drivers[i] = DriverMatch{Driver: r.Candidate, DistanceKm: r.DistanceKm}
	}
	return out, nil
}
