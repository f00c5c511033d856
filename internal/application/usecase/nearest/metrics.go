package nearest

import (
	"context"
	"time"

	"github.com/DioGolang/GeoDispatch/pkg/metrics"
)

type DriversMetricsDecorator struct {
	Next    DriversUseCase
	Metrics metrics.Metrics
}

func (d *DriversMetricsDecorator) Execute(ctx context.Context, input DriversInput) (DriversOutput, error) {
	start := time.Now()
	output, err := d.Next.Execute(ctx, input)
	d.Metrics.RecordUseCaseExecution("FindNearestDrivers", err == nil, time.Since(start))
	return output, err
}

type SupermarketsMetricsDecorator struct {
	Next    SupermarketsUseCase
	Metrics metrics.Metrics
}

func (d *SupermarketsMetricsDecorator) Execute(ctx context.Context, input SupermarketsInput) (SupermarketsOutput, error) {
	start := time.Now()
	output, err := d.Next.Execute(ctx, input)
	d.Metrics.RecordUseCaseExecution("FindNearestSupermarket", err == nil, time.Since(start))
	return output, err
}
