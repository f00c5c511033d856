package location

import (
	"context"
	"time"

	"github.com/DioGolang/GeoDispatch/pkg/metrics"
)

type SubmitMetricsDecorator struct {
	Next    SubmitUseCase
	Metrics metrics.Metrics
}

func (d *SubmitMetricsDecorator) Execute(ctx context.Context, input SubmitInput) (SubmitOutput, error) {
	start := time.Now()
	output, err := d.Next.Execute(ctx, input)
	d.Metrics.RecordUseCaseExecution("SubmitLocationUpdate", err == nil, time.Since(start))
	return output, err
}
