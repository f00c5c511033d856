package nearest

import (
	"context"
)

type DriversUseCase interface {
	Execute(ctx context.Context, input DriversInput) (DriversOutput, error)
}

type SupermarketsUseCase interface {
	Execute(ctx context.Context, input SupermarketsInput) (SupermarketsOutput, error)
}
